package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpdateAction names the kind of user-facing mutation a [PendingUpdate]
// carries. The action decides how the payload is decoded.
type UpdateAction string

const (
	// ActionSetting merges a JSON object of account-wide settings.
	ActionSetting UpdateAction = "setting"
	// ActionLoadout creates or replaces a saved loadout ([Loadout] payload).
	ActionLoadout UpdateAction = "loadout"
	// ActionDeleteLoadout removes a saved loadout ([DeleteLoadoutPayload]).
	ActionDeleteLoadout UpdateAction = "delete_loadout"
	// ActionTag sets the tag and notes of an item ([ItemAnnotation]); an
	// annotation with neither tag nor notes removes it.
	ActionTag UpdateAction = "tag"
	// ActionTagCleanup removes annotations of items that no longer exist
	// ([TagCleanupPayload]).
	ActionTagCleanup UpdateAction = "tag_cleanup"
	// ActionSearch records a saved or recent search ([Search]).
	ActionSearch UpdateAction = "search"
	// ActionDeleteSearch forgets a search ([DeleteSearchPayload]).
	ActionDeleteSearch UpdateAction = "delete_search"
)

// ErrInvalidUpdate is returned when a pending update cannot be translated
// into item mutations.
var ErrInvalidUpdate = errors.New("invalid pending update")

// Valid reports whether a is one of the known actions.
func (a UpdateAction) Valid() bool {
	switch a {
	case ActionSetting, ActionLoadout, ActionDeleteLoadout, ActionTag,
		ActionTagCleanup, ActionSearch, ActionDeleteSearch:
		return true
	}
	return false
}

// CrossInstanceVisible reports whether other open client instances of the
// same user should refresh promptly after an update with this action
// reaches the server.
func (a UpdateAction) CrossInstanceVisible() bool {
	return a == ActionSetting
}

// PendingUpdate is one queued user mutation. It is never modified after
// creation and leaves the queue only once the server acknowledged it or it
// is deliberately discarded.
type PendingUpdate struct {
	ID      string          `json:"id"`
	Action  UpdateAction    `json:"action"`
	Payload json.RawMessage `json:"payload"`

	// ProfileKey is the profile the update targets. Nil means "whichever
	// profile the batch is addressed to".
	ProfileKey *ProfileKey `json:"profile_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewPendingUpdate marshals payload and builds an update for action. The
// ID is left empty; the engine assigns one on enqueue.
func NewPendingUpdate(action UpdateAction, payload any, key *ProfileKey) (PendingUpdate, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return PendingUpdate{}, fmt.Errorf("marshal %s payload: %w", action, err)
	}

	var target *ProfileKey
	if key != nil {
		k := *key
		target = &k
	}

	return PendingUpdate{
		Action:     action,
		Payload:    raw,
		ProfileKey: target,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Targets reports whether the update applies to key.
func (u PendingUpdate) Targets(key ProfileKey) bool {
	return u.ProfileKey == nil || *u.ProfileKey == key
}

// DeleteLoadoutPayload is the payload of [ActionDeleteLoadout].
type DeleteLoadoutPayload struct {
	ID string `json:"id"`
}

// TagCleanupPayload is the payload of [ActionTagCleanup].
type TagCleanupPayload struct {
	ItemIDs []string `json:"item_ids"`
}

// DeleteSearchPayload is the payload of [ActionDeleteSearch].
type DeleteSearchPayload struct {
	Query string `json:"query"`
}

// Mutations translates the update into per-item mutations. The same
// translation is used by the client projection and by the server of record,
// so both sides agree on what an update means.
func (u PendingUpdate) Mutations() ([]Mutation, error) {
	switch u.Action {
	case ActionSetting:
		var settings map[string]json.RawMessage
		if err := json.Unmarshal(u.Payload, &settings); err != nil {
			return nil, fmt.Errorf("%w: setting payload: %w", ErrInvalidUpdate, err)
		}
		out := make([]Mutation, 0, len(settings))
		for k, v := range settings {
			out = append(out, Mutation{Kind: KindSetting, Key: k, Value: v})
		}
		return out, nil

	case ActionLoadout:
		var l Loadout
		if err := json.Unmarshal(u.Payload, &l); err != nil {
			return nil, fmt.Errorf("%w: loadout payload: %w", ErrInvalidUpdate, err)
		}
		if l.ID == "" {
			return nil, fmt.Errorf("%w: loadout without id", ErrInvalidUpdate)
		}
		return []Mutation{{Kind: KindLoadout, Key: l.ID, Value: u.Payload}}, nil

	case ActionDeleteLoadout:
		var p DeleteLoadoutPayload
		if err := json.Unmarshal(u.Payload, &p); err != nil || p.ID == "" {
			return nil, fmt.Errorf("%w: delete_loadout payload", ErrInvalidUpdate)
		}
		return []Mutation{{Kind: KindLoadout, Key: p.ID, Delete: true}}, nil

	case ActionTag:
		var a ItemAnnotation
		if err := json.Unmarshal(u.Payload, &a); err != nil {
			return nil, fmt.Errorf("%w: tag payload: %w", ErrInvalidUpdate, err)
		}
		if a.ItemID == "" {
			return nil, fmt.Errorf("%w: tag without item id", ErrInvalidUpdate)
		}
		if a.Tag == "" && a.Notes == "" {
			return []Mutation{{Kind: KindTag, Key: a.ItemID, Delete: true}}, nil
		}
		return []Mutation{{Kind: KindTag, Key: a.ItemID, Value: u.Payload}}, nil

	case ActionTagCleanup:
		var p TagCleanupPayload
		if err := json.Unmarshal(u.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: tag_cleanup payload: %w", ErrInvalidUpdate, err)
		}
		out := make([]Mutation, 0, len(p.ItemIDs))
		for _, id := range p.ItemIDs {
			out = append(out, Mutation{Kind: KindTag, Key: id, Delete: true})
		}
		return out, nil

	case ActionSearch:
		var s Search
		if err := json.Unmarshal(u.Payload, &s); err != nil {
			return nil, fmt.Errorf("%w: search payload: %w", ErrInvalidUpdate, err)
		}
		if s.Query == "" {
			return nil, fmt.Errorf("%w: search without query", ErrInvalidUpdate)
		}
		return []Mutation{{Kind: KindSearch, Key: s.Query, Value: u.Payload}}, nil

	case ActionDeleteSearch:
		var p DeleteSearchPayload
		if err := json.Unmarshal(u.Payload, &p); err != nil || p.Query == "" {
			return nil, fmt.Errorf("%w: delete_search payload", ErrInvalidUpdate)
		}
		return []Mutation{{Kind: KindSearch, Key: p.Query, Delete: true}}, nil
	}

	return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidUpdate, u.Action)
}
