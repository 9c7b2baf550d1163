package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// ErrUnknownItemKind is returned when a mutation or a server item names a
// kind the client does not know how to store.
var ErrUnknownItemKind = errors.New("unknown profile item kind")

// ItemKind is the storage class of a synchronized profile record.
type ItemKind string

const (
	KindSetting ItemKind = "setting"
	KindLoadout ItemKind = "loadout"
	KindTag     ItemKind = "tag"
	KindSearch  ItemKind = "search"
)

// Loadout is a saved equipment set.
type Loadout struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ClassType  int             `json:"class_type"`
	Items      json.RawMessage `json:"items,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`

	LastUpdatedAt int64 `json:"last_updated_at,omitempty"`
}

// ItemAnnotation is the user's tag and free-form notes for one item.
type ItemAnnotation struct {
	ItemID string `json:"item_id"`
	Tag    string `json:"tag,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Search is a recent or saved search query.
type Search struct {
	Query      string `json:"query"`
	Saved      bool   `json:"saved"`
	UsageCount int    `json:"usage_count"`
	LastUsage  int64  `json:"last_usage"`
}

// Mutation is the normalised effect of an update on a single record.
type Mutation struct {
	Kind   ItemKind
	Key    string
	Value  json.RawMessage
	Delete bool
}

// ProfileItem is one record as served by the profile store. Deleted items
// are tombstones, sent on incremental loads so clients can drop them.
type ProfileItem struct {
	Kind         ItemKind        `json:"kind"`
	Key          string          `json:"key"`
	Value        json.RawMessage `json:"value,omitempty"`
	Deleted      bool            `json:"deleted,omitempty"`
	LastModified int64           `json:"last_modified"`
}

// Mutation converts the served record into the mutation that reproduces it.
func (i ProfileItem) Mutation() Mutation {
	return Mutation{Kind: i.Kind, Key: i.Key, Value: i.Value, Delete: i.Deleted}
}

// Settings is the account-wide settings object, stored as opaque JSON
// values keyed by setting name.
type Settings map[string]json.RawMessage

// Clone returns a copy that shares no map with s.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// ProfileState is the last-synchronized snapshot of one profile.
type ProfileState struct {
	Loadouts map[string]Loadout        `json:"loadouts"`
	Tags     map[string]ItemAnnotation `json:"tags"`
	Searches map[string]Search         `json:"searches"`

	// LastModified is the newest server modification the snapshot reflects.
	// It never decreases.
	LastModified int64 `json:"last_modified"`

	// SyncToken is the server-issued marker used for incremental loads.
	SyncToken string `json:"sync_token,omitempty"`

	// LastLoadedAt is the time of the last successful load; zero means the
	// profile has never completed one.
	LastLoadedAt time.Time `json:"last_loaded_at"`
}

// NewProfileState returns an empty, never-loaded profile.
func NewProfileState() ProfileState {
	return ProfileState{
		Loadouts: make(map[string]Loadout),
		Tags:     make(map[string]ItemAnnotation),
		Searches: make(map[string]Search),
	}
}

// Loaded reports whether the profile has completed at least one load.
func (p ProfileState) Loaded() bool {
	return !p.LastLoadedAt.IsZero()
}

// Clone returns a deep-enough copy: maps are copied, loadout item blobs are
// shared since they are never mutated in place.
func (p ProfileState) Clone() ProfileState {
	out := p
	out.Loadouts = maps.Clone(p.Loadouts)
	out.Tags = maps.Clone(p.Tags)
	out.Searches = maps.Clone(p.Searches)
	out.ensureMaps()
	return out
}

// AdvanceLastModified moves LastModified forward to v; older values are
// ignored.
func (p *ProfileState) AdvanceLastModified(v int64) {
	if v > p.LastModified {
		p.LastModified = v
	}
}

// ClearItems drops every record but keeps sync bookkeeping.
func (p *ProfileState) ClearItems() {
	p.Loadouts = make(map[string]Loadout)
	p.Tags = make(map[string]ItemAnnotation)
	p.Searches = make(map[string]Search)
}

func (p *ProfileState) ensureMaps() {
	if p.Loadouts == nil {
		p.Loadouts = make(map[string]Loadout)
	}
	if p.Tags == nil {
		p.Tags = make(map[string]ItemAnnotation)
	}
	if p.Searches == nil {
		p.Searches = make(map[string]Search)
	}
}

// ApplyMutation applies m to the account-wide settings or to profile,
// depending on its kind. settings must be non-nil.
func ApplyMutation(settings Settings, profile *ProfileState, m Mutation) error {
	profile.ensureMaps()

	switch m.Kind {
	case KindSetting:
		if m.Delete {
			delete(settings, m.Key)
			return nil
		}
		settings[m.Key] = append(json.RawMessage(nil), m.Value...)

	case KindLoadout:
		if m.Delete {
			delete(profile.Loadouts, m.Key)
			return nil
		}
		var l Loadout
		if err := json.Unmarshal(m.Value, &l); err != nil {
			return fmt.Errorf("decode loadout %s: %w", m.Key, err)
		}
		profile.Loadouts[m.Key] = l

	case KindTag:
		if m.Delete {
			delete(profile.Tags, m.Key)
			return nil
		}
		var a ItemAnnotation
		if err := json.Unmarshal(m.Value, &a); err != nil {
			return fmt.Errorf("decode tag %s: %w", m.Key, err)
		}
		profile.Tags[m.Key] = a

	case KindSearch:
		if m.Delete {
			delete(profile.Searches, m.Key)
			return nil
		}
		var s Search
		if err := json.Unmarshal(m.Value, &s); err != nil {
			return fmt.Errorf("decode search %s: %w", m.Key, err)
		}
		profile.Searches[m.Key] = s

	default:
		return fmt.Errorf("%w: %q", ErrUnknownItemKind, m.Kind)
	}

	return nil
}
