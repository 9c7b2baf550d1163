package models

import "time"

// PeerEvent is a best-effort signal exchanged between client instances of the
// same user.
type PeerEvent string

// EventSettingsChanged tells peers that account-wide settings reached the
// server and they should refresh soon.
const EventSettingsChanged PeerEvent = "settings-changed"

// PeerMessage is the envelope a notifier carries on the wire.
type PeerMessage struct {
	// InstanceID identifies the sending engine; receivers drop their own
	// messages.
	InstanceID string    `json:"instance_id"`
	UserID     string    `json:"user_id,omitempty"`
	Event      PeerEvent `json:"event"`
	SentAt     time.Time `json:"sent_at"`
}
