package service

import "sync/atomic"

// PresenceState is a settable [Presence]. Both flags start true.
type PresenceState struct {
	offline atomic.Bool
	hidden  atomic.Bool
}

func NewPresenceState() *PresenceState {
	return &PresenceState{}
}

func (p *PresenceState) Online() bool  { return !p.offline.Load() }
func (p *PresenceState) Visible() bool { return !p.hidden.Load() }

func (p *PresenceState) SetOnline(v bool)  { p.offline.Store(!v) }
func (p *PresenceState) SetVisible(v bool) { p.hidden.Store(!v) }
