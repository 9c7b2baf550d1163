package service

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/profile-sync/models"
)

// PermissionGate holds the user's sync decision and asks for it at most once
// at a time: concurrent callers of Resolve share a single prompt.
type PermissionGate struct {
	prompter PermissionPrompter
	prompts  singleflight.Group

	mu         sync.RWMutex
	permission models.Permission
	listeners  []func(models.Permission)
}

func NewPermissionGate(prompter PermissionPrompter) *PermissionGate {
	return &PermissionGate{prompter: prompter}
}

func (g *PermissionGate) Permission() models.Permission {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.permission
}

// Set records a decision and notifies listeners when it changed.
func (g *PermissionGate) Set(p models.Permission) {
	g.mu.Lock()
	changed := g.permission != p
	g.permission = p
	listeners := append([]func(models.Permission){}, g.listeners...)
	g.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(p)
	}
}

// restore sets the persisted decision without notifying listeners.
func (g *PermissionGate) restore(p models.Permission) {
	g.mu.Lock()
	g.permission = p
	g.mu.Unlock()
}

// OnChange registers l to run after every change of the decision.
func (g *PermissionGate) OnChange(l func(models.Permission)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, l)
	g.mu.Unlock()
}

// Resolve returns the decision, prompting the user when none was recorded
// and a credential is available. Without a credential, or without a
// prompter, an unset decision stays unset.
func (g *PermissionGate) Resolve(ctx context.Context, hasCredential bool) (models.Permission, error) {
	if p := g.Permission(); p != models.PermissionUnset || !hasCredential || g.prompter == nil {
		return p, nil
	}

	v, err, _ := g.prompts.Do("prompt", func() (any, error) {
		// another caller may have finished a prompt while we waited
		if p := g.Permission(); p != models.PermissionUnset {
			return p, nil
		}
		granted, err := g.prompter.PromptForPermission(ctx)
		if err != nil {
			return models.PermissionUnset, err
		}
		p := models.PermissionDenied
		if granted {
			p = models.PermissionGranted
		}
		g.Set(p)
		return p, nil
	})
	if err != nil {
		return models.PermissionUnset, err
	}

	return v.(models.Permission), nil
}
