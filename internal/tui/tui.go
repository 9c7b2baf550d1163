// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/service"
)

const recentErrorsLimit = 5

// TUI is the interactive console of the sync daemon. Besides running the
// console it is the engine's permission prompter and error reporter: both
// surface inside the running console.
type TUI struct {
	logger  *logger.Logger
	prompts chan chan<- promptAnswer
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	recent []string
}

func New(log *logger.Logger) *TUI {
	return &TUI{
		logger:  log.Component("tui"),
		prompts: make(chan chan<- promptAnswer),
		done:    make(chan struct{}),
	}
}

// Run shows the console until the user quits or ctx is cancelled.
func (t *TUI) Run(ctx context.Context, services *service.ClientServices, opts ...tea.ProgramOption) error {
	defer t.once.Do(func() { close(t.done) })

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen(), tea.WithReportFocus()}, opts...)
	_, err := tea.NewProgram(newConsoleModel(ctx, services, t), opts...).Run()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		t.logger.Err(err).Str("func", "*TUI.Run").Msg("console stopped")
	}
	return err
}

// PromptForPermission shows the sync question on top of the console and
// waits for the answer. Requests made before the console starts wait for
// it.
func (t *TUI) PromptForPermission(ctx context.Context) (bool, error) {
	reply := make(chan promptAnswer, 1)

	select {
	case t.prompts <- reply:
	case <-t.done:
		return false, ErrPromptDismissed
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case answer := <-reply:
		return answerResult(answer)
	case <-t.done:
		return false, ErrPromptDismissed
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Report keeps the error for the console and logs it.
func (t *TUI) Report(err *service.SyncError) {
	t.logger.Warn().Err(err.Err).Str("op", err.Op).Str("kind", string(err.Kind)).Msg("sync error reported")

	t.mu.Lock()
	defer t.mu.Unlock()

	t.recent = append(t.recent, humanizeSyncError(err))
	if len(t.recent) > recentErrorsLimit {
		t.recent = t.recent[len(t.recent)-recentErrorsLimit:]
	}
}

// RecentErrors returns the latest reported errors, oldest first.
func (t *TUI) RecentErrors() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.recent...)
}

func (t *TUI) waitForPrompt() tea.Cmd {
	return func() tea.Msg {
		select {
		case reply := <-t.prompts:
			return promptRequestMsg{reply: reply}
		case <-t.done:
			return nil
		}
	}
}
