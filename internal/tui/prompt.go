package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const promptText = "Keep loadouts, tags, searches and settings in sync\n" +
	"with the profile server? Declining keeps everything on this device."

type promptAnswer int

const (
	answerNone promptAnswer = iota
	answerAllow
	answerDeny
	answerDismiss
)

func readPromptAnswer(msg tea.KeyMsg) promptAnswer {
	switch {
	case key.Matches(msg, keys.yes):
		return answerAllow
	case key.Matches(msg, keys.no):
		return answerDeny
	case key.Matches(msg, keys.esc), key.Matches(msg, keys.quit):
		return answerDismiss
	}
	return answerNone
}

func promptView() string {
	content := titleStyle.Render("Sync profile data?") + "\n\n" + promptText + "\n\n"
	content += helpStyle.Render("y allow    n local only    esc ask later")
	return overlayBoxStyle.Render(content)
}

type promptModel struct {
	answer promptAnswer
}

func (m promptModel) Init() tea.Cmd {
	return nil
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if answer := readPromptAnswer(keyMsg); answer != answerNone {
		m.answer = answer
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.answer != answerNone {
		return ""
	}
	return appStyle.Render(promptView())
}

// PermissionPrompter asks for the sync decision in a short-lived terminal
// program. It is used when the daemon runs without the console.
type PermissionPrompter struct {
	in  io.Reader
	out io.Writer
}

func NewPermissionPrompter(in io.Reader, out io.Writer) *PermissionPrompter {
	return &PermissionPrompter{in: in, out: out}
}

func (p *PermissionPrompter) PromptForPermission(ctx context.Context) (bool, error) {
	program := tea.NewProgram(promptModel{},
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithoutSignalHandler(),
	)

	final, err := program.Run()
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return false, fmt.Errorf("permission prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok {
		return false, tea.ErrProgramKilled
	}
	return answerResult(m.answer)
}

func answerResult(a promptAnswer) (bool, error) {
	switch a {
	case answerAllow:
		return true, nil
	case answerDeny:
		return false, nil
	default:
		return false, ErrPromptDismissed
	}
}
