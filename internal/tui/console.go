package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/profile-sync/internal/service"
	"github.com/MKhiriev/profile-sync/models"
)

const refreshEvery = time.Second

// snapshot is what the console shows; it is re-read from the engine on
// every tick.
type snapshot struct {
	active     models.ProfileKey
	permission models.Permission
	state      service.SchedulerState
	syncing    bool
	lastErr    error
	profile    models.ProfileState
	settings   models.Settings
	recent     []string
}

type consoleModel struct {
	ctx      context.Context
	services *service.ClientServices
	tui      *TUI
	now      func() time.Time
	copy     func(string) error

	spinner    spinner.Model
	input      textinput.Model
	commanding bool
	prompt     chan<- promptAnswer

	snap   snapshot
	status string
	errMsg string
}

func newConsoleModel(ctx context.Context, services *service.ClientServices, t *TUI) consoleModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "set theme dark"
	in.CharLimit = 256

	m := consoleModel{
		ctx:      ctx,
		services: services,
		tui:      t,
		now:      time.Now,
		copy:     clipboard.WriteAll,
		spinner:  s,
		input:    in,
	}
	m.snap = m.takeSnapshot()
	return m
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(), m.tui.waitForPrompt())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.takeSnapshot()
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.FocusMsg:
		// a focused terminal counts as a visible client
		m.services.Presence.SetVisible(true)
		m.services.Scheduler.VisibilityRegained(m.ctx)
		return m, nil
	case tea.BlurMsg:
		m.services.Presence.SetVisible(false)
		return m, nil
	case promptRequestMsg:
		m.prompt = msg.reply
		return m, nil
	case refreshDoneMsg:
		m.snap = m.takeSnapshot()
		if msg.err != nil {
			m.status, m.errMsg = "", humanizeSyncError(msg.err)
			return m, nil
		}
		m.status, m.errMsg = "Profile refreshed", ""
		return m, nil
	case commandDoneMsg:
		m.snap = m.takeSnapshot()
		if msg.err != nil {
			m.status, m.errMsg = "", humanizeSyncError(msg.err)
			return m, nil
		}
		m.status, m.errMsg = msg.status, ""
		return m, nil
	case copiedMsg:
		if msg.err != nil {
			m.status, m.errMsg = "", fmt.Sprintf("Copy failed: %v", msg.err)
			return m, nil
		}
		m.status, m.errMsg = "Summary copied to clipboard", ""
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.commanding {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.prompt != nil {
		return m.answerPrompt(keyMsg)
	}
	if m.commanding {
		return m.updateCommand(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, keys.quit):
		return m, tea.Quit
	case key.Matches(keyMsg, keys.refresh):
		m.status, m.errMsg = "Refreshing...", ""
		return m, m.cmdRefresh()
	case key.Matches(keyMsg, keys.copy):
		return m, m.cmdCopy()
	case key.Matches(keyMsg, keys.command):
		m.commanding = true
		m.input.SetValue("")
		return m, m.input.Focus()
	}

	return m, nil
}

func (m consoleModel) answerPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	answer := readPromptAnswer(msg)
	if answer == answerNone {
		return m, nil
	}

	m.prompt <- answer
	m.prompt = nil
	m.snap = m.takeSnapshot()
	return m, m.tui.waitForPrompt()
}

func (m consoleModel) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		m.commanding = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.enter):
		line := m.input.Value()
		m.commanding = false
		m.input.Blur()

		c, err := parseCommand(line, m.now())
		if err != nil {
			m.status, m.errMsg = "", err.Error()
			return m, nil
		}
		return m, m.cmdExecute(c)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) cmdRefresh() tea.Cmd {
	ctx, scheduler := m.ctx, m.services.Scheduler
	return func() tea.Msg {
		return refreshDoneMsg{err: scheduler.Refresh(ctx)}
	}
}

func (m consoleModel) cmdExecute(c command) tea.Cmd {
	ctx, services := m.ctx, m.services
	return func() tea.Msg {
		status, err := c.execute(ctx, services)
		return commandDoneMsg{status: status, err: err}
	}
}

func (m consoleModel) cmdCopy() tea.Cmd {
	text, copyFn := summary(m.snap), m.copy
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return copiedMsg{err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return copiedMsg{}
	}
}

func (m consoleModel) takeSnapshot() snapshot {
	engine := m.services.Engine
	active := engine.ActiveProfile()

	return snapshot{
		active:     active,
		permission: engine.Permission(),
		state:      m.services.Scheduler.State(),
		syncing:    engine.IsSyncing(),
		lastErr:    engine.LastError(),
		profile:    engine.ProfileState(active),
		settings:   engine.Settings(),
		recent:     m.tui.RecentErrors(),
	}
}

func (m consoleModel) View() string {
	if m.prompt != nil {
		return appStyle.Render(promptView())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Profile sync") + "\n\n")

	s := m.snap
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	row("profile", s.active.String())
	row("permission", permissionText(s.permission))
	state := string(s.state)
	if s.syncing {
		state = m.spinner.View() + " syncing"
	}
	row("state", state)
	row("last loaded", lastLoadedText(s.profile.LastLoadedAt))
	row("loadouts", fmt.Sprint(len(s.profile.Loadouts)))
	row("tags", fmt.Sprint(len(s.profile.Tags)))
	row("searches", fmt.Sprint(len(s.profile.Searches)))
	row("settings", settingsText(s.settings))

	if s.lastErr != nil {
		b.WriteString("\n" + errorStyle.Render(humanizeSyncError(s.lastErr)) + "\n")
	}
	if len(s.recent) > 0 {
		b.WriteString("\n" + helpStyle.Render("recent errors") + "\n")
		for _, e := range s.recent {
			b.WriteString("  " + e + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}

	b.WriteString("\n")
	if m.commanding {
		b.WriteString(m.input.View() + "\n")
		b.WriteString(helpStyle.Render(commandHelp) + "\n")
	} else {
		b.WriteString(helpStyle.Render("r refresh    : command    c copy summary    q quit") + "\n")
	}

	return appStyle.Render(b.String())
}

func permissionText(p models.Permission) string {
	switch p {
	case models.PermissionGranted:
		return "sync allowed"
	case models.PermissionDenied:
		return "local only"
	default:
		return "not decided"
	}
}

func lastLoadedText(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func settingsText(settings models.Settings) string {
	if len(settings) == 0 {
		return "none"
	}

	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+string(settings[name]))
	}
	return strings.Join(parts, " ")
}

// summary is the plain-text status copied to the clipboard.
func summary(s snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "profile: %s\n", s.active)
	fmt.Fprintf(&b, "permission: %s\n", permissionText(s.permission))
	fmt.Fprintf(&b, "state: %s\n", s.state)
	fmt.Fprintf(&b, "last loaded: %s\n", lastLoadedText(s.profile.LastLoadedAt))
	fmt.Fprintf(&b, "last modified: %d\n", s.profile.LastModified)
	fmt.Fprintf(&b, "loadouts: %d, tags: %d, searches: %d\n",
		len(s.profile.Loadouts), len(s.profile.Tags), len(s.profile.Searches))
	if s.lastErr != nil {
		fmt.Fprintf(&b, "last error: %v\n", s.lastErr)
	}
	return b.String()
}
