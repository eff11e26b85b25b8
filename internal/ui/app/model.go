package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	listsdto "lockin/internal/modules/lists/dto"
	sessiondto "lockin/internal/modules/session/dto"
	"lockin/internal/ui/components"
	"lockin/internal/ui/theme"
	historyview "lockin/internal/ui/views/history"
	listsview "lockin/internal/ui/views/lists"
	sessionview "lockin/internal/ui/views/session"
)

const pollInterval = time.Second

// ─── ports ───────────────────────────────────────────────────────────────────

// DaemonPort is the slice of the message API the TUI drives.
type DaemonPort interface {
	GetSession(ctx context.Context) (*sessiondto.Session, error)
	StartSession(ctx context.Context, topic string, durationSeconds int64) (sessiondto.Session, error)
	PauseSession(ctx context.Context) (sessiondto.Session, error)
	ResumeSession(ctx context.Context) (sessiondto.Session, error)
	ResetSession(ctx context.Context) error
	Presets(ctx context.Context) ([]sessiondto.Preset, error)
	SessionHistory(ctx context.Context) ([]sessiondto.HistoryEntry, error)
	Lists(ctx context.Context) (listsdto.Lists, error)
	AddToList(ctx context.Context, list, url string) (listsdto.AddResult, error)
	RemoveFromList(ctx context.Context, list, url string) error
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabSession tabID = iota
	tabHistory
	tabLists
	tabCount
)

var tabLabels = [tabCount]string{"Session", "History", "Lists"}

// ─── async messages ───────────────────────────────────────────────────────────

type tickMsg time.Time

type sessionLoadedMsg struct {
	session *sessiondto.Session
	at      time.Time
	err     error
}

type presetsLoadedMsg struct {
	presets []sessiondto.Preset
	err     error
}

// actionDoneMsg reports a palette or key action. reload names the views whose
// data the action changed.
type actionDoneMsg struct {
	status string
	err    error
	reload []tabID
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Pause   key.Binding
	Resume  key.Binding
	Reset   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Resume:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		Reset:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Resume, k.Reset},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It polls the session once a second so
// the countdown and stage changes made by other clients stay current.
type Model struct {
	daemon DaemonPort
	now    func() time.Time

	sessionView sessionview.Model
	historyView historyview.Model
	listsView   listsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	lastStage string
	status    string
	width     int
	height    int
}

func NewModel(daemon DaemonPort) Model {
	return Model{
		daemon:      daemon,
		now:         time.Now,
		sessionView: sessionview.New(),
		historyView: historyview.New(daemon),
		listsView:   listsview.New(daemon),
		activeTab:   tabSession,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSessionCmd(),
		m.loadPresetsCmd(),
		m.historyView.Init(),
		m.listsView.Init(),
		tick(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, isKey := msg.(tea.KeyMsg); isKey {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadSessionCmd(), tick())

	case sessionLoadedMsg:
		if msg.err != nil {
			m.status = "daemon: " + msg.err.Error()
			return m, nil
		}
		m.sessionView.SetSession(msg.session, msg.at)
		stage := "NONE"
		if msg.session != nil {
			stage = msg.session.Stage
		}
		if stage != m.lastStage && stage == "COMPLETED" {
			m.status = "session complete"
			cmds = append(cmds, m.historyView.Reload())
		}
		m.lastStage = stage
		return m, tea.Batch(cmds...)

	case presetsLoadedMsg:
		if msg.err == nil {
			m.sessionView.SetPresets(msg.presets)
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		cmds = append(cmds, m.loadSessionCmd())
		for _, tab := range msg.reload {
			switch tab {
			case tabHistory:
				cmds = append(cmds, m.historyView.Reload())
			case tabLists:
				cmds = append(cmds, m.listsView.Reload())
			}
		}
		return m, tea.Batch(cmds...)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case listsview.LoadedMsg:
		m.listsView, _ = m.listsView.Update(msg)
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the history filter while it is open.
		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "p":
			return m, m.pauseCmd()
		case "r":
			return m, m.resumeCmd()
		case "x":
			return m, m.resetCmd()
		}
	}

	// Everything else goes to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabSession:
		m.sessionView, tabCmd = m.sessionView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	case tabLists:
		m.listsView, tabCmd = m.listsView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(1, m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabSession:
		return m.sessionView.View()
	case tabHistory:
		return m.historyView.View()
	case tabLists:
		return m.listsView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "lockin  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if s := m.sessionView.Session(); s != nil && s.Stage != "NONE" {
		clock := sessionview.FormatClock(sessionview.Remaining(*s, m.now()))
		left = theme.Stage(s.Stage).Render("● "+clock) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	cmd, err := components.ParseCommand(input)
	if errors.Is(err, components.ErrEmptyCommand) {
		return m, nil
	}
	if err != nil {
		m.status = err.Error()
		return m, nil
	}

	switch cmd.Verb {
	case "start":
		m.activeTab = tabSession
		return m, m.startCmd(cmd.Topic, cmd.Seconds)
	case "pause":
		return m, m.pauseCmd()
	case "resume":
		return m, m.resumeCmd()
	case "reset":
		return m, m.resetCmd()
	default:
		m.activeTab = tabLists
		return m, m.listCmd(cmd.Verb, cmd.URL)
	}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.sessionView, _ = m.sessionView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.listsView, _ = m.listsView.Update(sz)
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadSessionCmd() tea.Cmd {
	return func() tea.Msg {
		session, err := m.daemon.GetSession(context.Background())
		return sessionLoadedMsg{session: session, at: m.now(), err: err}
	}
}

func (m Model) loadPresetsCmd() tea.Cmd {
	return func() tea.Msg {
		presets, err := m.daemon.Presets(context.Background())
		return presetsLoadedMsg{presets: presets, err: err}
	}
}

func (m Model) startCmd(topic string, seconds int64) tea.Cmd {
	return func() tea.Msg {
		s, err := m.daemon.StartSession(context.Background(), topic, seconds)
		return actionDoneMsg{status: "focus: " + s.Topic, err: err}
	}
}

func (m Model) pauseCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.daemon.PauseSession(context.Background())
		return actionDoneMsg{status: "paused", err: err}
	}
}

func (m Model) resumeCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.daemon.ResumeSession(context.Background())
		return actionDoneMsg{status: "resumed", err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.daemon.ResetSession(context.Background())
		return actionDoneMsg{status: "session cleared", err: err, reload: []tabID{tabHistory}}
	}
}

func (m Model) listCmd(verb, url string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		reload := []tabID{tabLists}
		switch verb {
		case "allow", "block":
			res, err := m.daemon.AddToList(ctx, verb, url)
			if err != nil {
				return actionDoneMsg{err: err}
			}
			status := "added " + res.Entry
			if res.Warning != "" {
				status += " (" + res.Warning + ")"
			}
			return actionDoneMsg{status: status, reload: reload}
		default:
			list := strings.TrimPrefix(verb, "un")
			err := m.daemon.RemoveFromList(ctx, list, url)
			return actionDoneMsg{status: "removed " + url, err: err, reload: reload}
		}
	}
}
