package history

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "lockin/internal/modules/session/dto"
	"lockin/internal/ui/theme"
	sessionview "lockin/internal/ui/views/session"
)

// ─── port ────────────────────────────────────────────────────────────────────

type HistoryPort interface {
	SessionHistory(ctx context.Context) ([]sessiondto.HistoryEntry, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Entries []sessiondto.HistoryEntry
	Err     error
}

// ─── list item ───────────────────────────────────────────────────────────────

type entryItem struct {
	entry sessiondto.HistoryEntry
}

func (i entryItem) Title() string { return i.entry.Topic }
func (i entryItem) Description() string {
	return fmt.Sprintf("%s  %s  %d distractions",
		i.entry.Date, sessionview.FormatClock(i.entry.DurationSeconds), i.entry.Analytics.TotalDistractions)
}
func (i entryItem) FilterValue() string { return i.entry.Topic }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    HistoryPort
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		detail:  vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches history again, e.g. after a session completes.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		entries, err := m.port.SessionHistory(context.Background())
		return LoadedMsg{Entries: entries, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "History: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "History"
		items := make([]list.Item, 0, len(msg.Entries))
		// Newest first.
		for i := len(msg.Entries) - 1; i >= 0; i-- {
			items = append(items, entryItem{entry: msg.Entries[i]})
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.detail.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.detail.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading history…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return theme.Muted.Render("No completed sessions yet")
	}
	return RenderEntry(item.entry)
}

// RenderEntry formats one completed session with its analytics.
func RenderEntry(e sessiondto.HistoryEntry) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(e.Topic) + "\n\n")
	sb.WriteString(theme.Muted.Render("date:         ") + e.Date + "\n")
	sb.WriteString(theme.Muted.Render("duration:     ") + sessionview.FormatClock(e.DurationSeconds) + "\n")
	sb.WriteString(theme.Muted.Render("distractions: ") + fmt.Sprint(e.Analytics.TotalDistractions) + "\n")

	if len(e.Analytics.TopSites) > 0 {
		sb.WriteString("\n" + theme.Hot.Render("Top sites") + "\n")
		for _, site := range e.Analytics.TopSites {
			sb.WriteString(fmt.Sprintf("  %-32s %s\n", site.Host, sessionview.FormatClock(site.Seconds)))
		}
	}
	if len(e.Analytics.CategoryCounts) > 0 {
		sb.WriteString("\n" + theme.Hot.Render("Categories") + "\n")
		for _, name := range sortedKeys(e.Analytics.CategoryCounts) {
			sb.WriteString(fmt.Sprintf("  %-32s %d\n", name, e.Analytics.CategoryCounts[name]))
		}
	}
	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
