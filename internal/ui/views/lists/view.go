package lists

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	listsdto "lockin/internal/modules/lists/dto"
	"lockin/internal/ui/theme"
)

type ListsPort interface {
	Lists(ctx context.Context) (listsdto.Lists, error)
}

type LoadedMsg struct {
	Lists listsdto.Lists
	Err   error
}

// Model shows the allow and block lists side by side. Edits go through the
// palette; the app model calls Reload afterwards.
type Model struct {
	port   ListsPort
	lists  listsdto.Lists
	err    error
	width  int
	height int
}

func New(port ListsPort) Model {
	return Model{port: port}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		lists, err := m.port.Lists(context.Background())
		return LoadedMsg{Lists: lists, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.lists = msg.Lists
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.err != nil {
		return theme.Hot.Render("lists: " + m.err.Error())
	}
	colW := max(20, m.width/2-2)
	allow := column("Allow List", m.lists.AllowList, theme.Green, colW, m.height)
	block := column("Block List", m.lists.BlockList, theme.Red, colW, m.height)
	return lipgloss.JoinHorizontal(lipgloss.Top, allow, block)
}

func column(title string, entries []string, accent lipgloss.Color, width, height int) string {
	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(accent).Bold(true).Render(title) + "\n\n")
	if len(entries) == 0 {
		sb.WriteString(theme.Muted.Render("empty"))
	}
	for _, e := range entries {
		sb.WriteString("  " + e + "\n")
	}
	return theme.Pane.
		BorderForeground(accent).
		Width(width - 2).
		Height(max(1, height-4)).
		Render(sb.String())
}
