package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	sessiondto "lockin/internal/modules/session/dto"
	"lockin/internal/ui/theme"
)

// ─── model ───────────────────────────────────────────────────────────────────

// Model renders the singleton session as a countdown. It holds no port; the
// app model polls the daemon and pushes each snapshot in with SetSession.
type Model struct {
	session *sessiondto.Session
	presets []sessiondto.Preset
	now     time.Time
	bar     progress.Model
	width   int
	height  int
}

func New() Model {
	return Model{
		bar: progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage()),
	}
}

// SetSession replaces the displayed snapshot. A nil session means none exists.
func (m *Model) SetSession(s *sessiondto.Session, now time.Time) {
	m.session = s
	m.now = now
}

func (m *Model) SetPresets(presets []sessiondto.Preset) {
	m.presets = presets
}

func (m Model) Session() *sessiondto.Session {
	return m.session
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(m.width-8, 60))
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	if m.session == nil || m.session.Stage == "NONE" {
		sb.WriteString(theme.Title.Render("No focus session") + "\n\n")
		sb.WriteString(theme.Muted.Render("Start one from the palette:  :start <minutes> <topic>") + "\n")
		if len(m.presets) > 0 {
			sb.WriteString("\n" + theme.Muted.Render("presets") + "\n")
			for _, p := range m.presets {
				sb.WriteString(fmt.Sprintf("  %-10s %s\n", p.Label, FormatClock(p.Seconds)))
			}
		}
		return m.frame(sb.String())
	}

	s := *m.session
	remaining := Remaining(s, m.now)
	topic := runewidth.Truncate(s.Topic, max(10, m.width-16), "…")

	sb.WriteString(theme.Title.Render(topic) + "\n\n")
	sb.WriteString(theme.Stage(s.Stage).Render(s.Stage) + "   ")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(FormatClock(remaining)))
	sb.WriteString(theme.Muted.Render(" / "+FormatClock(s.DurationSeconds)) + "\n\n")
	sb.WriteString(m.bar.ViewAs(Elapsed(s, remaining)) + "\n\n")

	switch s.Stage {
	case "ACTIVE":
		sb.WriteString(theme.Muted.Render("p: pause  x: reset"))
	case "PAUSED":
		sb.WriteString(theme.Muted.Render("r: resume  x: reset"))
	case "COMPLETED":
		sb.WriteString(theme.Muted.Render("session complete  x: clear"))
	}
	return m.frame(sb.String())
}

func (m Model) frame(body string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Pane.Render(body))
}

// Remaining returns whole seconds left, floored and never negative.
func Remaining(s sessiondto.Session, now time.Time) int64 {
	switch s.Stage {
	case "ACTIVE":
		if s.EndTime == nil {
			return 0
		}
		left := *s.EndTime - now.UnixMilli()
		if left <= 0 {
			return 0
		}
		return left / 1000
	case "PAUSED":
		if s.RemainingSeconds != nil {
			return *s.RemainingSeconds
		}
	}
	return 0
}

// Elapsed is the completed fraction of the session in [0, 1].
func Elapsed(s sessiondto.Session, remaining int64) float64 {
	if s.Stage == "COMPLETED" {
		return 1
	}
	if s.DurationSeconds <= 0 {
		return 0
	}
	f := 1 - float64(remaining)/float64(s.DurationSeconds)
	return max(0, min(1, f))
}

// FormatClock renders seconds as m:ss, or h:mm:ss from an hour up.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
