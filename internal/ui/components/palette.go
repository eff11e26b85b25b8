package components

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lockin/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

type argKind int

const (
	argNone argKind = iota
	argURL
	argTimedTopic
)

type commandDef struct {
	verb  string
	args  argKind
	usage string
}

var commands = []commandDef{
	{verb: "start", args: argTimedTopic, usage: "start <minutes> <topic>"},
	{verb: "pause", args: argNone, usage: "pause"},
	{verb: "resume", args: argNone, usage: "resume"},
	{verb: "reset", args: argNone, usage: "reset"},
	{verb: "allow", args: argURL, usage: "allow <url>"},
	{verb: "block", args: argURL, usage: "block <url>"},
	{verb: "unallow", args: argURL, usage: "unallow <url>"},
	{verb: "unblock", args: argURL, usage: "unblock <url>"},
}

// Command is a parsed palette line.
type Command struct {
	Verb    string
	Seconds int64
	Topic   string
	URL     string
}

var ErrEmptyCommand = errors.New("empty command")

// ParseCommand validates input against the command table. Minutes may be
// fractional; "start 0.5 go" asks for a 30 second session.
func ParseCommand(input string) (Command, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return Command{}, ErrEmptyCommand
	}
	verb := strings.ToLower(parts[0])
	def, ok := lookup(verb)
	if !ok {
		return Command{}, fmt.Errorf("unknown command: %s", parts[0])
	}
	args := parts[1:]
	cmd := Command{Verb: verb}

	switch def.args {
	case argNone:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("usage: %s", def.usage)
		}
	case argURL:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: %s", def.usage)
		}
		cmd.URL = args[0]
	case argTimedTopic:
		if len(args) < 2 {
			return Command{}, fmt.Errorf("usage: %s", def.usage)
		}
		minutes, err := strconv.ParseFloat(args[0], 64)
		if err != nil || minutes <= 0 {
			return Command{}, fmt.Errorf("invalid minutes: %s", args[0])
		}
		cmd.Seconds = int64(minutes * 60)
		cmd.Topic = strings.Join(args[1:], " ")
	}
	return cmd, nil
}

func lookup(verb string) (commandDef, bool) {
	for _, c := range commands {
		if c.verb == verb {
			return c, true
		}
	}
	return commandDef{}, false
}

// Palette is a command-palette overlay backed by bubbles/textinput.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
}

// NewPalette creates an inactive Palette ready to be opened.
func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "start 25 distributed systems"
	ti.CharLimit = 256
	return Palette{input: ti}
}

// Visible reports whether the palette is currently shown.
func (p Palette) Visible() bool { return p.visible }

// Open shows the palette, clears the input, and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

// SetWidth sets the render width for the overlay.
func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			if completed, ok := Complete(p.input.Value()); ok {
				p.input.SetValue(completed)
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	matching := Suggest(p.input.Value(), len(commands))

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if len(matching) > 0 {
		sb.WriteString("\n")
		for _, h := range matching {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

// Suggest returns up to limit usage lines whose verb starts with the first
// word of input. An empty input matches every command.
func Suggest(input string, limit int) []string {
	word := firstWord(input)
	var out []string
	for _, c := range commands {
		if word == "" || strings.HasPrefix(c.verb, word) {
			out = append(out, c.usage)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Complete expands a partial verb when exactly one command matches. Input
// that already has arguments is left alone.
func Complete(input string) (string, bool) {
	if strings.Contains(strings.TrimLeft(input, " "), " ") {
		return input, false
	}
	word := firstWord(input)
	if word == "" {
		return input, false
	}
	match := ""
	for _, c := range commands {
		if strings.HasPrefix(c.verb, word) {
			if match != "" {
				return input, false
			}
			match = c.verb
		}
	}
	if match == "" {
		return input, false
	}
	if def, _ := lookup(match); def.args != argNone {
		return match + " ", true
	}
	return match, true
}

func firstWord(input string) string {
	if fields := strings.Fields(strings.ToLower(input)); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
