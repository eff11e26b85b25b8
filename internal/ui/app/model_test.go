package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	listsdto "lockin/internal/modules/lists/dto"
	sessiondto "lockin/internal/modules/session/dto"
	"lockin/internal/ui/components"
)

type fakeDaemon struct {
	mu      sync.Mutex
	calls   []string
	session *sessiondto.Session
	err     error
}

func (f *fakeDaemon) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDaemon) GetSession(context.Context) (*sessiondto.Session, error) {
	f.record("get")
	return f.session, f.err
}

func (f *fakeDaemon) StartSession(_ context.Context, topic string, seconds int64) (sessiondto.Session, error) {
	f.record("start " + topic)
	return sessiondto.Session{Stage: "ACTIVE", Topic: topic, DurationSeconds: seconds}, f.err
}

func (f *fakeDaemon) PauseSession(context.Context) (sessiondto.Session, error) {
	f.record("pause")
	return sessiondto.Session{Stage: "PAUSED"}, f.err
}

func (f *fakeDaemon) ResumeSession(context.Context) (sessiondto.Session, error) {
	f.record("resume")
	return sessiondto.Session{Stage: "ACTIVE"}, f.err
}

func (f *fakeDaemon) ResetSession(context.Context) error {
	f.record("reset")
	return f.err
}

func (f *fakeDaemon) Presets(context.Context) ([]sessiondto.Preset, error) {
	return []sessiondto.Preset{{Label: "25 min", Seconds: 1500}}, nil
}

func (f *fakeDaemon) SessionHistory(context.Context) ([]sessiondto.HistoryEntry, error) {
	f.record("history")
	return nil, nil
}

func (f *fakeDaemon) Lists(context.Context) (listsdto.Lists, error) {
	return listsdto.Lists{AllowList: []string{}, BlockList: []string{}}, nil
}

func (f *fakeDaemon) AddToList(_ context.Context, list, url string) (listsdto.AddResult, error) {
	f.record("add " + list + " " + url)
	return listsdto.AddResult{Entry: url, Warning: "This site is already in your Allow List."}, f.err
}

func (f *fakeDaemon) RemoveFromList(_ context.Context, list, url string) error {
	f.record("remove " + list + " " + url)
	return f.err
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return cmd()
}

func TestPaletteStartSendsTopicAndSeconds(t *testing.T) {
	t.Parallel()
	d := &fakeDaemon{}
	m := NewModel(d)

	next, cmd := m.Update(components.PaletteSubmitMsg{Input: "start 25 distributed systems"})
	msg := run(t, cmd)
	done, ok := msg.(actionDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("unexpected message %#v", msg)
	}
	if d.calls[0] != "start distributed systems" {
		t.Fatalf("unexpected calls %v", d.calls)
	}
	if next.(Model).activeTab != tabSession {
		t.Fatalf("start should focus the session tab")
	}
}

func TestPaletteRejectsBadMinutes(t *testing.T) {
	t.Parallel()
	d := &fakeDaemon{}
	next, cmd := NewModel(d).Update(components.PaletteSubmitMsg{Input: "start soon rust"})
	if cmd != nil {
		t.Fatalf("no command expected for invalid input")
	}
	if got := next.(Model).status; !strings.Contains(got, "invalid minutes") {
		t.Fatalf("unexpected status %q", got)
	}
	if len(d.calls) != 0 {
		t.Fatalf("nothing should reach the daemon, got %v", d.calls)
	}
}

func TestKeysDriveSessionTransitions(t *testing.T) {
	t.Parallel()
	d := &fakeDaemon{}
	m := NewModel(d)
	for _, k := range []string{"p", "r", "x"} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		run(t, cmd)
	}
	want := []string{"pause", "resume", "reset"}
	if strings.Join(d.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", d.calls, want)
	}
}

func TestListPaletteReportsWarning(t *testing.T) {
	t.Parallel()
	d := &fakeDaemon{}
	m := NewModel(d)
	_, cmd := m.Update(components.PaletteSubmitMsg{Input: "block https://news.example"})
	done := run(t, cmd).(actionDoneMsg)
	if !strings.Contains(done.status, "already in your Allow List") {
		t.Fatalf("warning not surfaced: %q", done.status)
	}
	if len(done.reload) != 1 || done.reload[0] != tabLists {
		t.Fatalf("lists should reload, got %v", done.reload)
	}

	_, cmd = m.Update(components.PaletteSubmitMsg{Input: "unblock https://news.example"})
	run(t, cmd)
	if d.calls[1] != "remove block https://news.example" {
		t.Fatalf("unexpected calls %v", d.calls)
	}
}

func TestActionErrorBecomesStatus(t *testing.T) {
	t.Parallel()
	m := NewModel(&fakeDaemon{})
	next, _ := m.Update(actionDoneMsg{err: errors.New("invalid transition: cannot pause a PAUSED session")})
	if got := next.(Model).status; got != "invalid transition: cannot pause a PAUSED session" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestCompletionReloadsHistory(t *testing.T) {
	t.Parallel()
	d := &fakeDaemon{}
	m := NewModel(d)
	next, cmd := m.Update(sessionLoadedMsg{session: &sessiondto.Session{Stage: "COMPLETED", Topic: "go"}})
	if got := next.(Model).status; got != "session complete" {
		t.Fatalf("unexpected status %q", got)
	}
	run(t, cmd)
	if len(d.calls) != 1 || d.calls[0] != "history" {
		t.Fatalf("expected a history reload, got %v", d.calls)
	}

	// A second snapshot in the same stage does not reload again.
	_, cmd = next.Update(sessionLoadedMsg{session: &sessiondto.Session{Stage: "COMPLETED", Topic: "go"}})
	if cmd != nil {
		if msg := cmd(); msg != nil {
			t.Fatalf("unexpected follow-up %#v", msg)
		}
	}
}
