package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	daemonadapter "lockin/internal/modules/daemon/adapter/out"
	"lockin/internal/modules/daemon/dto"
	"lockin/internal/modules/daemon/service"
	enforcementdto "lockin/internal/modules/enforcement/dto"
	enforcementin "lockin/internal/modules/enforcement/port/in"
	listsdto "lockin/internal/modules/lists/dto"
	listsin "lockin/internal/modules/lists/port/in"
	navigationdto "lockin/internal/modules/navigation/dto"
	navigationin "lockin/internal/modules/navigation/port/in"
	relevancein "lockin/internal/modules/relevance/port/in"
	sessiondto "lockin/internal/modules/session/dto"
	sessionin "lockin/internal/modules/session/port/in"
	apperrors "lockin/internal/platform/errors"
)

type fakeSessions struct {
	sessionin.Usecase
	mu        sync.Mutex
	session   sessiondto.Session
	recovered int
}

func (f *fakeSessions) Start(_ context.Context, in sessiondto.StartInput) (sessiondto.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Stage == "ACTIVE" {
		return sessiondto.Session{}, apperrors.ErrSessionInProgress
	}
	end := int64(1_000_000) + in.DurationSeconds*1000
	f.session = sessiondto.Session{ID: "s1", Stage: "ACTIVE", Topic: in.Topic, DurationSeconds: in.DurationSeconds, EndTime: &end}
	return f.session, nil
}

func (f *fakeSessions) Get(context.Context) (sessiondto.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Stage == "" {
		return sessiondto.Session{Stage: "NONE"}, nil
	}
	return f.session, nil
}

func (f *fakeSessions) Reset(context.Context) error {
	f.mu.Lock()
	f.session = sessiondto.Session{}
	f.mu.Unlock()
	return nil
}

func (f *fakeSessions) Pause(context.Context) (sessiondto.Session, error) {
	return sessiondto.Session{}, apperrors.ErrInvalidTransition
}

func (f *fakeSessions) History(context.Context) ([]sessiondto.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeSessions) Recover(context.Context) error {
	f.mu.Lock()
	f.recovered++
	f.mu.Unlock()
	return nil
}

type fakeLists struct {
	listsin.Usecase
}

func (fakeLists) Add(_ context.Context, kind, url string) (listsdto.AddResult, error) {
	if kind == "allow" {
		return listsdto.AddResult{Entry: url, Warning: "This site is already in your Block List."}, nil
	}
	return listsdto.AddResult{Entry: url}, nil
}

func (fakeLists) Contains(_ context.Context, kind, _ string) (bool, error) {
	return kind == "block", nil
}

func (fakeLists) Lists(context.Context) (listsdto.Lists, error) {
	return listsdto.Lists{AllowList: []string{}, BlockList: []string{"https://youtube.com"}}, nil
}

type fakeEnforcement struct {
	enforcementin.Usecase
}

func (fakeEnforcement) Evaluate(_ context.Context, in enforcementdto.EvaluateInput) enforcementdto.Result {
	if in.URL == "https://go.dev" {
		return enforcementdto.Result{Verdict: "ALLOW"}
	}
	sim := 0.05
	return enforcementdto.Result{Verdict: "BLOCK", Reason: "semantic", Topic: "go", Similarity: &sim, Category: "entertainment"}
}

type fakeNavigation struct {
	navigationin.Usecase
	mu     sync.Mutex
	events []navigationdto.NavigationEvent
}

func (f *fakeNavigation) Observe(_ context.Context, ev navigationdto.NavigationEvent) error {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	return nil
}

func (f *fakeNavigation) LastVerdict(tabID int) (enforcementdto.Result, bool) {
	if tabID == 1 {
		return enforcementdto.Result{Verdict: "WARN", Topic: "go"}, true
	}
	return enforcementdto.Result{}, false
}

type fakeRelevance struct {
	relevancein.Usecase
}

func (fakeRelevance) EmbedderName() string { return "hash:384" }

type fixture struct {
	svc      *service.DaemonService
	sessions *fakeSessions
	nav      *fakeNavigation
	dataDir  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dataDir := t.TempDir()
	sessions := &fakeSessions{}
	nav := &fakeNavigation{}
	svc := service.NewDaemonService(service.Deps{
		Sessions:    sessions,
		Lists:       fakeLists{},
		Enforcement: fakeEnforcement{},
		Navigation:  nav,
		Relevance:   fakeRelevance{},
		Store:       daemonadapter.NewFileDaemonStore(dataDir, ""),
		IPCServer:   daemonadapter.NewJSONRPCServer(nil),
		IPCClient:   daemonadapter.NewJSONRPCClient(),
	})
	return fixture{svc: svc, sessions: sessions, nav: nav, dataDir: dataDir}
}

func dispatch(t *testing.T, svc *service.DaemonService, kind string, payload any) map[string]any {
	t.Helper()
	msg, err := dto.NewMessage(kind, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(svc.Dispatch(context.Background(), msg))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestDispatchSessionLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	got := dispatch(t, f.svc, "GET_SESSION", nil)
	require.Equal(t, map[string]any{"ok": true, "session": nil}, got)

	got = dispatch(t, f.svc, "START_SESSION", map[string]any{"topic": "go", "durationSeconds": 60})
	require.Equal(t, true, got["ok"])

	got = dispatch(t, f.svc, "GET_SESSION", nil)
	session := got["session"].(map[string]any)
	require.Equal(t, "ACTIVE", session["stage"])
	require.Equal(t, "go", session["topic"])

	got = dispatch(t, f.svc, "START_SESSION", map[string]any{"topic": "rust", "durationSeconds": 60})
	require.Equal(t, false, got["ok"])
	require.Contains(t, got["error"], "in progress")

	got = dispatch(t, f.svc, "PAUSE_SESSION", nil)
	require.Equal(t, false, got["ok"])

	got = dispatch(t, f.svc, "RESET_SESSION", nil)
	require.Equal(t, map[string]any{"ok": true}, got)

	got = dispatch(t, f.svc, "GET_SESSION_HISTORY", nil)
	require.Equal(t, []any{}, got["history"])
}

func TestDispatchRejectsMalformedMessages(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	got := dispatch(t, f.svc, "START_SESSION", map[string]any{"topic": "", "durationSeconds": 60})
	require.Equal(t, false, got["ok"])
	require.Contains(t, got["error"], "topic is required")

	got = dispatch(t, f.svc, "SELF_DESTRUCT", nil)
	require.Equal(t, false, got["ok"])
	require.Contains(t, got["error"], "unknown message type")
}

func TestDispatchLists(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	got := dispatch(t, f.svc, "ADD_TO_ALLOWLIST", map[string]any{"url": "https://news.test"})
	require.Equal(t, true, got["ok"])
	require.Equal(t, "This site is already in your Block List.", got["warning"])

	got = dispatch(t, f.svc, "ADD_TO_BLOCKLIST", map[string]any{"url": "https://news.test"})
	_, hasWarning := got["warning"]
	require.False(t, hasWarning)

	require.Equal(t, false, dispatch(t, f.svc, "CHECK_ALLOWED", map[string]any{"url": "https://x.test"})["isAllowed"])
	require.Equal(t, true, dispatch(t, f.svc, "CHECK_BLOCKED", map[string]any{"url": "https://x.test"})["isBlocked"])

	got = dispatch(t, f.svc, "GET_LISTS", nil)
	require.Equal(t, []any{}, got["allowList"])
	require.Equal(t, []any{"https://youtube.com"}, got["blockList"])
}

func TestDispatchVerdicts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	got := dispatch(t, f.svc, "EVALUATE_PAGE", map[string]any{"url": "https://go.dev", "content": map[string]any{"title": "Go"}})
	require.Equal(t, map[string]any{"ok": true, "verdict": "ALLOW"}, got)

	got = dispatch(t, f.svc, "EVALUATE_PAGE", map[string]any{"url": "https://cats.test", "content": map[string]any{"title": "Cats"}})
	require.Equal(t, "BLOCK", got["verdict"])
	require.Equal(t, "semantic", got["reason"])
	require.Equal(t, "go", got["topic"])
	require.InDelta(t, 0.05, got["similarity"], 1e-9)
	require.Equal(t, "entertainment", got["category"])

	got = dispatch(t, f.svc, "NAVIGATE", map[string]any{"tabId": 3, "url": "https://a.test", "kind": "history"})
	require.Equal(t, true, got["ok"])
	require.Len(t, f.nav.events, 1)
	require.Equal(t, "history", f.nav.events[0].Kind)

	got = dispatch(t, f.svc, "LAST_VERDICT", map[string]any{"tabId": 1})
	require.Equal(t, "WARN", got["verdict"])
	got = dispatch(t, f.svc, "LAST_VERDICT", map[string]any{"tabId": 9})
	require.Equal(t, false, got["ok"])
}

func TestSendFallsBackToLocalDispatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Send(ctx, dto.Message{Type: "GET_LISTS"})
	require.NoError(t, err)
	require.True(t, resp.OK)

	_, err = f.svc.Send(ctx, dto.Message{Type: "STATUS"})
	require.True(t, errors.Is(err, apperrors.ErrDaemonNotRunning))

	got := dispatch(t, f.svc, "STOP", nil)
	require.Equal(t, false, got["ok"])
}

func TestRunDaemonServesAndStops(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	runErr := make(chan error, 1)
	go func() { runErr <- f.svc.RunDaemon(ctx) }()

	socket := filepath.Join(f.dataDir, "daemon.sock")
	require.Eventually(t, func() bool {
		status, err := f.svc.DaemonStatus(ctx)
		return err == nil && status.Running && status.Status != nil
	}, 5*time.Second, 50*time.Millisecond)

	status, err := f.svc.DaemonStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, socket, status.SocketPath)
	require.Equal(t, "hash:384", status.Status.Embedder)
	require.Equal(t, "NONE", status.Status.Stage)

	f.sessions.mu.Lock()
	require.Equal(t, 1, f.sessions.recovered)
	f.sessions.mu.Unlock()

	client := daemonadapter.NewJSONRPCClient()
	resp, err := client.Dispatch(ctx, socket, dto.Message{Type: "STOP"})
	require.NoError(t, err)
	require.True(t, resp.OK)

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("daemon did not stop")
	}
	after, err := f.svc.DaemonStatus(ctx)
	require.NoError(t, err)
	require.False(t, after.Running)
	require.NoFileExists(t, socket)
	require.NoFileExists(t, filepath.Join(f.dataDir, "daemon.pid"))
}
