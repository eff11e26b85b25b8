package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sessionadapter "lockin/internal/modules/session/adapter/out"
	"lockin/internal/modules/session/domain"
	"lockin/internal/platform/kv"
)

func openKV(t *testing.T) *kv.Store {
	t.Helper()
	store, err := kv.Open(filepath.Join(t.TempDir(), "lockin.db"))
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKVSessionStoreRoundTripAndClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionadapter.NewKVSessionStore(openKV(t))

	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("empty load = %v %v", found, err)
	}
	s, _ := domain.Start("s-1", "go", 60, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	paused, _ := s.Pause(time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC))
	if err := store.Save(ctx, paused); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load = %v %v", found, err)
	}
	if got.Stage != domain.StagePaused || *got.RemainingSeconds != 30 || got.EndTime != nil {
		t.Fatalf("loaded %+v", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := store.Load(ctx); found {
		t.Fatalf("session still present after clear")
	}
}

func TestKVSessionStoreRejectsBrokenSession(t *testing.T) {
	t.Parallel()
	store := sessionadapter.NewKVSessionStore(openKV(t))
	if err := store.Save(context.Background(), domain.Session{Stage: domain.StageActive, Topic: "go"}); err == nil {
		t.Fatalf("expected invariant error")
	}
}

func TestKVHistoryStoreIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionadapter.NewKVHistoryStore(openKV(t))

	entry := domain.HistoryEntry{SessionID: "s-1", Topic: "go", Date: "2026-03-02"}
	for i, want := range []bool{true, false} {
		appended, err := store.Append(ctx, entry)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if appended != want {
			t.Fatalf("append %d = %v, want %v", i, appended, want)
		}
	}
	_, _ = store.Append(ctx, domain.HistoryEntry{SessionID: "s-2", Topic: "rust"})
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].SessionID != "s-1" || entries[1].SessionID != "s-2" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestMarkdownJournalWritesNote(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	journal := sessionadapter.NewMarkdownJournal(dir)
	completed := time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)
	path, err := journal.Record(context.Background(), domain.HistoryEntry{
		SessionID:       "s-1",
		Topic:           "Machine Learning Basics",
		Date:            "2026-03-02",
		StartedAt:       completed.Add(-25 * time.Minute).UnixMilli(),
		CompletedAt:     completed.UnixMilli(),
		DurationSeconds: 1500,
		Analytics: domain.Analytics{
			CategoryCounts:    map[string]int{"social_media": 2, "learning": 5},
			TopSites:          []domain.SiteTime{{Host: "arxiv.org", Seconds: 600}},
			TotalDistractions: 2,
		},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if want := filepath.Join(dir, "2026", "03", "02", "101500-machine-learning-basics.md"); path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	note := string(raw)
	for _, want := range []string{"topic: Machine Learning Basics", "duration_minutes: 25", "- learning: 5", "- arxiv.org: 10m0s"} {
		if !strings.Contains(note, want) {
			t.Fatalf("note missing %q:\n%s", want, note)
		}
	}

	again, err := journal.Record(context.Background(), domain.HistoryEntry{
		SessionID:   "s-1",
		Topic:       "renamed",
		CompletedAt: completed.Add(time.Second).UnixMilli(),
	})
	if err != nil || again != path {
		t.Fatalf("second record = %s, %v; want %s", again, err, path)
	}
	notes, _ := filepath.Glob(filepath.Join(dir, "2026", "03", "02", "*.md"))
	if len(notes) != 1 {
		t.Fatalf("expected one note, got %v", notes)
	}
}

func TestCommandNotifierRunsCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "notified")
	script := filepath.Join(dir, "notify.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$1|$2\" > "+out+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	n := sessionadapter.NewCommandNotifier(script, nil)
	if err := n.Notify(context.Background(), "Session Complete", "done"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("command did not run: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "Session Complete|done" {
		t.Fatalf("notify args = %q", raw)
	}
	if err := sessionadapter.NewCommandNotifier("", nil).Notify(context.Background(), "a", "b"); err != nil {
		t.Fatalf("log-only notify: %v", err)
	}
}
