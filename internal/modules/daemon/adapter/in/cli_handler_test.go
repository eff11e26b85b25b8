package in

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lockin/internal/modules/daemon/dto"
	enforcementdto "lockin/internal/modules/enforcement/dto"
	listsdto "lockin/internal/modules/lists/dto"
)

// wireResponse round-trips resp through JSON the way the IPC client sees it.
func wireResponse(t *testing.T, resp dto.Response) dto.Response {
	t.Helper()
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out dto.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestCLIGetSessionNullMeansNoSession(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: wireResponse(t, dto.OK(map[string]any{"session": nil}))}
	session, err := NewCLIHandler(d).GetSession(context.Background())
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session != nil {
		t.Fatalf("expected no session, got %+v", session)
	}
	if d.sent[0].Type != "GET_SESSION" {
		t.Fatalf("unexpected message type %s", d.sent[0].Type)
	}
}

func TestCLIStartSessionDecodesSession(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: wireResponse(t, dto.OK(map[string]any{
		"session": map[string]any{"id": "s1", "stage": "ACTIVE", "topic": "go", "durationSeconds": 1500},
	}))}
	session, err := NewCLIHandler(d).StartSession(context.Background(), "go", 1500)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID != "s1" || session.Stage != "ACTIVE" || session.DurationSeconds != 1500 {
		t.Fatalf("unexpected session %+v", session)
	}
	var payload map[string]any
	if err := json.Unmarshal(d.sent[0].Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["topic"] != "go" || payload["durationSeconds"] != float64(1500) {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestCLIFailureBecomesError(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: dto.Response{OK: false, Error: "invalid input: topic is required"}}
	_, err := NewCLIHandler(d).StartSession(context.Background(), "", 60)
	if err == nil || err.Error() != "invalid input: topic is required" {
		t.Fatalf("expected daemon error, got %v", err)
	}
}

func TestCLIAddToListCarriesWarning(t *testing.T) {
	t.Parallel()
	resp := dto.OK(map[string]any{"entry": "https://news.example"})
	resp.Warning = "This site is already in your Allow List."
	d := &recordingDaemon{resp: wireResponse(t, resp)}

	got, err := NewCLIHandler(d).AddToList(context.Background(), "block", "https://news.example/")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	want := listsdto.AddResult{Entry: "https://news.example", Warning: "This site is already in your Allow List."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("add result mismatch (-want +got):\n%s", diff)
	}
	if d.sent[0].Type != "ADD_TO_BLOCKLIST" {
		t.Fatalf("unexpected message type %s", d.sent[0].Type)
	}
}

func TestCLIRejectsUnknownList(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{}
	h := NewCLIHandler(d)
	if _, err := h.AddToList(context.Background(), "grey", "https://a.example"); err == nil {
		t.Fatalf("expected error for unknown list")
	}
	if _, err := h.CheckList(context.Background(), "grey", "https://a.example"); err == nil {
		t.Fatalf("expected error for unknown list")
	}
	if len(d.sent) != 0 {
		t.Fatalf("nothing should be sent, got %d messages", len(d.sent))
	}
}

func TestCLICheckListReadsFlag(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: wireResponse(t, dto.OK(map[string]any{"isAllowed": true}))}
	found, err := NewCLIHandler(d).CheckList(context.Background(), "allow", "https://docs.example/a")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !found || d.sent[0].Type != "CHECK_ALLOWED" {
		t.Fatalf("found=%v type=%s", found, d.sent[0].Type)
	}
}

func TestCLIEvaluateDecodesOptionalFields(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: wireResponse(t, dto.OK(map[string]any{
		"verdict":    "WARN",
		"reason":     "semantic",
		"topic":      "go",
		"similarity": 0.22,
		"category":   "news",
	}))}
	got, err := NewCLIHandler(d).EvaluatePage(context.Background(), "https://news.example", enforcementdto.PageContent{Title: "News"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	sim := 0.22
	want := enforcementdto.Result{Verdict: "WARN", Reason: "semantic", Topic: "go", Similarity: &sim, Category: "news"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	d.resp = wireResponse(t, dto.OK(map[string]any{"verdict": "ALLOW"}))
	got, err = NewCLIHandler(d).EvaluatePage(context.Background(), "https://docs.example", enforcementdto.PageContent{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if diff := cmp.Diff(enforcementdto.Result{Verdict: "ALLOW"}, got); diff != "" {
		t.Fatalf("allow mismatch (-want +got):\n%s", diff)
	}
}
