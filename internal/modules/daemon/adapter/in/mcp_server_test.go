package in

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"lockin/internal/modules/daemon/dto"
	daemonin "lockin/internal/modules/daemon/port/in"
)

type recordingDaemon struct {
	daemonin.Usecase
	sent []dto.Message
	resp dto.Response
	err  error
}

func (d *recordingDaemon) Send(_ context.Context, msg dto.Message) (dto.Response, error) {
	d.sent = append(d.sent, msg)
	return d.resp, d.err
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func findTool(t *testing.T, tools *MCPTools, name string) MCPTool {
	t.Helper()
	for _, tool := range tools.Tools() {
		if tool.Definition.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not registered", name)
	return MCPTool{}
}

func TestSessionStartToolSendsMessage(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: dto.OK(map[string]any{"session": map[string]any{"stage": "ACTIVE"}})}
	tool := findTool(t, NewMCPTools(d), "session_start")

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"topic": "go generics", "minutes": float64(25)}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	if len(d.sent) != 1 || d.sent[0].Type != "START_SESSION" {
		t.Fatalf("sent = %+v", d.sent)
	}
	var payload struct {
		Topic           string `json:"topic"`
		DurationSeconds int64  `json:"durationSeconds"`
	}
	if err := json.Unmarshal(d.sent[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Topic != "go generics" || payload.DurationSeconds != 1500 {
		t.Fatalf("payload = %+v", payload)
	}
	if !strings.Contains(resultText(res), `"ACTIVE"`) {
		t.Fatalf("result text = %s", resultText(res))
	}
}

func TestToolsReportFailures(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: dto.Response{Error: "invalid session transition"}}
	tools := NewMCPTools(d)

	res, _ := findTool(t, tools, "session_pause").Handle(context.Background(), makeReq(nil))
	if !res.IsError || resultText(res) != "invalid session transition" {
		t.Fatalf("pause result = %+v", res)
	}

	res, _ = findTool(t, tools, "session_start").Handle(context.Background(), makeReq(map[string]any{"topic": "go"}))
	if !res.IsError || len(d.sent) != 1 {
		t.Fatalf("missing minutes should fail before sending")
	}

	res, _ = findTool(t, tools, "list_add").Handle(context.Background(), makeReq(map[string]any{"list": "grey", "url": "https://a.test"}))
	if !res.IsError {
		t.Fatalf("unknown list should fail")
	}

	d.err = errors.New("socket gone")
	res, _ = findTool(t, tools, "lists_get").Handle(context.Background(), makeReq(nil))
	if !res.IsError || !strings.Contains(resultText(res), "socket gone") {
		t.Fatalf("transport error result = %s", resultText(res))
	}
}

func TestListToolsPickMessageKind(t *testing.T) {
	t.Parallel()
	d := &recordingDaemon{resp: dto.OK(nil)}
	tools := NewMCPTools(d)
	ctx := context.Background()

	_, _ = findTool(t, tools, "list_add").Handle(ctx, makeReq(map[string]any{"list": "block", "url": "https://youtube.com"}))
	_, _ = findTool(t, tools, "list_remove").Handle(ctx, makeReq(map[string]any{"list": "allow", "url": "https://go.dev"}))

	if len(d.sent) != 2 || d.sent[0].Type != "ADD_TO_BLOCKLIST" || d.sent[1].Type != "REMOVE_FROM_ALLOWLIST" {
		t.Fatalf("sent = %+v", d.sent)
	}
}

func TestNewMCPServerRegistersTools(t *testing.T) {
	t.Parallel()
	if s := NewMCPServer(&recordingDaemon{}, "test"); s == nil {
		t.Fatalf("expected server")
	}
	if n := len(NewMCPTools(&recordingDaemon{}).Tools()); n != 10 {
		t.Fatalf("tool count = %d", n)
	}
}
