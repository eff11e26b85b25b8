package in

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	daemondto "lockin/internal/modules/daemon/dto"
	daemonin "lockin/internal/modules/daemon/port/in"
	enforcementdto "lockin/internal/modules/enforcement/dto"
)

type toolHandler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

type MCPTool struct {
	Definition mcp.Tool
	Handle     toolHandler
}

// MCPTools exposes the message API as MCP tools so assistants can start and
// inspect focus sessions.
type MCPTools struct {
	daemon daemonin.Usecase
}

func NewMCPTools(daemon daemonin.Usecase) *MCPTools {
	return &MCPTools{daemon: daemon}
}

// NewMCPServer registers every tool on a fresh server.
func NewMCPServer(daemon daemonin.Usecase, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"lockin",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Lockin runs focus sessions. Start one with a topic and duration, then evaluate pages against it."),
	)
	tools := NewMCPTools(daemon)
	for _, t := range tools.Tools() {
		s.AddTool(t.Definition, server.ToolHandlerFunc(t.Handle))
	}
	return s
}

func (t *MCPTools) Tools() []MCPTool {
	return []MCPTool{
		{Definition: mcp.NewTool("session_start",
			mcp.WithDescription("Start a focus session on a topic."),
			mcp.WithString("topic", mcp.Required(), mcp.Description("What the session is about")),
			mcp.WithNumber("minutes", mcp.Required(), mcp.Description("Session length in minutes")),
		), Handle: t.startSession},
		{Definition: mcp.NewTool("session_get",
			mcp.WithDescription("Show the current focus session, or null when none is running."),
		), Handle: t.bare("GET_SESSION")},
		{Definition: mcp.NewTool("session_pause",
			mcp.WithDescription("Pause the active focus session."),
		), Handle: t.bare("PAUSE_SESSION")},
		{Definition: mcp.NewTool("session_resume",
			mcp.WithDescription("Resume a paused focus session."),
		), Handle: t.bare("RESUME_SESSION")},
		{Definition: mcp.NewTool("session_reset",
			mcp.WithDescription("Abandon the current focus session."),
		), Handle: t.bare("RESET_SESSION")},
		{Definition: mcp.NewTool("session_history",
			mcp.WithDescription("List completed focus sessions with their analytics."),
		), Handle: t.bare("GET_SESSION_HISTORY")},
		{Definition: mcp.NewTool("lists_get",
			mcp.WithDescription("Show the allow list and block list."),
		), Handle: t.bare("GET_LISTS")},
		{Definition: mcp.NewTool("list_add",
			mcp.WithDescription("Add an http(s) URL or origin to the allow or block list."),
			mcp.WithString("list", mcp.Required(), mcp.Enum("allow", "block")),
			mcp.WithString("url", mcp.Required()),
		), Handle: t.listEdit(true)},
		{Definition: mcp.NewTool("list_remove",
			mcp.WithDescription("Remove a URL from the allow or block list."),
			mcp.WithString("list", mcp.Required(), mcp.Enum("allow", "block")),
			mcp.WithString("url", mcp.Required()),
		), Handle: t.listEdit(false)},
		{Definition: mcp.NewTool("evaluate_page",
			mcp.WithDescription("Judge whether a page fits the active focus session."),
			mcp.WithString("url", mcp.Required()),
			mcp.WithString("title"),
			mcp.WithString("description"),
			mcp.WithString("text", mcp.Description("Visible page text")),
		), Handle: t.evaluatePage},
	}
}

func (t *MCPTools) bare(kind string) toolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return t.send(ctx, kind, nil)
	}
}

func (t *MCPTools) startSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := req.GetString("topic", "")
	if topic == "" {
		return mcp.NewToolResultError("'topic' is required"), nil
	}
	minutes := req.GetFloat("minutes", 0)
	if minutes <= 0 {
		return mcp.NewToolResultError("'minutes' must be positive"), nil
	}
	return t.send(ctx, "START_SESSION", map[string]any{
		"topic":           topic,
		"durationSeconds": int64(minutes * 60),
	})
}

func (t *MCPTools) listEdit(add bool) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var kind string
		switch list := req.GetString("list", ""); {
		case list == "allow" && add:
			kind = "ADD_TO_ALLOWLIST"
		case list == "block" && add:
			kind = "ADD_TO_BLOCKLIST"
		case list == "allow":
			kind = "REMOVE_FROM_ALLOWLIST"
		case list == "block":
			kind = "REMOVE_FROM_BLOCKLIST"
		default:
			return mcp.NewToolResultError("'list' must be allow or block"), nil
		}
		return t.send(ctx, kind, map[string]any{"url": req.GetString("url", "")})
	}
}

func (t *MCPTools) evaluatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.send(ctx, "EVALUATE_PAGE", map[string]any{
		"url": req.GetString("url", ""),
		"content": enforcementdto.PageContent{
			Title:       req.GetString("title", ""),
			Description: req.GetString("description", ""),
			Text:        req.GetString("text", ""),
		},
	})
}

func (t *MCPTools) send(ctx context.Context, kind string, payload any) (*mcp.CallToolResult, error) {
	msg, err := daemondto.NewMessage(kind, payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := t.daemon.Send(ctx, msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lockin request failed: %v", err)), nil
	}
	if !resp.OK {
		return mcp.NewToolResultError(resp.Error), nil
	}
	raw, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
