package in

import (
	"context"
	"errors"
	"fmt"

	"lockin/internal/modules/daemon/dto"
	daemonin "lockin/internal/modules/daemon/port/in"
	enforcementdto "lockin/internal/modules/enforcement/dto"
	listsdto "lockin/internal/modules/lists/dto"
	navigationdto "lockin/internal/modules/navigation/dto"
	sessiondto "lockin/internal/modules/session/dto"
)

// CLIHandler gives the command line and TUI typed access to the message API.
// Every call goes through Send so a running daemon stays the single writer.
type CLIHandler struct {
	usecase daemonin.Usecase
}

func NewCLIHandler(usecase daemonin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) RunDaemon(ctx context.Context) error {
	return h.usecase.RunDaemon(ctx)
}

func (h CLIHandler) StartDaemon(ctx context.Context) error {
	return h.usecase.StartDaemon(ctx)
}

func (h CLIHandler) StopDaemon(ctx context.Context) error {
	return h.usecase.StopDaemon(ctx)
}

func (h CLIHandler) DaemonStatus(ctx context.Context) (dto.RuntimeStatus, error) {
	return h.usecase.DaemonStatus(ctx)
}

func (h CLIHandler) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return h.usecase.DaemonLogs(ctx, tail)
}

// Send passes a raw envelope through, for callers that speak the wire format.
func (h CLIHandler) Send(ctx context.Context, msg dto.Message) (dto.Response, error) {
	return h.usecase.Send(ctx, msg)
}

func (h CLIHandler) StartSession(ctx context.Context, topic string, durationSeconds int64) (sessiondto.Session, error) {
	resp, err := h.call(ctx, "START_SESSION", map[string]any{"topic": topic, "durationSeconds": durationSeconds})
	if err != nil {
		return sessiondto.Session{}, err
	}
	return sessionField(resp)
}

func (h CLIHandler) PauseSession(ctx context.Context) (sessiondto.Session, error) {
	resp, err := h.call(ctx, "PAUSE_SESSION", nil)
	if err != nil {
		return sessiondto.Session{}, err
	}
	return sessionField(resp)
}

func (h CLIHandler) ResumeSession(ctx context.Context) (sessiondto.Session, error) {
	resp, err := h.call(ctx, "RESUME_SESSION", nil)
	if err != nil {
		return sessiondto.Session{}, err
	}
	return sessionField(resp)
}

func (h CLIHandler) ResetSession(ctx context.Context) error {
	_, err := h.call(ctx, "RESET_SESSION", nil)
	return err
}

// GetSession returns nil when no session exists.
func (h CLIHandler) GetSession(ctx context.Context) (*sessiondto.Session, error) {
	resp, err := h.call(ctx, "GET_SESSION", nil)
	if err != nil {
		return nil, err
	}
	var session *sessiondto.Session
	if _, err := resp.Field("session", &session); err != nil {
		return nil, err
	}
	return session, nil
}

func (h CLIHandler) SessionHistory(ctx context.Context) ([]sessiondto.HistoryEntry, error) {
	resp, err := h.call(ctx, "GET_SESSION_HISTORY", nil)
	if err != nil {
		return nil, err
	}
	var history []sessiondto.HistoryEntry
	if _, err := resp.Field("history", &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (h CLIHandler) Presets(ctx context.Context) ([]sessiondto.Preset, error) {
	resp, err := h.call(ctx, "GET_PRESETS", nil)
	if err != nil {
		return nil, err
	}
	var presets []sessiondto.Preset
	if _, err := resp.Field("presets", &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

func (h CLIHandler) AddToList(ctx context.Context, list, url string) (listsdto.AddResult, error) {
	kind, err := listKind("ADD_TO_", list)
	if err != nil {
		return listsdto.AddResult{}, err
	}
	resp, err := h.call(ctx, kind, map[string]any{"url": url})
	if err != nil {
		return listsdto.AddResult{}, err
	}
	out := listsdto.AddResult{Warning: resp.Warning}
	if _, err := resp.Field("entry", &out.Entry); err != nil {
		return listsdto.AddResult{}, err
	}
	return out, nil
}

func (h CLIHandler) RemoveFromList(ctx context.Context, list, url string) error {
	kind, err := listKind("REMOVE_FROM_", list)
	if err != nil {
		return err
	}
	_, err = h.call(ctx, kind, map[string]any{"url": url})
	return err
}

func (h CLIHandler) Lists(ctx context.Context) (listsdto.Lists, error) {
	resp, err := h.call(ctx, "GET_LISTS", nil)
	if err != nil {
		return listsdto.Lists{}, err
	}
	var out listsdto.Lists
	if _, err := resp.Field("allowList", &out.AllowList); err != nil {
		return listsdto.Lists{}, err
	}
	if _, err := resp.Field("blockList", &out.BlockList); err != nil {
		return listsdto.Lists{}, err
	}
	return out, nil
}

func (h CLIHandler) CheckList(ctx context.Context, list, url string) (bool, error) {
	kind, field := "CHECK_BLOCKED", "isBlocked"
	switch list {
	case "allow":
		kind, field = "CHECK_ALLOWED", "isAllowed"
	case "block":
	default:
		return false, fmt.Errorf("unknown list %q (use allow or block)", list)
	}
	resp, err := h.call(ctx, kind, map[string]any{"url": url})
	if err != nil {
		return false, err
	}
	var found bool
	if _, err := resp.Field(field, &found); err != nil {
		return false, err
	}
	return found, nil
}

func (h CLIHandler) EvaluatePage(ctx context.Context, url string, content enforcementdto.PageContent) (enforcementdto.Result, error) {
	resp, err := h.call(ctx, "EVALUATE_PAGE", map[string]any{"url": url, "content": content})
	if err != nil {
		return enforcementdto.Result{}, err
	}
	return resultFromResponse(resp)
}

func (h CLIHandler) Navigate(ctx context.Context, event navigationdto.NavigationEvent) error {
	_, err := h.call(ctx, "NAVIGATE", event)
	return err
}

func (h CLIHandler) LastVerdict(ctx context.Context, tabID int) (enforcementdto.Result, error) {
	resp, err := h.call(ctx, "LAST_VERDICT", map[string]any{"tabId": tabID})
	if err != nil {
		return enforcementdto.Result{}, err
	}
	return resultFromResponse(resp)
}

func (h CLIHandler) call(ctx context.Context, kind string, payload any) (dto.Response, error) {
	msg, err := dto.NewMessage(kind, payload)
	if err != nil {
		return dto.Response{}, err
	}
	resp, err := h.usecase.Send(ctx, msg)
	if err != nil {
		return dto.Response{}, err
	}
	if !resp.OK {
		return dto.Response{}, errors.New(resp.Error)
	}
	return resp, nil
}

func sessionField(resp dto.Response) (sessiondto.Session, error) {
	var session sessiondto.Session
	if _, err := resp.Field("session", &session); err != nil {
		return sessiondto.Session{}, err
	}
	return session, nil
}

func resultFromResponse(resp dto.Response) (enforcementdto.Result, error) {
	var out enforcementdto.Result
	for key, dst := range map[string]any{
		"verdict":  &out.Verdict,
		"reason":   &out.Reason,
		"topic":    &out.Topic,
		"category": &out.Category,
	} {
		if _, err := resp.Field(key, dst); err != nil {
			return enforcementdto.Result{}, err
		}
	}
	var similarity float64
	ok, err := resp.Field("similarity", &similarity)
	if err != nil {
		return enforcementdto.Result{}, err
	}
	if ok {
		out.Similarity = &similarity
	}
	return out, nil
}

func listKind(prefix, list string) (string, error) {
	switch list {
	case "allow":
		return prefix + "ALLOWLIST", nil
	case "block":
		return prefix + "BLOCKLIST", nil
	}
	return "", fmt.Errorf("unknown list %q (use allow or block)", list)
}
