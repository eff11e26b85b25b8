package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	enforcementdto "lockin/internal/modules/enforcement/dto"
	apperrors "lockin/internal/platform/errors"
)

type Kind string

const (
	KindStartSession        Kind = "START_SESSION"
	KindPauseSession        Kind = "PAUSE_SESSION"
	KindResumeSession       Kind = "RESUME_SESSION"
	KindResetSession        Kind = "RESET_SESSION"
	KindGetSession          Kind = "GET_SESSION"
	KindGetSessionHistory   Kind = "GET_SESSION_HISTORY"
	KindGetPresets          Kind = "GET_PRESETS"
	KindAddToAllowList      Kind = "ADD_TO_ALLOWLIST"
	KindAddToBlockList      Kind = "ADD_TO_BLOCKLIST"
	KindRemoveFromAllowList Kind = "REMOVE_FROM_ALLOWLIST"
	KindRemoveFromBlockList Kind = "REMOVE_FROM_BLOCKLIST"
	KindGetLists            Kind = "GET_LISTS"
	KindCheckAllowed        Kind = "CHECK_ALLOWED"
	KindCheckBlocked        Kind = "CHECK_BLOCKED"
	KindEvaluatePage        Kind = "EVALUATE_PAGE"
	KindNavigate            Kind = "NAVIGATE"
	KindLastVerdict         Kind = "LAST_VERDICT"
	KindStatus              Kind = "STATUS"
	KindStop                Kind = "STOP"
)

// Request is a validated message. Each kind decodes into exactly one type.
type Request interface {
	Kind() Kind
}

// Bare is a request without payload.
type Bare struct {
	kind Kind
}

func (b Bare) Kind() Kind { return b.kind }

type StartSession struct {
	Topic           string `json:"topic"`
	DurationSeconds int64  `json:"durationSeconds"`
}

func (StartSession) Kind() Kind { return KindStartSession }

// ListEdit adds or removes a URL on one list.
type ListEdit struct {
	kind Kind
	List string
	Add  bool
	URL  string
}

func (e ListEdit) Kind() Kind { return e.kind }

// ListCheck asks whether a URL is covered by one list.
type ListCheck struct {
	kind Kind
	List string
	URL  string
}

func (c ListCheck) Kind() Kind { return c.kind }

type EvaluatePage struct {
	URL     string                     `json:"url"`
	Content enforcementdto.PageContent `json:"content"`
}

func (EvaluatePage) Kind() Kind { return KindEvaluatePage }

type Navigate struct {
	TabID      int                        `json:"tabId"`
	URL        string                     `json:"url"`
	Navigation string                     `json:"kind"`
	Content    enforcementdto.PageContent `json:"content"`
}

func (Navigate) Kind() Kind { return KindNavigate }

type LastVerdict struct {
	TabID int `json:"tabId"`
}

func (LastVerdict) Kind() Kind { return KindLastVerdict }

type urlPayload struct {
	URL string `json:"url"`
}

// Decode validates an envelope into a typed request.
func Decode(msgType string, payload json.RawMessage) (Request, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(msgType)))
	switch kind {
	case KindPauseSession, KindResumeSession, KindResetSession, KindGetSession,
		KindGetSessionHistory, KindGetPresets, KindGetLists, KindStatus, KindStop:
		return Bare{kind: kind}, nil

	case KindStartSession:
		var req StartSession
		if err := decodePayload(kind, payload, &req); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.Topic) == "" {
			return nil, fmt.Errorf("%w: topic is required", apperrors.ErrInvalidInput)
		}
		if req.DurationSeconds <= 0 {
			return nil, fmt.Errorf("%w: durationSeconds must be positive", apperrors.ErrInvalidInput)
		}
		return req, nil

	case KindAddToAllowList, KindAddToBlockList, KindRemoveFromAllowList, KindRemoveFromBlockList:
		url, err := decodeURL(kind, payload)
		if err != nil {
			return nil, err
		}
		return ListEdit{
			kind: kind,
			List: listFor(kind),
			Add:  kind == KindAddToAllowList || kind == KindAddToBlockList,
			URL:  url,
		}, nil

	case KindCheckAllowed, KindCheckBlocked:
		url, err := decodeURL(kind, payload)
		if err != nil {
			return nil, err
		}
		return ListCheck{kind: kind, List: listFor(kind), URL: url}, nil

	case KindEvaluatePage:
		var req EvaluatePage
		if err := decodePayload(kind, payload, &req); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.URL) == "" {
			return nil, fmt.Errorf("%w: url is required", apperrors.ErrInvalidInput)
		}
		return req, nil

	case KindNavigate:
		var req Navigate
		if err := decodePayload(kind, payload, &req); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.URL) == "" {
			return nil, fmt.Errorf("%w: url is required", apperrors.ErrInvalidInput)
		}
		return req, nil

	case KindLastVerdict:
		var req LastVerdict
		if err := decodePayload(kind, payload, &req); err != nil {
			return nil, err
		}
		return req, nil
	}
	return nil, fmt.Errorf("%w: unknown message type %q", apperrors.ErrInvalidInput, msgType)
}

func listFor(kind Kind) string {
	switch kind {
	case KindAddToAllowList, KindRemoveFromAllowList, KindCheckAllowed:
		return "allow"
	}
	return "block"
}

func decodeURL(kind Kind, payload json.RawMessage) (string, error) {
	var p urlPayload
	if err := decodePayload(kind, payload, &p); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.URL) == "" {
		return "", fmt.Errorf("%w: url is required", apperrors.ErrInvalidInput)
	}
	return p.URL, nil
}

func decodePayload(kind Kind, payload json.RawMessage, out any) error {
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return fmt.Errorf("%w: %s requires a payload", apperrors.ErrInvalidInput, kind)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: malformed %s payload: %v", apperrors.ErrInvalidInput, kind, err)
	}
	return nil
}
