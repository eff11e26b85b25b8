package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"lockin/internal/modules/daemon/domain"
	"lockin/internal/modules/daemon/dto"
	enforcementdto "lockin/internal/modules/enforcement/dto"
	navigationdto "lockin/internal/modules/navigation/dto"
	sessiondto "lockin/internal/modules/session/dto"
	apperrors "lockin/internal/platform/errors"
)

const stageNone = "NONE"

// Dispatch validates msg at the boundary and routes the typed request.
// Failures are reported in the response, never as panics or transport errors.
func (s *DaemonService) Dispatch(ctx context.Context, msg dto.Message) dto.Response {
	req, err := domain.Decode(msg.Type, msg.Payload)
	if err != nil {
		return dto.Failure(err)
	}
	resp, err := s.route(ctx, req)
	if err != nil {
		s.logger.Debug("request failed", zap.String("type", string(req.Kind())), zap.Error(err))
		return dto.Failure(err)
	}
	return resp
}

func (s *DaemonService) route(ctx context.Context, req domain.Request) (dto.Response, error) {
	switch r := req.(type) {
	case domain.StartSession:
		session, err := s.sessions.Start(ctx, sessiondto.StartInput{Topic: r.Topic, DurationSeconds: r.DurationSeconds})
		if err != nil {
			return dto.Response{}, err
		}
		return dto.OK(map[string]any{"session": session}), nil

	case domain.ListEdit:
		if !r.Add {
			if err := s.lists.Remove(ctx, r.List, r.URL); err != nil {
				return dto.Response{}, err
			}
			return dto.OK(nil), nil
		}
		res, err := s.lists.Add(ctx, r.List, r.URL)
		if err != nil {
			return dto.Response{}, err
		}
		resp := dto.OK(map[string]any{"entry": res.Entry})
		resp.Warning = res.Warning
		return resp, nil

	case domain.ListCheck:
		found, err := s.lists.Contains(ctx, r.List, r.URL)
		if err != nil {
			return dto.Response{}, err
		}
		field := "isBlocked"
		if r.List == "allow" {
			field = "isAllowed"
		}
		return dto.OK(map[string]any{field: found}), nil

	case domain.EvaluatePage:
		result := s.enforcement.Evaluate(ctx, enforcementdto.EvaluateInput{URL: r.URL, Content: r.Content})
		return dto.OK(resultFields(result)), nil

	case domain.Navigate:
		err := s.navigation.Observe(ctx, navigationdto.NavigationEvent{
			TabID:   r.TabID,
			URL:     r.URL,
			Kind:    r.Navigation,
			Content: r.Content,
		})
		if err != nil {
			return dto.Response{}, err
		}
		return dto.OK(nil), nil

	case domain.LastVerdict:
		result, ok := s.navigation.LastVerdict(r.TabID)
		if !ok {
			return dto.Response{}, fmt.Errorf("%w: no verdict for tab %d", apperrors.ErrNotFound, r.TabID)
		}
		return dto.OK(resultFields(result)), nil
	}
	return s.routeBare(ctx, req.Kind())
}

func (s *DaemonService) routeBare(ctx context.Context, kind domain.Kind) (dto.Response, error) {
	switch kind {
	case domain.KindPauseSession:
		session, err := s.sessions.Pause(ctx)
		if err != nil {
			return dto.Response{}, err
		}
		return dto.OK(map[string]any{"session": session}), nil

	case domain.KindResumeSession:
		session, err := s.sessions.Resume(ctx)
		if err != nil {
			return dto.Response{}, err
		}
		return dto.OK(map[string]any{"session": session}), nil

	case domain.KindResetSession:
		if err := s.sessions.Reset(ctx); err != nil {
			return dto.Response{}, err
		}
		return dto.OK(nil), nil

	case domain.KindGetSession:
		session, err := s.sessions.Get(ctx)
		if err != nil {
			return dto.Response{}, err
		}
		if session.Stage == stageNone {
			return dto.OK(map[string]any{"session": nil}), nil
		}
		return dto.OK(map[string]any{"session": session}), nil

	case domain.KindGetSessionHistory:
		history, err := s.sessions.History(ctx)
		if err != nil {
			return dto.Response{}, err
		}
		if history == nil {
			history = []sessiondto.HistoryEntry{}
		}
		return dto.OK(map[string]any{"history": history}), nil

	case domain.KindGetPresets:
		return dto.OK(map[string]any{"presets": s.sessions.Presets()}), nil

	case domain.KindGetLists:
		lists, err := s.lists.Lists(ctx)
		if err != nil {
			return dto.Response{}, err
		}
		return dto.OK(map[string]any{"allowList": lists.AllowList, "blockList": lists.BlockList}), nil

	case domain.KindStatus:
		return dto.OK(map[string]any{"status": s.status(ctx)}), nil

	case domain.KindStop:
		rt, ok := s.running()
		if !ok {
			return dto.Response{}, apperrors.ErrDaemonNotRunning
		}
		time.AfterFunc(stopGrace, rt.cancel)
		return dto.OK(nil), nil
	}
	return dto.Response{}, fmt.Errorf("%w: unsupported message type %s", apperrors.ErrInvalidInput, kind)
}

func (s *DaemonService) status(ctx context.Context) dto.Status {
	out := dto.Status{
		PID:        os.Getpid(),
		Embedder:   s.relevance.EmbedderName(),
		Stage:      stageNone,
		SocketPath: s.daemon.SocketPath(),
		HTTPAddr:   s.httpAddr,
	}
	if rt, ok := s.running(); ok {
		out.StartedAt = rt.startedAt
		out.Uptime = s.clock.Now().Sub(rt.startedAt).Truncate(time.Second).String()
	}
	if session, err := s.sessions.Get(ctx); err == nil {
		out.Stage = session.Stage
	}
	return out
}

func resultFields(r enforcementdto.Result) map[string]any {
	fields := map[string]any{"verdict": r.Verdict}
	if r.Reason != "" {
		fields["reason"] = r.Reason
	}
	if r.Topic != "" {
		fields["topic"] = r.Topic
	}
	if r.Similarity != nil {
		fields["similarity"] = *r.Similarity
	}
	if r.Category != "" {
		fields["category"] = r.Category
	}
	return fields
}
