package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "lockin/internal/platform/errors"
)

// TimerName is the scheduler registration that completes an active session.
const TimerName = "focus-timer"

const MaxDurationSeconds = int64(24 * time.Hour / time.Second)

type Stage string

const (
	StageNone      Stage = "NONE"
	StageActive    Stage = "ACTIVE"
	StagePaused    Stage = "PAUSED"
	StageCompleted Stage = "COMPLETED"
)

// Session is the persisted singleton. Timestamps are epoch milliseconds.
// EndTime is set only while ACTIVE and RemainingSeconds only while PAUSED.
type Session struct {
	ID               string `json:"id"`
	Stage            Stage  `json:"stage"`
	Topic            string `json:"topic"`
	StartedAt        int64  `json:"startedAt"`
	DurationSeconds  int64  `json:"durationSeconds"`
	EndTime          *int64 `json:"endTime,omitempty"`
	RemainingSeconds *int64 `json:"remainingSeconds,omitempty"`
	CompletedAt      *int64 `json:"completedAt,omitempty"`
}

func None() Session {
	return Session{Stage: StageNone}
}

func Start(id, topic string, durationSeconds int64, now time.Time) (Session, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Session{}, fmt.Errorf("%w: topic is required", apperrors.ErrInvalidInput)
	}
	if durationSeconds <= 0 || durationSeconds > MaxDurationSeconds {
		return Session{}, fmt.Errorf("%w: duration must be between 1 and %d seconds", apperrors.ErrInvalidInput, MaxDurationSeconds)
	}
	nowMs := now.UnixMilli()
	end := nowMs + durationSeconds*1000
	return Session{
		ID:              id,
		Stage:           StageActive,
		Topic:           topic,
		StartedAt:       nowMs,
		DurationSeconds: durationSeconds,
		EndTime:         &end,
	}, nil
}

func (s Session) InProgress() bool {
	return s.Stage == StageActive || s.Stage == StagePaused
}

// Overdue reports whether an active session has reached its deadline.
func (s Session) Overdue(now time.Time) bool {
	return s.Stage == StageActive && s.EndTime != nil && *s.EndTime <= now.UnixMilli()
}

func (s Session) Deadline() (time.Time, bool) {
	if s.Stage != StageActive || s.EndTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*s.EndTime).UTC(), true
}

func (s Session) Pause(now time.Time) (Session, error) {
	if s.Stage != StageActive || s.EndTime == nil {
		return s, fmt.Errorf("%w: cannot pause a %s session", apperrors.ErrInvalidTransition, s.Stage)
	}
	remaining := (*s.EndTime - now.UnixMilli()) / 1000
	if remaining < 0 {
		remaining = 0
	}
	next := s
	next.Stage = StagePaused
	next.EndTime = nil
	next.RemainingSeconds = &remaining
	return next, nil
}

func (s Session) Resume(now time.Time) (Session, error) {
	if s.Stage != StagePaused || s.RemainingSeconds == nil {
		return s, fmt.Errorf("%w: cannot resume a %s session", apperrors.ErrInvalidTransition, s.Stage)
	}
	end := now.UnixMilli() + *s.RemainingSeconds*1000
	next := s
	next.Stage = StageActive
	next.EndTime = &end
	next.RemainingSeconds = nil
	return next, nil
}

func (s Session) Complete(now time.Time) (Session, error) {
	if s.Stage != StageActive {
		return s, fmt.Errorf("%w: cannot complete a %s session", apperrors.ErrInvalidTransition, s.Stage)
	}
	at := now.UnixMilli()
	next := s
	next.Stage = StageCompleted
	next.EndTime = nil
	next.RemainingSeconds = nil
	next.CompletedAt = &at
	return next, nil
}

// Validate checks the timing invariant of a stored session.
func (s Session) Validate() error {
	switch s.Stage {
	case StageNone:
		if s.Topic != "" || s.EndTime != nil || s.RemainingSeconds != nil {
			return fmt.Errorf("%w: NONE session carries state", apperrors.ErrInvalidInput)
		}
	case StageActive:
		if s.EndTime == nil || s.RemainingSeconds != nil {
			return fmt.Errorf("%w: ACTIVE session needs endTime only", apperrors.ErrInvalidInput)
		}
	case StagePaused:
		if s.RemainingSeconds == nil || s.EndTime != nil {
			return fmt.Errorf("%w: PAUSED session needs remainingSeconds only", apperrors.ErrInvalidInput)
		}
	case StageCompleted:
		if s.EndTime != nil || s.RemainingSeconds != nil {
			return fmt.Errorf("%w: COMPLETED session carries timing", apperrors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown stage %q", apperrors.ErrInvalidInput, s.Stage)
	}
	if s.Stage != StageNone && strings.TrimSpace(s.Topic) == "" {
		return fmt.Errorf("%w: %s session without topic", apperrors.ErrInvalidInput, s.Stage)
	}
	return nil
}
