package domain

import (
	"fmt"

	"lockin/internal/platform/config"
	apperrors "lockin/internal/platform/errors"
)

type Verdict string

const (
	VerdictAllow Verdict = "ALLOW"
	VerdictWarn  Verdict = "WARN"
	VerdictBlock Verdict = "BLOCK"
)

type Reason string

const (
	ReasonManual   Reason = "manual"
	ReasonSemantic Reason = "semantic"
)

type Thresholds struct {
	Low  float64
	High float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: config.DefaultLowThreshold, High: config.DefaultHighThreshold}
}

func (t Thresholds) Validate() error {
	if t.Low < -1 || t.High > 1 {
		return fmt.Errorf("%w: thresholds must lie in [-1, 1]", apperrors.ErrInvalidInput)
	}
	if t.Low > t.High {
		return fmt.Errorf("%w: low threshold %.2f exceeds high threshold %.2f", apperrors.ErrInvalidInput, t.Low, t.High)
	}
	return nil
}

// Judge maps a similarity score to a verdict. Both bounds are exclusive.
func (t Thresholds) Judge(similarity float64) Verdict {
	switch {
	case similarity < t.Low:
		return VerdictBlock
	case similarity < t.High:
		return VerdictWarn
	default:
		return VerdictAllow
	}
}

// Decision is the pipeline outcome. ALLOW decisions carry no detail.
type Decision struct {
	Verdict    Verdict
	Reason     Reason
	Topic      string
	Similarity *float64
	Category   string
}

func Allow() Decision {
	return Decision{Verdict: VerdictAllow}
}

func ManualBlock(topic string) Decision {
	return Decision{Verdict: VerdictBlock, Reason: ReasonManual, Topic: topic}
}

func Semantic(verdict Verdict, topic string, similarity float64, category string) Decision {
	if verdict == VerdictAllow {
		return Allow()
	}
	return Decision{Verdict: verdict, Reason: ReasonSemantic, Topic: topic, Similarity: &similarity, Category: category}
}

// Distraction reports whether the decision counts against the session.
func (d Decision) Distraction() bool {
	return d.Reason == ReasonSemantic && d.Verdict != VerdictAllow
}
