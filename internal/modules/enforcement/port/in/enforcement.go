package in

import (
	"context"

	"lockin/internal/modules/enforcement/dto"
)

type Usecase interface {
	// Evaluate never fails: internal errors degrade to ALLOW.
	Evaluate(ctx context.Context, input dto.EvaluateInput) dto.Result
	// Fetch downloads a page and extracts its scoring content.
	Fetch(ctx context.Context, url string) (dto.PageContent, error)
	SetThresholds(thresholds dto.Thresholds) error
	Thresholds() dto.Thresholds
}
