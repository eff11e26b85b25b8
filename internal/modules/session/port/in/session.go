package in

import (
	"context"

	"lockin/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.Session, error)
	Pause(ctx context.Context) (dto.Session, error)
	Resume(ctx context.Context) (dto.Session, error)
	Reset(ctx context.Context) error
	// Get returns persisted truth, completing an overdue session first.
	Get(ctx context.Context) (dto.Session, error)
	History(ctx context.Context) ([]dto.HistoryEntry, error)
	HandleWake(ctx context.Context, name string) error
	Recover(ctx context.Context) error
	Presets() []dto.Preset
	Close() error
}
