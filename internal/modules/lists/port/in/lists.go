package in

import (
	"context"

	"lockin/internal/modules/lists/dto"
)

type Usecase interface {
	// Add validates and appends url. A conflict with the other list is reported
	// as a warning, not an error.
	Add(ctx context.Context, kind, url string) (dto.AddResult, error)
	Remove(ctx context.Context, kind, url string) error
	Lists(ctx context.Context) (dto.Lists, error)
	Contains(ctx context.Context, kind, url string) (bool, error)
}
