package out

import (
	"context"

	"lockin/internal/modules/lists/domain"
)

type ListStore interface {
	Load(ctx context.Context, kind domain.Kind) (domain.List, error)
	// Mutate applies fn to the stored list atomically; an error from fn aborts the write.
	Mutate(ctx context.Context, kind domain.Kind, fn func(domain.List) (domain.List, error)) error
}
