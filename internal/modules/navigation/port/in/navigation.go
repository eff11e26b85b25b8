package in

import (
	"context"
	"time"

	enforcementdto "lockin/internal/modules/enforcement/dto"
	"lockin/internal/modules/navigation/dto"
)

type Usecase interface {
	// Observe records a page view. Material changes are evaluated after the
	// debounce window; only the last one in the window counts.
	Observe(ctx context.Context, event dto.NavigationEvent) error
	LastVerdict(tabID int) (enforcementdto.Result, bool)
	Forget(tabID int)
	SetDebounce(d time.Duration)
	Close() error
}
