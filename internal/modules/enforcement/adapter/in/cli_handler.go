package in

import (
	"context"

	"lockin/internal/modules/enforcement/dto"
	enforcementin "lockin/internal/modules/enforcement/port/in"
)

type CLIHandler struct {
	usecase enforcementin.Usecase
}

func NewCLIHandler(usecase enforcementin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Fetch downloads url and extracts the fields a verdict is computed from.
func (h CLIHandler) Fetch(ctx context.Context, url string) (dto.PageContent, error) {
	return h.usecase.Fetch(ctx, url)
}

func (h CLIHandler) Thresholds() dto.Thresholds {
	return h.usecase.Thresholds()
}
