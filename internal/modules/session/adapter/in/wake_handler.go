package in

import (
	"context"

	"go.uber.org/zap"

	sessionin "lockin/internal/modules/session/port/in"
)

// WakeHandler feeds scheduler firings into the session controller.
type WakeHandler struct {
	usecase sessionin.Usecase
	logger  *zap.Logger
}

func NewWakeHandler(usecase sessionin.Usecase, logger *zap.Logger) WakeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return WakeHandler{usecase: usecase, logger: logger.Named("wake")}
}

func (h WakeHandler) Fire(ctx context.Context, name string) {
	if err := h.usecase.HandleWake(ctx, name); err != nil {
		h.logger.Warn("wake-up handling failed", zap.String("name", name), zap.Error(err))
	}
}
