package telemetry_test

import (
	"context"
	"testing"

	"lockin/internal/platform/telemetry"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	t.Parallel()
	shutdown, err := telemetry.Setup(context.Background(), "")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, span := telemetry.Tracer("test").Start(context.Background(), "noop")
	span.End()
}
