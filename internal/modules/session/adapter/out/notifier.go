package out

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	sessionout "lockin/internal/modules/session/port/out"
)

// CommandNotifier runs a desktop notification command such as notify-send with
// the title and message appended as arguments. Without a command it only logs.
type CommandNotifier struct {
	argv   []string
	logger *zap.Logger
}

func NewCommandNotifier(command string, logger *zap.Logger) sessionout.Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandNotifier{argv: strings.Fields(command), logger: logger.Named("notify")}
}

func (n *CommandNotifier) Notify(ctx context.Context, title, message string) error {
	n.logger.Info(title, zap.String("message", message))
	if len(n.argv) == 0 {
		return nil
	}
	args := append(append([]string(nil), n.argv[1:]...), title, message)
	cmd := exec.CommandContext(ctx, n.argv[0], args...)
	// Children that inherit stdout must not hold CombinedOutput open past cancellation.
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s: %w (%s)", n.argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
