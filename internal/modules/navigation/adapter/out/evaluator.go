package out

import (
	"context"

	"go.uber.org/zap"

	enforcementdto "lockin/internal/modules/enforcement/dto"
	enforcementin "lockin/internal/modules/enforcement/port/in"
	navigationout "lockin/internal/modules/navigation/port/out"
)

type EnforcementEvaluator struct {
	enforcement enforcementin.Usecase
}

var _ navigationout.Evaluator = EnforcementEvaluator{}

func NewEnforcementEvaluator(enforcement enforcementin.Usecase) EnforcementEvaluator {
	return EnforcementEvaluator{enforcement: enforcement}
}

func (e EnforcementEvaluator) Evaluate(ctx context.Context, input enforcementdto.EvaluateInput) enforcementdto.Result {
	return e.enforcement.Evaluate(ctx, input)
}

// LogSink reports non-ALLOW verdicts in the daemon log.
type LogSink struct {
	logger *zap.Logger
}

var _ navigationout.Sink = LogSink{}

func NewLogSink(logger *zap.Logger) LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return LogSink{logger: logger.Named("verdicts")}
}

func (s LogSink) Deliver(tabID int, url string, result enforcementdto.Result) {
	if result.Verdict == "ALLOW" {
		return
	}
	fields := []zap.Field{
		zap.Int("tab", tabID),
		zap.String("url", url),
		zap.String("verdict", result.Verdict),
		zap.String("reason", result.Reason),
	}
	if result.Similarity != nil {
		fields = append(fields, zap.Float64("similarity", *result.Similarity))
	}
	s.logger.Info("page flagged", fields...)
}
