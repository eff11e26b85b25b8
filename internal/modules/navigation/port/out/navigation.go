package out

import (
	"context"

	enforcementdto "lockin/internal/modules/enforcement/dto"
)

type Evaluator interface {
	Evaluate(ctx context.Context, input enforcementdto.EvaluateInput) enforcementdto.Result
}

// Sink receives verdicts as they are produced.
type Sink interface {
	Deliver(tabID int, url string, result enforcementdto.Result)
}
