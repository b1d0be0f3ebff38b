package app

import (
	"context"
	"fmt"

	"goimpute/domain/matrix"
	"goimpute/internal/errors"
	"goimpute/ports"

	"gonum.org/v1/gonum/mat"
)

// CompletionInvoker calls completion algorithms on a shared incomplete
// matrix and checks what they hand back.
type CompletionInvoker struct{}

// NewCompletionInvoker creates a new completion invoker
func NewCompletionInvoker() *CompletionInvoker {
	return &CompletionInvoker{}
}

// Complete runs completer on a private copy of incomplete. Algorithm
// failures and results holding NaN or ±Inf come back as
// EXTERNAL_SERVICE_ERROR; a result whose dims differ from the input fails
// with core.ErrShapeMismatch. There are no retries.
func (i *CompletionInvoker) Complete(ctx context.Context, incomplete *mat.Dense, completer ports.Completer) (*mat.Dense, error) {
	completed, err := completer.Complete(ctx, mat.DenseCopyOf(incomplete))
	if err != nil {
		return nil, errors.ExternalServiceError(completer.Name(), err)
	}
	if completed == nil {
		return nil, errors.ExternalServiceError(completer.Name(), errors.New(errors.CodeInternalError, "no result returned"))
	}
	if err := matrix.SameDims(incomplete, completed); err != nil {
		return nil, err
	}
	if n := matrix.CountNonFinite(completed); n > 0 {
		return nil, errors.ExternalServiceError(completer.Name(),
			errors.New(errors.CodeInternalError, fmt.Sprintf("%d entries of the result are not finite", n)))
	}
	return completed, nil
}
