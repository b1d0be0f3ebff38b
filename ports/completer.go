package ports

import (
	"context"

	"goimpute/domain/experiment"

	"gonum.org/v1/gonum/mat"
)

// Completer is the contract every completion algorithm satisfies.
// Complete receives a matrix whose missing entries are NaN and returns a
// matrix of the same shape without markers. Implementations must not
// modify m.
type Completer interface {
	Name() string
	Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error)
}

// CompleterFactory builds the completer for one grid configuration.
// Malformed configurations fail with core.ErrInvalidConfiguration.
type CompleterFactory interface {
	Build(cfg experiment.Configuration) (Completer, error)
}
