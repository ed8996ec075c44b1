package worker

import (
	"context"

	search "github.com/getpup/polestar-search"
)

// Runner scans one slice of the combination space and reports to out.
// This interface allows for mock implementations in tests.
type Runner interface {
	Run(ctx context.Context, out chan<- search.Message) error
}

// Evaluator decides whether the combination at the given ascending positions
// is accepted. A nil error means accepted.
type Evaluator interface {
	Evaluate(positions []int) (search.Result, error)
}
