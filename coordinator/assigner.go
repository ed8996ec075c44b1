package coordinator

import (
	"math/big"

	"github.com/google/uuid"

	search "github.com/getpup/polestar-search"
)

// SingleWorkerThreshold is the largest candidate count that is scanned by a
// single worker regardless of the requested worker count.
const SingleWorkerThreshold = 100

// WorkerCount returns the number of workers a run may use: the requested
// count bounded by the available parallelism. A requested count of zero or
// less means all available parallelism; available parallelism of zero or
// less is treated as one.
func WorkerCount(requested, available int) int {
	if available <= 0 {
		available = 1
	}
	if requested <= 0 || requested > available {
		return available
	}
	return requested
}

// Span is a contiguous range of ranks [Start, Start+Length).
type Span struct {
	Start  *big.Int
	Length *big.Int
}

// PlanSlices partitions [0, total) into contiguous spans, one per worker.
// Every worker gets total/workers ranks and the last one also takes the
// remainder. Totals up to SingleWorkerThreshold use a single worker, and
// no span is ever empty.
func PlanSlices(total *big.Int, workers int) []Span {
	if total == nil || total.Sign() <= 0 {
		return nil
	}
	if workers < 1 || total.Cmp(big.NewInt(SingleWorkerThreshold)) <= 0 {
		workers = 1
	}
	if total.Cmp(big.NewInt(int64(workers))) < 0 {
		workers = int(total.Int64())
	}

	w := big.NewInt(int64(workers))
	perWorker := new(big.Int).Quo(total, w)
	leftover := new(big.Int).Sub(total, new(big.Int).Mul(perWorker, w))

	spans := make([]Span, workers)
	start := new(big.Int)
	for i := range spans {
		length := new(big.Int).Set(perWorker)
		if i == workers-1 {
			length.Add(length, leftover)
		}
		spans[i] = Span{Start: new(big.Int).Set(start), Length: length}
		start.Add(start, length)
	}
	return spans
}

// Assigner turns planned spans into slices owned by uniquely identified workers.
type Assigner struct {
	newID func() string
}

// NewAssigner creates a new Assigner that identifies workers by random UUID.
func NewAssigner() *Assigner {
	return &Assigner{newID: uuid.NewString}
}

// Assign plans the slices of a run. Slices are returned in rank order.
func (a *Assigner) Assign(runID search.RunID, total *big.Int, workers int) []search.Slice {
	spans := PlanSlices(total, workers)
	slices := make([]search.Slice, len(spans))
	for i, span := range spans {
		slices[i] = search.Slice{
			RunID:    runID,
			WorkerID: a.newID(),
			Start:    span.Start,
			Length:   span.Length,
		}
	}
	return slices
}
