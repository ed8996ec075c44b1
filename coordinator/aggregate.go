package coordinator

import (
	"math/big"

	search "github.com/getpup/polestar-search"
)

// Aggregate is the progress state of one run across its workers.
//
// An Aggregate is a value: Reduce returns a new Aggregate and never modifies
// its input, so earlier snapshots stay valid.
type Aggregate struct {
	// Total is the number of candidates the run examines.
	Total *big.Int

	// Expected is the number of workers the run was dispatched with.
	Expected int

	workers   map[string]search.Counters
	completed map[string]struct{}
	sum       search.Counters
}

// NewAggregate returns an empty Aggregate for a run of total candidates
// spread over expected workers.
func NewAggregate(total *big.Int, expected int) Aggregate {
	return Aggregate{
		Total:     new(big.Int).Set(total),
		Expected:  expected,
		workers:   map[string]search.Counters{},
		completed: map[string]struct{}{},
		sum:       search.NewCounters(),
	}
}

// Reduce folds a worker message into the aggregate.
//
// Worker counters are cumulative, so each worker contributes the
// field-wise maximum of what it has reported. The result does not depend on
// the order in which messages are applied.
func Reduce(a Aggregate, msg search.Message) Aggregate {
	workers := make(map[string]search.Counters, len(a.workers)+1)
	for id, c := range a.workers {
		workers[id] = c
	}
	workers[msg.WorkerID] = maxCounters(workers[msg.WorkerID], msg.Counters)

	completed := a.completed
	if !msg.InProgress {
		completed = make(map[string]struct{}, len(a.completed)+1)
		for id := range a.completed {
			completed[id] = struct{}{}
		}
		completed[msg.WorkerID] = struct{}{}
	}

	sum := search.NewCounters()
	for _, c := range workers {
		sum = sum.Add(c)
	}

	return Aggregate{
		Total:     a.Total,
		Expected:  a.Expected,
		workers:   workers,
		completed: completed,
		sum:       sum,
	}
}

// Counters returns the summed counters of every worker.
func (a Aggregate) Counters() search.Counters {
	return a.sum.Clone()
}

// Percent returns Checkpointed*100/Total rounded down, or 0 for an empty run.
func (a Aggregate) Percent() int64 {
	if a.Total == nil || a.Total.Sign() == 0 || a.sum.Checkpointed == nil {
		return 0
	}
	p := new(big.Int).Mul(a.sum.Checkpointed, big.NewInt(100))
	return p.Quo(p, a.Total).Int64()
}

// Reported returns the number of workers that have sent at least one message.
func (a Aggregate) Reported() int {
	return len(a.workers)
}

// Finished returns the number of workers that have sent their terminal message.
func (a Aggregate) Finished() int {
	return len(a.completed)
}

// Complete reports whether every expected worker has sent its terminal message.
func (a Aggregate) Complete() bool {
	return a.Expected > 0 && len(a.completed) >= a.Expected
}

func maxCounters(a, b search.Counters) search.Counters {
	return search.Counters{
		Examined:     maxInt(a.Examined, b.Examined),
		Checkpointed: maxInt(a.Checkpointed, b.Checkpointed),
		Accepted:     maxInt(a.Accepted, b.Accepted),
	}
}

func maxInt(a, b *big.Int) *big.Int {
	switch {
	case a == nil && b == nil:
		return new(big.Int)
	case a == nil:
		return new(big.Int).Set(b)
	case b == nil || a.Cmp(b) >= 0:
		return new(big.Int).Set(a)
	default:
		return new(big.Int).Set(b)
	}
}
