package search

import (
	"math/big"
	"time"
)

// RunID identifies a single dispatch of the search engine.
// Messages tagged with a RunID that is no longer active are dropped.
type RunID string

// Item is one labeled element of the searchable universe (a polestar).
type Item struct {
	// Symbol is the stable identifier of the item, e.g. "command_skill" or "rarity:5".
	Symbol string `json:"symbol" yaml:"symbol" validate:"required"`

	// Category groups items, e.g. "rarity", "skill" or "trait".
	Category string `json:"category" yaml:"category"`
}

// Disposition classifies an entity for the acceptance rules.
type Disposition string

const (
	// DispositionInclude counts the entity toward ownership.
	DispositionInclude Disposition = "include"

	// DispositionExclude disqualifies any combination that unlocks the entity.
	DispositionExclude Disposition = "exclude"

	// DispositionUnowned counts the entity against the run's unowned budget.
	DispositionUnowned Disposition = "unowned"
)

// Valid reports whether d is one of the known dispositions.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionInclude, DispositionExclude, DispositionUnowned:
		return true
	}
	return false
}

// Entity is a domain object (a crew record) that a combination can unlock.
// An entity is unlocked by a combination when its attributes contain every
// item of the combination.
type Entity struct {
	// Symbol is the stable identifier of the entity.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Name is a display name (optional).
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Rarity is the entity's rarity tier, used for the cost summary.
	Rarity int `json:"rarity" yaml:"rarity"`

	// Attributes are the item symbols the entity carries.
	Attributes []string `json:"attributes" yaml:"attributes"`

	// Disposition is computed once before the run and read-only afterwards.
	Disposition Disposition `json:"disposition" yaml:"disposition"`
}

// Slice is a contiguous range [Start, Start+Length) of the combination index
// space assigned to exactly one worker.
type Slice struct {
	// RunID identifies the run this slice belongs to.
	RunID RunID

	// WorkerID identifies the worker that owns this slice (UUID).
	WorkerID string

	// Start is the lexicographic rank of the first combination in the slice.
	Start *big.Int

	// Length is the number of combinations in the slice.
	Length *big.Int
}

// End returns Start+Length, the first rank past the slice.
func (s Slice) End() *big.Int {
	return new(big.Int).Add(s.Start, s.Length)
}

// Counters holds progress counters. All values are arbitrary precision
// because totals routinely exceed the safe range of machine integers.
type Counters struct {
	// Examined is the number of candidates evaluated so far.
	Examined *big.Int

	// Checkpointed is the number of candidates covered by the last reporting checkpoint.
	Checkpointed *big.Int

	// Accepted is the number of candidates accepted so far.
	Accepted *big.Int
}

// NewCounters returns zeroed counters.
func NewCounters() Counters {
	return Counters{
		Examined:     new(big.Int),
		Checkpointed: new(big.Int),
		Accepted:     new(big.Int),
	}
}

// Clone returns a deep copy of c. Nil fields become zero.
func (c Counters) Clone() Counters {
	return Counters{
		Examined:     cloneInt(c.Examined),
		Checkpointed: cloneInt(c.Checkpointed),
		Accepted:     cloneInt(c.Accepted),
	}
}

// Add returns c+o without modifying either operand.
func (c Counters) Add(o Counters) Counters {
	out := c.Clone()
	if o.Examined != nil {
		out.Examined.Add(out.Examined, o.Examined)
	}
	if o.Checkpointed != nil {
		out.Checkpointed.Add(out.Checkpointed, o.Checkpointed)
	}
	if o.Accepted != nil {
		out.Accepted.Add(out.Accepted, o.Accepted)
	}
	return out
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// Cost summarizes the entities an accepted combination unlocks.
type Cost struct {
	// Polestars is the number of items in the combination.
	Polestars int `json:"polestars"`

	// Qualifying is Owned+Unowned.
	Qualifying int `json:"qualifying"`

	// Owned is the number of unlocked entities with DispositionInclude.
	Owned int `json:"owned"`

	// Unowned is the number of unlocked entities with DispositionUnowned.
	Unowned int `json:"unowned"`

	// RarityTotal is the sum of the unlocked entities' rarity.
	RarityTotal int `json:"rarity_total"`

	// RarityMax is the highest rarity among the unlocked entities.
	RarityMax int `json:"rarity_max"`
}

// Result is an accepted combination. Immutable once emitted.
type Result struct {
	// Index is the lexicographic rank of the combination.
	Index *big.Int `json:"index"`

	// Positions are the ascending universe positions of the combination.
	Positions []int `json:"positions"`

	// Items are the symbols of the combination, in position order.
	Items []string `json:"items"`

	// Unlocks are the symbols of the entities the combination unlocks.
	Unlocks []string `json:"unlocks"`

	// Cost summarizes the unlocked entities.
	Cost Cost `json:"cost"`
}

// Message is sent by a worker to the coordinator.
type Message struct {
	// RunID routes the message; stale run IDs are dropped.
	RunID RunID

	// WorkerID identifies the sending worker.
	WorkerID string

	// InProgress is false only on the worker's terminal message.
	InProgress bool

	// Counters are the worker's cumulative counters at send time.
	Counters Counters

	// Item is set on live preview messages.
	Item *Result

	// Items carries the buffered results on the terminal message.
	Items []Result

	// Elapsed is the worker's running time, set on the terminal message.
	Elapsed time.Duration
}

// EventKind identifies the shape of an Event.
type EventKind string

const (
	// EventProgress carries aggregated counters.
	EventProgress EventKind = "progress"

	// EventItem carries a single previewed result.
	EventItem EventKind = "item"

	// EventComplete is the terminal event of a run.
	EventComplete EventKind = "complete"

	// EventCancelled replaces the terminal event when a run is cancelled.
	EventCancelled EventKind = "cancelled"
)

// Event is published by the coordinator to the caller.
type Event struct {
	RunID RunID
	Kind  EventKind

	// InProgress is false only on EventComplete. A cancelled run never
	// reports a terminal message, so its EventCancelled stays in progress.
	InProgress bool

	// Counters are the aggregate across all workers of the run.
	Counters Counters

	// Total is the number of combinations the run examines.
	Total *big.Int

	// Percent is Checkpointed*100/Total, rounded down.
	Percent int64

	// Item is set for EventItem.
	Item *Result

	// TotalExamined, Elapsed and Items are set for EventComplete.
	TotalExamined *big.Int
	Elapsed       time.Duration
	Items         []Result
}

// EventFunc receives events for one run.
type EventFunc func(Event)

// RunState is the state of the coordinator's run lifecycle.
type RunState string

const (
	// RunStateIdle indicates no run is active.
	RunStateIdle RunState = "idle"

	// RunStateDispatching indicates workers are starting and none has reported yet.
	RunStateDispatching RunState = "dispatching"

	// RunStateRunning indicates at least one worker has reported.
	RunStateRunning RunState = "running"

	// RunStateCompleted indicates every worker reported its terminal message.
	RunStateCompleted RunState = "completed"

	// RunStateCancelled indicates the run was cancelled before completion.
	RunStateCancelled RunState = "cancelled"
)

// RunStates lists every run state in lifecycle order.
var RunStates = []RunState{
	RunStateIdle,
	RunStateDispatching,
	RunStateRunning,
	RunStateCompleted,
	RunStateCancelled,
}
