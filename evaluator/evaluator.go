// Package evaluator decides whether a candidate combination is accepted.
//
// A Context is built once per run from the universe and the tagged entities and
// is read-only afterwards, so a single Context is shared by every worker.
// Evaluate is a pure function of its input and the Context.
package evaluator

import (
	"errors"

	search "github.com/getpup/polestar-search"
)

var (
	// ErrMalformed indicates the candidate or an entity it touches carries invalid data.
	ErrMalformed = errors.New("malformed candidate")

	// ErrCategoryConflict indicates more than one item from an exclusive category.
	ErrCategoryConflict = errors.New("exclusive category used more than once")

	// ErrExcludedEntity indicates the combination unlocks an excluded entity.
	ErrExcludedEntity = errors.New("combination unlocks an excluded entity")

	// ErrUnownedBudget indicates the combination unlocks too many unowned entities.
	ErrUnownedBudget = errors.New("unowned budget exceeded")

	// ErrNotMutual indicates the combination unlocks too few qualifying entities.
	ErrNotMutual = errors.New("too few qualifying entities")
)

// Options configures the acceptance rules.
type Options struct {
	// UnownedBudget is the maximum number of unowned entities a combination may unlock.
	UnownedBudget int

	// MinQualifying is the number of qualifying entities required (default: 2).
	MinQualifying int

	// ExclusiveCategories are item categories of which at most one item may be used.
	ExclusiveCategories []string
}

// Context is the read-only domain snapshot candidates are evaluated against.
type Context struct {
	universe      []search.Item
	entities      []search.Entity
	exclusive     []bool // per universe position
	unownedBudget int
	minQualifying int

	// holders[p] lists, ascending, the entities whose attributes contain universe item p.
	holders [][]int
	all     []int
}

// New builds a Context. Entities are referenced, not copied, and must not be
// modified while the Context is in use.
func New(universe []search.Item, entities []search.Entity, opts Options) *Context {
	if opts.MinQualifying == 0 {
		opts.MinQualifying = search.DefaultMinQualifying
	}

	exclusiveCats := make(map[string]struct{}, len(opts.ExclusiveCategories))
	for _, c := range opts.ExclusiveCategories {
		exclusiveCats[c] = struct{}{}
	}

	positionOf := make(map[string]int, len(universe))
	exclusive := make([]bool, len(universe))
	for p, item := range universe {
		positionOf[item.Symbol] = p
		_, exclusive[p] = exclusiveCats[item.Category]
	}

	holders := make([][]int, len(universe))
	all := make([]int, len(entities))
	for e, entity := range entities {
		all[e] = e
		for _, attr := range entity.Attributes {
			p, ok := positionOf[attr]
			if !ok {
				continue
			}
			// duplicate attributes must not list the entity twice
			if n := len(holders[p]); n > 0 && holders[p][n-1] == e {
				continue
			}
			holders[p] = append(holders[p], e)
		}
	}

	return &Context{
		universe:      universe,
		entities:      entities,
		exclusive:     exclusive,
		unownedBudget: opts.UnownedBudget,
		minQualifying: opts.MinQualifying,
		holders:       holders,
		all:           all,
	}
}

// UniverseSize returns the number of items in the universe.
func (c *Context) UniverseSize() int {
	return len(c.universe)
}

// Evaluate applies the acceptance rules to the combination at the given
// ascending universe positions. A nil error means the candidate is accepted;
// rejections return one of the package's sentinel errors. The returned
// Result has no Index; the caller knows the rank.
func (c *Context) Evaluate(positions []int) (search.Result, error) {
	for j, p := range positions {
		if p < 0 || p >= len(c.universe) || (j > 0 && p <= positions[j-1]) {
			return search.Result{}, ErrMalformed
		}
	}

	if c.categoryConflict(positions) {
		return search.Result{}, ErrCategoryConflict
	}

	unlocked := c.intersect(positions)

	owned, unowned := 0, 0
	for _, e := range unlocked {
		entity := &c.entities[e]
		if entity.Symbol == "" {
			return search.Result{}, ErrMalformed
		}
		switch entity.Disposition {
		case search.DispositionExclude:
			return search.Result{}, ErrExcludedEntity
		case search.DispositionInclude:
			owned++
		case search.DispositionUnowned:
			unowned++
		default:
			return search.Result{}, ErrMalformed
		}
	}

	if unowned > c.unownedBudget {
		return search.Result{}, ErrUnownedBudget
	}
	if owned+unowned < c.minQualifying {
		return search.Result{}, ErrNotMutual
	}

	return c.result(positions, unlocked, owned, unowned), nil
}

func (c *Context) categoryConflict(positions []int) bool {
	for j, p := range positions {
		if !c.exclusive[p] {
			continue
		}
		category := c.universe[p].Category
		for _, q := range positions[:j] {
			if c.exclusive[q] && c.universe[q].Category == category {
				return true
			}
		}
	}
	return false
}

// intersect returns the ascending indices of entities holding every item.
// An empty combination is held by every entity.
func (c *Context) intersect(positions []int) []int {
	if len(positions) == 0 {
		return c.all
	}

	// start from the rarest item to keep the working set small
	first := 0
	for j, p := range positions {
		if len(c.holders[p]) < len(c.holders[positions[first]]) {
			first = j
		}
	}

	out := append([]int(nil), c.holders[positions[first]]...)
	for j, p := range positions {
		if j == first || len(out) == 0 {
			continue
		}
		out = intersectSorted(out, c.holders[p])
	}
	return out
}

// intersectSorted keeps the elements of dst that also appear in other. It
// reuses dst's backing array.
func intersectSorted(dst, other []int) []int {
	out := dst[:0]
	i, j := 0, 0
	for i < len(dst) && j < len(other) {
		switch {
		case dst[i] < other[j]:
			i++
		case dst[i] > other[j]:
			j++
		default:
			out = append(out, dst[i])
			i++
			j++
		}
	}
	return out
}

func (c *Context) result(positions, unlocked []int, owned, unowned int) search.Result {
	items := make([]string, len(positions))
	for j, p := range positions {
		items[j] = c.universe[p].Symbol
	}

	cost := search.Cost{
		Polestars:  len(positions),
		Qualifying: owned + unowned,
		Owned:      owned,
		Unowned:    unowned,
	}
	unlocks := make([]string, len(unlocked))
	for i, e := range unlocked {
		entity := &c.entities[e]
		unlocks[i] = entity.Symbol
		cost.RarityTotal += entity.Rarity
		if entity.Rarity > cost.RarityMax {
			cost.RarityMax = entity.Rarity
		}
	}

	return search.Result{
		Positions: append([]int(nil), positions...),
		Items:     items,
		Unlocks:   unlocks,
		Cost:      cost,
	}
}
