// Package combinadic maps between lexicographic ranks and k-combinations of an
// n-item universe without enumerating predecessors.
//
// Combinations are ascending slices of positions in [0, n). Rank 0 is
// [0, 1, ..., k-1] and rank Count(n,k)-1 is [n-k, ..., n-1]. All ranks and
// counts are arbitrary precision.
package combinadic

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var (
	// ErrIndexOutOfRange indicates a rank outside [0, Count(n,k)).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidCombination indicates positions that are not a valid ascending k-subset of [0, n).
	ErrInvalidCombination = errors.New("invalid combination")

	// ErrInvalidSize indicates a negative universe or combination size.
	ErrInvalidSize = errors.New("invalid size")
)

// Count returns the number of k-combinations of an n-item universe.
// It returns zero when k > n or when either argument is negative.
func Count(n, k int) *big.Int {
	if n < 0 || k < 0 || k > n {
		return new(big.Int)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}

// Indexer converts between ranks and combinations for a fixed (n, k).
// It is immutable after construction and safe for concurrent use.
type Indexer struct {
	n     int
	k     int
	total *big.Int

	// binom[a][b] = C(a, b) for 0 <= a <= n, 0 <= b <= k.
	binom [][]*big.Int
}

// New builds an Indexer for k-combinations of n items.
func New(n, k int) (*Indexer, error) {
	if n < 0 || k < 0 {
		return nil, fmt.Errorf("%w: n=%d k=%d", ErrInvalidSize, n, k)
	}

	binom := make([][]*big.Int, n+1)
	for a := 0; a <= n; a++ {
		row := make([]*big.Int, k+1)
		row[0] = big.NewInt(1)
		for b := 1; b <= k; b++ {
			if a == 0 {
				row[b] = new(big.Int)
				continue
			}
			row[b] = new(big.Int).Add(binom[a-1][b-1], binom[a-1][b])
		}
		binom[a] = row
	}

	var total *big.Int
	if k > n {
		total = new(big.Int)
	} else {
		total = new(big.Int).Set(binom[n][k])
	}

	return &Indexer{n: n, k: k, total: total, binom: binom}, nil
}

// N returns the universe size.
func (x *Indexer) N() int { return x.n }

// K returns the combination size.
func (x *Indexer) K() int { return x.k }

// Total returns Count(n, k). The returned value must not be modified.
func (x *Indexer) Total() *big.Int { return x.total }

// Unrank returns the combination at the given lexicographic rank.
//
// It works on the combinadic of the complementary rank Total-1-index: for each
// size i from k down to 1 it binary-searches the largest c with C(c, i) <= rest,
// so the cost is O(k log n) table lookups.
func (x *Indexer) Unrank(index *big.Int) ([]int, error) {
	if index == nil || index.Sign() < 0 || index.Cmp(x.total) >= 0 {
		return nil, fmt.Errorf("%w: %v not in [0, %s)", ErrIndexOutOfRange, index, x.total)
	}

	rest := new(big.Int).Sub(x.total, big.NewInt(1))
	rest.Sub(rest, index)

	positions := make([]int, x.k)
	hi := x.n
	for i := x.k; i >= 1; i-- {
		lo := i - 1
		// first c in [lo, hi) with C(c, i) > rest; the answer is the one before it
		span := sort.Search(hi-lo, func(off int) bool {
			return x.binom[lo+off][i].Cmp(rest) > 0
		})
		c := lo + span - 1
		rest.Sub(rest, x.binom[c][i])
		positions[x.k-i] = x.n - 1 - c
		hi = c
	}

	return positions, nil
}

// Rank returns the lexicographic rank of the given combination.
func (x *Indexer) Rank(positions []int) (*big.Int, error) {
	if err := x.check(positions); err != nil {
		return nil, err
	}

	sum := new(big.Int)
	for j, p := range positions {
		sum.Add(sum, x.binom[x.n-1-p][x.k-j])
	}

	rank := new(big.Int).Sub(x.total, big.NewInt(1))
	return rank.Sub(rank, sum), nil
}

func (x *Indexer) check(positions []int) error {
	if len(positions) != x.k || x.k > x.n {
		return fmt.Errorf("%w: want %d positions of %d, got %v", ErrInvalidCombination, x.k, x.n, positions)
	}
	for j, p := range positions {
		if p < 0 || p >= x.n || (j > 0 && p <= positions[j-1]) {
			return fmt.Errorf("%w: %v", ErrInvalidCombination, positions)
		}
	}
	return nil
}

// Next advances positions in place to the lexicographic successor within an
// n-item universe. It returns false, leaving positions unchanged, when
// positions is the last combination.
func Next(n int, positions []int) bool {
	k := len(positions)
	i := k - 1
	for i >= 0 && positions[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	positions[i]++
	for j := i + 1; j < k; j++ {
		positions[j] = positions[j-1] + 1
	}
	return true
}
