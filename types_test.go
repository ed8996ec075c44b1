package search

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisposition_Constants(t *testing.T) {
	t.Run("DispositionInclude equals include", func(t *testing.T) {
		assert.Equal(t, Disposition("include"), DispositionInclude)
	})

	t.Run("DispositionExclude equals exclude", func(t *testing.T) {
		assert.Equal(t, Disposition("exclude"), DispositionExclude)
	})

	t.Run("DispositionUnowned equals unowned", func(t *testing.T) {
		assert.Equal(t, Disposition("unowned"), DispositionUnowned)
	})
}

func TestDisposition_Valid(t *testing.T) {
	assert.True(t, DispositionInclude.Valid())
	assert.True(t, DispositionExclude.Valid())
	assert.True(t, DispositionUnowned.Valid())
	assert.False(t, Disposition("").Valid())
	assert.False(t, Disposition("owned").Valid())
}

func TestRunState_Constants(t *testing.T) {
	assert.Equal(t, []RunState{"idle", "dispatching", "running", "completed", "cancelled"}, RunStates)
}

func TestSlice_End(t *testing.T) {
	s := Slice{Start: big.NewInt(40), Length: big.NewInt(2)}

	assert.Equal(t, 0, s.End().Cmp(big.NewInt(42)))
	assert.Equal(t, 0, s.Start.Cmp(big.NewInt(40)), "End must not modify Start")
}

func TestCounters_ZeroValues(t *testing.T) {
	t.Run("NewCounters is zero", func(t *testing.T) {
		c := NewCounters()

		assert.Zero(t, c.Examined.Sign())
		assert.Zero(t, c.Checkpointed.Sign())
		assert.Zero(t, c.Accepted.Sign())
	})

	t.Run("Clone of zero value allocates", func(t *testing.T) {
		var c Counters

		clone := c.Clone()

		assert.NotNil(t, clone.Examined)
		assert.NotNil(t, clone.Checkpointed)
		assert.NotNil(t, clone.Accepted)
	})
}

func TestCounters_CloneIsDeep(t *testing.T) {
	c := Counters{Examined: big.NewInt(5), Checkpointed: big.NewInt(4), Accepted: big.NewInt(1)}

	clone := c.Clone()
	clone.Examined.SetInt64(99)

	assert.Equal(t, int64(5), c.Examined.Int64())
}

func TestCounters_Add(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	a := Counters{Examined: huge, Checkpointed: big.NewInt(100), Accepted: big.NewInt(3)}
	b := Counters{Examined: big.NewInt(10), Checkpointed: big.NewInt(0), Accepted: big.NewInt(2)}

	sum := a.Add(b)

	want, _ := new(big.Int).SetString("123456789012345678901234567900", 10)
	assert.Equal(t, 0, sum.Examined.Cmp(want))
	assert.Equal(t, int64(100), sum.Checkpointed.Int64())
	assert.Equal(t, int64(5), sum.Accepted.Int64())
	assert.Equal(t, int64(3), a.Accepted.Int64(), "Add must not modify its receiver")
}
