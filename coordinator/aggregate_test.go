package coordinator

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	search "github.com/getpup/polestar-search"
)

func counters(examined, checkpointed, accepted int64) search.Counters {
	return search.Counters{
		Examined:     big.NewInt(examined),
		Checkpointed: big.NewInt(checkpointed),
		Accepted:     big.NewInt(accepted),
	}
}

func progress(worker string, examined, accepted int64) search.Message {
	return search.Message{RunID: "run-1", WorkerID: worker, InProgress: true, Counters: counters(examined, examined, accepted)}
}

func terminal(worker string, examined, accepted int64) search.Message {
	return search.Message{RunID: "run-1", WorkerID: worker, InProgress: false, Counters: counters(examined, examined, accepted)}
}

func TestReduce_SumsWorkers(t *testing.T) {
	agg := NewAggregate(big.NewInt(400), 2)

	agg = Reduce(agg, progress("a", 100, 3))
	agg = Reduce(agg, progress("b", 100, 1))
	agg = Reduce(agg, progress("a", 200, 5))

	c := agg.Counters()
	assert.Equal(t, int64(300), c.Examined.Int64())
	assert.Equal(t, int64(300), c.Checkpointed.Int64())
	assert.Equal(t, int64(6), c.Accepted.Int64())
	assert.Equal(t, int64(75), agg.Percent())
	assert.Equal(t, 2, agg.Reported())
	assert.False(t, agg.Complete())
}

func TestReduce_DoesNotModifyInput(t *testing.T) {
	before := Reduce(NewAggregate(big.NewInt(200), 2), progress("a", 100, 1))

	after := Reduce(before, terminal("a", 150, 2))

	assert.Equal(t, int64(100), before.Counters().Examined.Int64())
	assert.Zero(t, before.Finished())
	assert.Equal(t, int64(150), after.Counters().Examined.Int64())
	assert.Equal(t, 1, after.Finished())
}

func TestReduce_CompletesWhenEveryWorkerFinished(t *testing.T) {
	agg := NewAggregate(big.NewInt(300), 3)

	agg = Reduce(agg, terminal("a", 100, 0))
	agg = Reduce(agg, terminal("b", 100, 0))
	assert.False(t, agg.Complete())

	agg = Reduce(agg, terminal("b", 100, 0))
	assert.False(t, agg.Complete(), "a repeated terminal message counts once")

	agg = Reduce(agg, terminal("c", 100, 0))
	assert.True(t, agg.Complete())
	assert.Equal(t, int64(100), agg.Percent())
}

func TestReduce_OrderIndependent(t *testing.T) {
	msgs := []search.Message{
		progress("a", 100, 1),
		progress("a", 200, 4),
		terminal("a", 250, 5),
		progress("b", 100, 0),
		terminal("b", 250, 2),
		progress("c", 100, 7),
		progress("c", 200, 9),
		terminal("c", 250, 9),
		progress("d", 100, 1),
		terminal("d", 250, 1),
	}

	reduceAll := func(order []search.Message) Aggregate {
		agg := NewAggregate(big.NewInt(1000), 4)
		for _, m := range order {
			agg = Reduce(agg, m)
		}
		return agg
	}

	want := reduceAll(msgs)
	require.True(t, want.Complete())
	assert.Equal(t, int64(1000), want.Counters().Examined.Int64())
	assert.Equal(t, int64(17), want.Counters().Accepted.Int64())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]search.Message(nil), msgs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := reduceAll(shuffled)

		assert.Equal(t, 0, got.Counters().Examined.Cmp(want.Counters().Examined))
		assert.Equal(t, 0, got.Counters().Checkpointed.Cmp(want.Counters().Checkpointed))
		assert.Equal(t, 0, got.Counters().Accepted.Cmp(want.Counters().Accepted))
		assert.Equal(t, want.Percent(), got.Percent())
		assert.True(t, got.Complete())
	}
}

func TestPercent_HugeTotals(t *testing.T) {
	total, ok := new(big.Int).SetString("93759702772827452793193754439064084879232655700081358920472352712975170021839591675861424", 10)
	require.True(t, ok)
	half := new(big.Int).Rsh(total, 1)

	agg := Reduce(NewAggregate(total, 1), search.Message{
		RunID: "run-1", WorkerID: "a", InProgress: true,
		Counters: search.Counters{Examined: half, Checkpointed: half, Accepted: big.NewInt(0)},
	})

	assert.Equal(t, int64(50), agg.Percent())
}

func TestPercent_EmptyAggregate(t *testing.T) {
	assert.Zero(t, NewAggregate(big.NewInt(10), 1).Percent())
	assert.Zero(t, NewAggregate(big.NewInt(0), 1).Percent())
}

func TestReduce_ToleratesNilCounters(t *testing.T) {
	agg := Reduce(NewAggregate(big.NewInt(10), 1), search.Message{RunID: "run-1", WorkerID: "a", InProgress: false})

	assert.Zero(t, agg.Counters().Examined.Sign())
	assert.True(t, agg.Complete())
}
