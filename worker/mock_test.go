package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	search "github.com/getpup/polestar-search"
	"github.com/stretchr/testify/assert"
)

func TestMockRunner_RecordsCalls(t *testing.T) {
	mock := NewMockRunner()
	mock.RunFunc = func(ctx context.Context, out chan<- search.Message) error {
		return nil
	}

	_ = mock.Run(context.Background(), nil)
	_ = mock.Run(context.Background(), nil)

	assert.Equal(t, 2, mock.Calls())
}

func TestMockRunner_UsesRunFunc(t *testing.T) {
	mock := NewMockRunner()
	expectedErr := errors.New("run failed")
	mock.RunFunc = func(ctx context.Context, out chan<- search.Message) error {
		out <- search.Message{RunID: "run-1", WorkerID: "w"}
		return expectedErr
	}

	out := make(chan search.Message, 1)
	err := mock.Run(context.Background(), out)

	assert.Equal(t, expectedErr, err)
	msg := <-out
	assert.Equal(t, search.RunID("run-1"), msg.RunID)
}

func TestMockRunner_DefaultBlocksUntilCancelled(t *testing.T) {
	mock := NewMockRunner()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- mock.Run(ctx, nil) }()

	select {
	case <-done:
		t.Fatal("Run returned before cancellation")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestMockRunner_Reset(t *testing.T) {
	mock := NewMockRunner()
	mock.RunFunc = func(ctx context.Context, out chan<- search.Message) error { return nil }

	_ = mock.Run(context.Background(), nil)
	mock.Reset()

	assert.Zero(t, mock.Calls())
}
