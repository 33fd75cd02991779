package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		Every(ctx, 10*time.Millisecond, "test", func(context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
			}
			return errors.New("keeps going after errors")
		}, nil)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestEveryStopsWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int32
	Every(ctx, time.Hour, "test", func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	assert.EqualValues(t, 1, runs.Load(), "the first run is not skipped")
}
