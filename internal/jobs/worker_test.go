package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_ProcessesQueuedJobs(t *testing.T) {
	w := NewWorker(2)

	var ran atomic.Int32
	done := make(chan struct{})
	w.Enqueue("count", func(ctx context.Context) error {
		ran.Add(1)
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	w.Shutdown()

	assert.Equal(t, int32(1), ran.Load())
	stats := w.GetStats()
	assert.Equal(t, int64(1), stats.CompletedJobs)
	assert.Equal(t, int64(0), stats.FailedJobs)
}

func TestWorker_TracksFailures(t *testing.T) {
	w := NewWorker(1)

	done := make(chan struct{})
	w.Enqueue("boom", func(ctx context.Context) error {
		defer close(done)
		return errors.New("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	w.Shutdown()

	assert.Equal(t, int64(1), w.GetStats().FailedJobs)
}

func TestWorker_RecoversFromPanic(t *testing.T) {
	w := NewWorker(1)

	w.Enqueue("panic", func(ctx context.Context) error {
		panic("unexpected")
	})
	// a second job still runs after the panic
	done := make(chan struct{})
	w.Enqueue("after", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
	w.Shutdown()

	assert.Equal(t, int64(1), w.GetStats().FailedJobs)
}

func TestScheduler_AddValidatesSpec(t *testing.T) {
	w := NewWorker(1)
	s := NewScheduler(w)

	require.NoError(t, s.Add("* * * * *", "noop", func(ctx context.Context) error {
		return nil
	}))

	err := s.Add("not a cron spec", "bad", func(ctx context.Context) error { return nil })
	assert.Error(t, err)

	s.Start()
	s.Stop()
	w.Shutdown()
}
