package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/beacon/pkg/observability"
)

func TestEvery(t *testing.T) {
	assert.Equal(t, "@every 10s", Every(10*time.Second))
	assert.Equal(t, "@every 5m0s", Every(5*time.Minute))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.Add("tick", Every(time.Second), func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestScheduler_AddValidation(t *testing.T) {
	s := New(nil)
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Add("a", Every(time.Minute), noop))
	assert.ErrorIs(t, s.Add("a", Every(time.Minute), noop), ErrDuplicateJob)
	assert.Error(t, s.Add("b", "not a schedule", noop))
	assert.Equal(t, []string{"a"}, s.Jobs())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Empty(t, s.Jobs())
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(nil)
	started := make(chan struct{}, 1)
	var cancelled atomic.Bool
	require.NoError(t, s.Add("block", Every(time.Second), func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())
}

func TestScheduler_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	s := New(observability.NewLogger(observability.DebugLevel, &buf))
	var runs atomic.Int32
	require.NoError(t, s.Add("explode", Every(time.Second), func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			panic("first run fails")
		}
		return errors.New("second run errors")
	}))

	s.Start()

	// A panicking run must not wedge the job: later ticks keep running.
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	assert.Contains(t, buf.String(), "panic")
	assert.NotContains(t, buf.String(), "skip")
}
