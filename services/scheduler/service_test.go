package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(0, func(context.Context) {}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRunsImmediatelyThenOnInterval(t *testing.T) {
	var runs atomic.Int32
	s, err := New(20*time.Millisecond, func(context.Context) { runs.Add(1) }, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, 20*time.Millisecond, st.Interval)
	assert.False(t, st.LastRunAt.IsZero())

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Status().Running)
}

func TestRunsDoNotOverlap(t *testing.T) {
	var (
		active  atomic.Int32
		overlap atomic.Bool
		runs    atomic.Int32
	)
	release := make(chan struct{})
	job := func(context.Context) {
		if active.Add(1) > 1 {
			overlap.Store(true)
		}
		defer active.Add(-1)
		if runs.Add(1) == 1 {
			<-release
		}
	}

	s, err := New(10*time.Millisecond, job, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return s.Status().Skipped >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, runs.Load())
	close(release)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, overlap.Load())
}

func TestStopLetsInFlightRunFinish(t *testing.T) {
	started := make(chan struct{})
	var (
		finished atomic.Bool
		jobErr   atomic.Value
	)
	job := func(ctx context.Context) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		if ctx.Err() != nil {
			jobErr.Store(ctx.Err())
		}
		finished.Store(true)
	}

	s, err := New(time.Hour, job, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	<-started

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, finished.Load())
	assert.Nil(t, jobErr.Load())
	assert.Equal(t, 1, s.Status().Runs)
}

func TestStopHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s, err := New(time.Hour, func(context.Context) {
		close(started)
		<-release
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
	close(release)
}
