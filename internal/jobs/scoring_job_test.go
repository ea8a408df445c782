package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScorer struct {
	mu      sync.Mutex
	batches []int
	err     error
	calls   int
	limits  []int
}

func (f *fakeScorer) ScorePending(ctx context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnceDrainsBatches(t *testing.T) {
	scorer := &fakeScorer{batches: []int{100, 100, 7}}
	job := NewScoringJob(scorer, time.Hour, zerolog.Nop())

	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 207, n)
	assert.Equal(t, 4, scorer.calls, "stops after an empty batch")
	assert.Equal(t, DefaultBatchSize, scorer.limits[0])
}

func TestRunOnceStopsOnError(t *testing.T) {
	failure := errors.New("database is locked")
	scorer := &fakeScorer{err: failure}
	job := NewScoringJob(scorer, time.Hour, zerolog.Nop())

	n, err := job.RunOnce(context.Background())
	assert.ErrorIs(t, err, failure)
	assert.Zero(t, n)
	assert.Equal(t, 1, scorer.calls)
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	scorer := &fakeScorer{}
	job := NewScoringJob(scorer, 10*time.Millisecond, zerolog.Nop())

	job.Start(context.Background())
	require.Eventually(t, func() bool { return scorer.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	job.Stop()
	calls := scorer.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, scorer.callCount(), "no passes after Stop")

	job.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	scorer := &fakeScorer{}
	job := NewScoringJob(scorer, time.Minute, zerolog.Nop())
	job.Stop()

	job.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, scorer.callCount(), "Start after Stop does nothing")
}

func TestStartTwice(t *testing.T) {
	scorer := &fakeScorer{}
	job := NewScoringJob(scorer, time.Hour, zerolog.Nop())

	job.Start(context.Background())
	job.Start(context.Background())
	require.Eventually(t, func() bool { return scorer.callCount() >= 1 }, time.Second, 5*time.Millisecond)

	job.Stop()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, scorer.callCount(), "only one loop ran")
}
