package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBatchSize caps how many matches one tick scores.
const DefaultBatchSize = 100

// Scorer awards points to finished matches.
type Scorer interface {
	ScorePending(ctx context.Context, limit int) (int, error)
}

// ScoringJob periodically fills in result_points for finished matches
type ScoringJob struct {
	scorer    Scorer
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	stop    sync.Once
}

// NewScoringJob creates a new scoring job
func NewScoringJob(scorer Scorer, interval time.Duration, logger zerolog.Logger) *ScoringJob {
	return &ScoringJob{
		scorer:    scorer,
		interval:  interval,
		batchSize: DefaultBatchSize,
		logger:    logger.With().Str("job", "scoring").Logger(),
		done:      make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval, until ctx is
// cancelled or Stop is called. Only the first call starts the loop.
func (j *ScoringJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return
	}
	j.started = true
	ctx, j.cancel = context.WithCancel(j.logger.WithContext(ctx))
	j.logger.Info().Dur("interval", j.interval).Msg("starting scoring job")

	go func() {
		defer close(j.done)

		_, _ = j.RunOnce(ctx)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, _ = j.RunOnce(ctx)
			case <-ctx.Done():
				j.logger.Info().Msg("stopping scoring job")
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for the current pass to finish.
func (j *ScoringJob) Stop() {
	j.stop.Do(func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if !j.started {
			// a later Start is a no-op
			j.started = true
			close(j.done)
			return
		}
		j.cancel()
	})
	<-j.done
}

// RunOnce scores batches until nothing is left or a pass fails. It
// returns how many predictions were scored and the failure, if any.
func (j *ScoringJob) RunOnce(ctx context.Context) (int, error) {
	total := 0
	var err error
	for ctx.Err() == nil {
		var n int
		n, err = j.scorer.ScorePending(ctx, j.batchSize)
		total += n
		if err != nil {
			if ctx.Err() == nil {
				j.logger.Error().Err(err).Msg("scoring pass failed")
			}
			break
		}
		if n == 0 {
			break
		}
	}
	if total > 0 {
		j.logger.Info().Int("scored", total).Msg("predictions scored")
	}
	return total, err
}
