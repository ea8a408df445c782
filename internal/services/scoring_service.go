package services

import (
	"context"

	"matchday/internal/metrics"
	"matchday/internal/models"
	"matchday/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CorrectPickPoints is awarded for picking the actual outcome.
var CorrectPickPoints = decimal.NewFromInt(3)

var two = decimal.NewFromInt(2)

// ScoringService fills result_points for predictions on finished matches.
type ScoringService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
}

// NewScoringService creates a new ScoringService
func NewScoringService(repo *repository.Repository, m *metrics.Metrics) *ScoringService {
	return &ScoringService{repo: repo, metrics: m}
}

// Points scores one prediction against the actual outcome: 3 for the right
// pick, plus 1 - Brier/2 when probabilities were given. Missing
// probabilities count as 0. The result has two decimal places.
func Points(p *models.Prediction, outcome models.Pick) decimal.Decimal {
	points := decimal.Zero
	if p.Pick == outcome {
		points = points.Add(CorrectPickPoints)
	}
	if p.HasProbabilities() {
		brier := decimal.Zero
		for _, o := range []struct {
			pick models.Pick
			prob *float64
		}{
			{models.PickHome, p.PHome},
			{models.PickDraw, p.PDraw},
			{models.PickAway, p.PAway},
		} {
			forecast := decimal.Zero
			if o.prob != nil {
				forecast = decimal.NewFromFloat(*o.prob)
			}
			actual := decimal.Zero
			if o.pick == outcome {
				actual = decimal.NewFromInt(1)
			}
			diff := forecast.Sub(actual)
			brier = brier.Add(diff.Mul(diff))
		}
		points = points.Add(decimal.NewFromInt(1).Sub(brier.Div(two)))
	}
	return points.Round(2)
}

// ScoreMatch awards points to the unscored predictions of a finished match
// and returns how many were scored. Matches without a final result are
// skipped, and so are predictions whose match result changed after match
// was loaded; they are picked up again by a later pass.
func (s *ScoringService) ScoreMatch(ctx context.Context, match *models.Match) (int, error) {
	if !match.Scored() {
		return 0, nil
	}
	outcome := *match.Outcome()

	predictions, err := s.repo.GetUnscoredPredictions(ctx, match.ID)
	if err != nil {
		return 0, internal(ctx, "load unscored predictions", err)
	}

	scored := 0
	for i := range predictions {
		points, _ := Points(&predictions[i], outcome).Float64()
		ok, err := s.repo.SetResultPoints(ctx, predictions[i].ID, match, points)
		if err != nil {
			return scored, internal(ctx, "set result points", err)
		}
		if !ok {
			zerolog.Ctx(ctx).Debug().
				Uint("match_id", match.ID).
				Uint("prediction_id", predictions[i].ID).
				Msg("result changed while scoring, skipped")
			continue
		}
		scored++
	}
	s.metrics.Scored(scored)
	return scored, nil
}

// ScorePending scores up to limit finished matches that still have
// unscored predictions.
func (s *ScoringService) ScorePending(ctx context.Context, limit int) (int, error) {
	matches, err := s.repo.GetScoreableMatches(ctx, limit)
	if err != nil {
		s.metrics.ScoringFailed()
		return 0, internal(ctx, "load scoreable matches", err)
	}

	total := 0
	for i := range matches {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.ScoreMatch(ctx, &matches[i])
		total += n
		if err != nil {
			s.metrics.ScoringFailed()
			return total, err
		}
		zerolog.Ctx(ctx).Debug().Uint("match_id", matches[i].ID).Int("scored", n).Msg("match scored")
	}
	return total, nil
}
