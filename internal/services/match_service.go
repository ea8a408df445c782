package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"matchday/internal/metrics"
	"matchday/internal/models"
	"matchday/internal/repository"
	"matchday/internal/validation"

	"github.com/rs/zerolog"
)

// MatchInput creates a fixture.
type MatchInput struct {
	HomeTeamID uint
	AwayTeamID uint
	KickoffAt  time.Time
	Venue      string
	Status     models.MatchStatus
}

// MatchUpdate replaces the editable fields of a fixture. Nil scores clear
// the result.
type MatchUpdate struct {
	KickoffAt time.Time
	Venue     string
	Status    models.MatchStatus
	HomeScore *int
	AwayScore *int
}

// MatchService handles match business logic
type MatchService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
}

// NewMatchService creates a new MatchService
func NewMatchService(repo *repository.Repository, m *metrics.Metrics) *MatchService {
	return &MatchService{repo: repo, metrics: m}
}

// GetMatch returns a match with its teams.
func (s *MatchService) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	match, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get match", err)
	}
	return match, nil
}

// PredictionCount returns how many predictions the match has.
func (s *MatchService) PredictionCount(ctx context.Context, id uint) (int64, error) {
	count, err := s.repo.CountPredictions(ctx, id)
	if err != nil {
		return 0, internal(ctx, "count predictions", err)
	}
	return count, nil
}

// ListMatches returns matches ordered by kickoff.
func (s *MatchService) ListMatches(ctx context.Context, filter repository.MatchFilter) ([]models.Match, int64, error) {
	matches, total, err := s.repo.ListMatches(ctx, filter)
	if err != nil {
		return nil, 0, internal(ctx, "list matches", err)
	}
	return matches, total, nil
}

// CreateMatch schedules a fixture owned by actorID.
func (s *MatchService) CreateMatch(ctx context.Context, actorID uint, in MatchInput) (*models.Match, error) {
	status := in.Status
	if status == "" {
		status = models.MatchStatusScheduled
	}
	match := &models.Match{
		HomeTeamID:  in.HomeTeamID,
		AwayTeamID:  in.AwayTeamID,
		KickoffAt:   in.KickoffAt.UTC(),
		Venue:       strings.TrimSpace(in.Venue),
		Status:      status,
		CreatedByID: &actorID,
	}

	if err := s.validate(ctx, match); err != nil {
		return nil, err
	}

	if err := s.repo.CreateMatch(ctx, match); err != nil {
		return nil, s.storeError(ctx, "create match", err)
	}

	created, err := s.repo.GetMatch(ctx, match.ID)
	if err != nil {
		return nil, internal(ctx, "reload match", err)
	}

	s.metrics.Write("match", "create")
	zerolog.Ctx(ctx).Info().Uint("match_id", created.ID).Str("fixture", created.String()).Msg("match created")
	return created, nil
}

// UpdateMatch replaces the editable fields of a match owned by actorID.
// A change to the result or status resets the points of its predictions.
func (s *MatchService) UpdateMatch(ctx context.Context, actorID, id uint, in MatchUpdate) (*models.Match, error) {
	match, err := s.repo.GetOwnedMatch(ctx, id, actorID)
	if err != nil {
		return nil, s.storeError(ctx, "load match", err)
	}

	status := in.Status
	if status == "" {
		status = match.Status
	}
	resultChanged := status != match.Status ||
		!sameScore(match.HomeScore, in.HomeScore) ||
		!sameScore(match.AwayScore, in.AwayScore)

	match.KickoffAt = in.KickoffAt.UTC()
	match.Venue = strings.TrimSpace(in.Venue)
	match.Status = status
	match.HomeScore = in.HomeScore
	match.AwayScore = in.AwayScore
	if err := s.validate(ctx, match); err != nil {
		return nil, err
	}

	var updated *models.Match
	err = s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		var err error
		updated, err = tx.UpdateMatch(ctx, id, map[string]interface{}{
			"kickoff_at": match.KickoffAt,
			"venue":      match.Venue,
			"status":     match.Status,
			"home_score": match.HomeScore,
			"away_score": match.AwayScore,
		})
		if err != nil {
			return err
		}
		if resultChanged {
			return tx.ClearResultPoints(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, s.storeError(ctx, "update match", err)
	}

	s.metrics.Write("match", "update")
	return updated, nil
}

// DeleteMatch removes a match owned by actorID together with its
// predictions.
func (s *MatchService) DeleteMatch(ctx context.Context, actorID, id uint) error {
	if _, err := s.repo.GetOwnedMatch(ctx, id, actorID); err != nil {
		return s.storeError(ctx, "load match", err)
	}
	if err := s.repo.DeleteMatch(ctx, id); err != nil {
		return s.storeError(ctx, "delete match", err)
	}
	s.metrics.Write("match", "delete")
	zerolog.Ctx(ctx).Info().Uint("match_id", id).Msg("match deleted")
	return nil
}

// validate runs the match rules and checks both teams exist.
func (s *MatchService) validate(ctx context.Context, match *models.Match) error {
	if err := validation.ValidateMatch(match); err != nil {
		s.metrics.Rejected("match", rejectionReason(err))
		return err
	}
	for _, side := range []struct {
		field string
		id    uint
	}{{"home_team_id", match.HomeTeamID}, {"away_team_id", match.AwayTeamID}} {
		if _, err := s.repo.GetTeam(ctx, side.id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.metrics.Rejected("match", string(validation.UnknownTeam))
				return &validation.MatchError{Reason: validation.UnknownTeam, Field: side.field}
			}
			return internal(ctx, "load team", err)
		}
	}
	return nil
}

// storeError maps store failures on match writes.
func (s *MatchService) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	var cv *repository.ConstraintViolation
	if errors.As(err, &cv) {
		switch {
		case cv.On("home_team_id", "away_team_id", "kickoff_at"):
			s.metrics.Rejected("match", "duplicate_fixture")
			return &validation.FieldError{Field: "kickoff_at", Message: "these teams already play each other at this kickoff", Reason: validation.Duplicate}
		case cv.Kind == repository.CheckViolation && cv.Rule == "chk_matches_distinct_teams":
			return &validation.MatchError{Reason: validation.SameTeam, Field: "away_team_id"}
		case cv.Kind == repository.CheckViolation && cv.Rule == "chk_matches_status":
			return &validation.MatchError{Reason: validation.InvalidStatus, Field: "status"}
		case cv.Kind == repository.CheckViolation && cv.Rule == "chk_matches_home_score":
			return &validation.FieldError{Field: "home_score", Message: "must not be negative"}
		case cv.Kind == repository.CheckViolation && cv.Rule == "chk_matches_away_score":
			return &validation.FieldError{Field: "away_score", Message: "must not be negative"}
		case cv.Kind == repository.ReferentialViolation:
			return &validation.MatchError{Reason: validation.UnknownTeam, Field: "home_team_id"}
		}
	}
	return internal(ctx, op, err)
}

func sameScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
