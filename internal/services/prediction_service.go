package services

import (
	"context"
	"errors"

	"matchday/internal/metrics"
	"matchday/internal/models"
	"matchday/internal/repository"
	"matchday/internal/validation"

	"github.com/rs/zerolog"
)

// PredictionInput creates a prediction.
type PredictionInput struct {
	MatchID uint
	Pick    models.Pick
	PHome   *float64
	PDraw   *float64
	PAway   *float64
}

// PredictionUpdate replaces the pick and probabilities of a prediction.
// The match cannot be changed.
type PredictionUpdate struct {
	Pick  models.Pick
	PHome *float64
	PDraw *float64
	PAway *float64
}

// PredictionService handles prediction business logic
type PredictionService struct {
	repo    *repository.Repository
	rules   validation.Rules
	metrics *metrics.Metrics
}

// NewPredictionService creates a new PredictionService
func NewPredictionService(repo *repository.Repository, rules validation.Rules, m *metrics.Metrics) *PredictionService {
	return &PredictionService{repo: repo, rules: rules, metrics: m}
}

// GetPrediction returns any prediction.
func (s *PredictionService) GetPrediction(ctx context.Context, id uint) (*models.Prediction, error) {
	prediction, err := s.repo.GetPrediction(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get prediction", err)
	}
	return prediction, nil
}

// ListPredictions returns predictions newest first.
func (s *PredictionService) ListPredictions(ctx context.Context, filter repository.PredictionFilter) ([]models.Prediction, int64, error) {
	predictions, total, err := s.repo.ListPredictions(ctx, filter)
	if err != nil {
		return nil, 0, internal(ctx, "list predictions", err)
	}
	return predictions, total, nil
}

// CreatePrediction records actorID's prediction for a match. At most one
// prediction per user and match is accepted; a concurrent duplicate that
// slips past validation is reported the same way.
func (s *PredictionService) CreatePrediction(ctx context.Context, actorID uint, in PredictionInput) (*models.Prediction, error) {
	candidate := &models.Prediction{
		MatchID: in.MatchID,
		UserID:  &actorID,
		Pick:    in.Pick,
		PHome:   in.PHome,
		PDraw:   in.PDraw,
		PAway:   in.PAway,
	}

	if _, err := s.repo.GetMatch(ctx, in.MatchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &validation.FieldError{Field: "match_id", Message: "match does not exist"}
		}
		return nil, internal(ctx, "load match", err)
	}

	existing, err := s.existingFor(ctx, actorID, in.MatchID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePrediction(candidate, actorID, existing, s.rules); err != nil {
		s.metrics.Rejected("prediction", rejectionReason(err))
		return nil, err
	}

	if err := s.repo.CreatePrediction(ctx, candidate); err != nil {
		return nil, s.storeError(ctx, "create prediction", err)
	}

	created, err := s.repo.GetPrediction(ctx, candidate.ID)
	if err != nil {
		return nil, internal(ctx, "reload prediction", err)
	}

	s.metrics.Write("prediction", "create")
	zerolog.Ctx(ctx).Info().
		Uint("prediction_id", created.ID).
		Uint("match_id", created.MatchID).
		Str("pick", string(created.Pick)).
		Msg("prediction created")
	return created, nil
}

// UpdatePrediction changes the pick and probabilities of a prediction
// owned by actorID. Points already awarded are cleared.
func (s *PredictionService) UpdatePrediction(ctx context.Context, actorID, id uint, in PredictionUpdate) (*models.Prediction, error) {
	current, err := s.repo.GetOwnedPrediction(ctx, id, actorID)
	if err != nil {
		return nil, s.storeError(ctx, "load prediction", err)
	}

	candidate := &models.Prediction{
		ID:      current.ID,
		MatchID: current.MatchID,
		UserID:  current.UserID,
		Pick:    in.Pick,
		PHome:   in.PHome,
		PDraw:   in.PDraw,
		PAway:   in.PAway,
	}

	existing, err := s.existingFor(ctx, actorID, current.MatchID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePrediction(candidate, actorID, existing, s.rules); err != nil {
		s.metrics.Rejected("prediction", rejectionReason(err))
		return nil, err
	}

	updated, err := s.repo.UpdatePrediction(ctx, id, map[string]interface{}{
		"pick":          candidate.Pick,
		"p_home":        candidate.PHome,
		"p_draw":        candidate.PDraw,
		"p_away":        candidate.PAway,
		"result_points": nil,
	})
	if err != nil {
		return nil, s.storeError(ctx, "update prediction", err)
	}

	s.metrics.Write("prediction", "update")
	return updated, nil
}

// DeletePrediction removes a prediction owned by actorID.
func (s *PredictionService) DeletePrediction(ctx context.Context, actorID, id uint) error {
	if _, err := s.repo.GetOwnedPrediction(ctx, id, actorID); err != nil {
		return s.storeError(ctx, "load prediction", err)
	}
	if err := s.repo.DeletePrediction(ctx, id); err != nil {
		return s.storeError(ctx, "delete prediction", err)
	}
	s.metrics.Write("prediction", "delete")
	return nil
}

func (s *PredictionService) existingFor(ctx context.Context, actorID, matchID uint) ([]models.Prediction, error) {
	found, err := s.repo.FindUserPrediction(ctx, actorID, matchID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(ctx, "find user prediction", err)
	}
	return []models.Prediction{*found}, nil
}

// storeError maps store failures on prediction writes.
func (s *PredictionService) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	var cv *repository.ConstraintViolation
	if errors.As(err, &cv) {
		switch {
		case cv.On("user_id", "match_id"):
			s.metrics.Rejected("prediction", string(validation.DuplicateForUserAndMatch))
			zerolog.Ctx(ctx).Info().Msg("duplicate prediction rejected by store")
			return &validation.PredictionError{Reason: validation.DuplicateForUserAndMatch, Field: "match_id"}
		case cv.Kind == repository.CheckViolation:
			switch cv.Rule {
			case "chk_predictions_p_home":
				return &validation.PredictionError{Reason: validation.ProbabilityRange, Field: "p_home"}
			case "chk_predictions_p_draw":
				return &validation.PredictionError{Reason: validation.ProbabilityRange, Field: "p_draw"}
			case "chk_predictions_p_away":
				return &validation.PredictionError{Reason: validation.ProbabilityRange, Field: "p_away"}
			case "chk_predictions_pick":
				return &validation.PredictionError{Reason: validation.InvalidPick, Field: "pick"}
			}
		case cv.Kind == repository.ReferentialViolation:
			return &validation.FieldError{Field: "match_id", Message: "match does not exist"}
		}
	}
	return internal(ctx, op, err)
}
