package repository

import (
	"context"

	"matchday/internal/models"
	"matchday/internal/policy"

	"gorm.io/gorm/clause"
)

// PredictionFilter narrows ListPredictions.
type PredictionFilter struct {
	MatchID uint
	UserID  *uint
	Page
}

// CreatePrediction persists a new prediction. A second prediction for the
// same (user, match) fails with a UniqueViolation on user_id, match_id.
func (r *Repository) CreatePrediction(ctx context.Context, prediction *models.Prediction) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(prediction).Error)
}

// GetPrediction retrieves a prediction with its match and teams
func (r *Repository) GetPrediction(ctx context.Context, id uint) (*models.Prediction, error) {
	var prediction models.Prediction
	err := r.db.WithContext(ctx).
		Preload("Match.HomeTeam").
		Preload("Match.AwayTeam").
		Preload("User").
		First(&prediction, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &prediction, nil
}

// GetOwnedPrediction retrieves a prediction only if actorID made it.
func (r *Repository) GetOwnedPrediction(ctx context.Context, id, actorID uint) (*models.Prediction, error) {
	var prediction models.Prediction
	err := r.db.WithContext(ctx).
		Scopes(policy.OwnedBy(policy.OwnerColumn["predictions"], actorID)).
		First(&prediction, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &prediction, nil
}

// FindUserPrediction returns the user's prediction for a match, or
// ErrNotFound.
func (r *Repository) FindUserPrediction(ctx context.Context, userID, matchID uint) (*models.Prediction, error) {
	var prediction models.Prediction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND match_id = ?", userID, matchID).
		First(&prediction).Error
	if err != nil {
		return nil, translate(err)
	}
	return &prediction, nil
}

// ListPredictions returns predictions newest first
func (r *Repository) ListPredictions(ctx context.Context, f PredictionFilter) ([]models.Prediction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Prediction{})
	if f.MatchID != 0 {
		query = query.Where("match_id = ?", f.MatchID)
	}
	if f.UserID != nil {
		query = query.Scopes(policy.OwnedBy(policy.OwnerColumn["predictions"], *f.UserID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var predictions []models.Prediction
	err := f.Page.apply(query).
		Preload("Match.HomeTeam").
		Preload("Match.AwayTeam").
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&predictions).Error
	if err != nil {
		return nil, 0, err
	}
	return predictions, total, nil
}

// UpdatePrediction applies a column patch to a prediction
func (r *Repository) UpdatePrediction(ctx context.Context, id uint, patch map[string]interface{}) (*models.Prediction, error) {
	if err := r.update(ctx, &models.Prediction{}, id, patch); err != nil {
		return nil, err
	}
	return r.GetPrediction(ctx, id)
}

// DeletePrediction removes a prediction
func (r *Repository) DeletePrediction(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Prediction{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUnscoredPredictions returns the match's predictions without points.
func (r *Repository) GetUnscoredPredictions(ctx context.Context, matchID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND result_points IS NULL", matchID).
		Order("id ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

// SetResultPoints records the points awarded to one prediction, computed
// against the given final result. The write only lands while the
// prediction is unscored and the match still carries that result; it
// reports false when either changed in the meantime.
func (r *Repository) SetResultPoints(ctx context.Context, id uint, match *models.Match, points float64) (bool, error) {
	if match.HomeScore == nil || match.AwayScore == nil {
		return false, nil
	}
	current := r.db.Model(&models.Match{}).
		Select("id").
		Where("id = ? AND status = ? AND home_score = ? AND away_score = ?",
			match.ID, match.Status, *match.HomeScore, *match.AwayScore)

	res := r.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("id = ? AND result_points IS NULL AND match_id IN (?)", id, current).
		Update("result_points", points)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ClearResultPoints resets the points of every prediction on the match so
// the scoring job picks them up again.
func (r *Repository) ClearResultPoints(ctx context.Context, matchID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("match_id = ? AND result_points IS NOT NULL", matchID).
		Update("result_points", nil).Error
}
