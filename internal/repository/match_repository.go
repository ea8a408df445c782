package repository

import (
	"context"
	"time"

	"matchday/internal/models"
	"matchday/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchFilter narrows ListMatches.
type MatchFilter struct {
	Status  models.MatchStatus
	TeamID  uint // home or away
	From    *time.Time
	To      *time.Time
	OwnerID *uint
	Page
}

// CreateMatch persists a new match
func (r *Repository) CreateMatch(ctx context.Context, match *models.Match) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(match).Error)
}

// GetMatch retrieves a match with both teams loaded
func (r *Repository) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Preload("HomeTeam").
		Preload("AwayTeam").
		First(&match, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

// GetOwnedMatch retrieves a match only if actorID created it.
func (r *Repository) GetOwnedMatch(ctx context.Context, id, actorID uint) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Scopes(policy.OwnedBy(policy.OwnerColumn["matches"], actorID)).
		Preload("HomeTeam").
		Preload("AwayTeam").
		First(&match, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

// ListMatches returns matches ordered by kickoff
func (r *Repository) ListMatches(ctx context.Context, f MatchFilter) ([]models.Match, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Match{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.TeamID != 0 {
		query = query.Where("home_team_id = ? OR away_team_id = ?", f.TeamID, f.TeamID)
	}
	if f.From != nil {
		query = query.Where("kickoff_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("kickoff_at < ?", *f.To)
	}
	if f.OwnerID != nil {
		query = query.Scopes(policy.OwnedBy(policy.OwnerColumn["matches"], *f.OwnerID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var matches []models.Match
	err := f.Page.apply(query).
		Preload("HomeTeam").
		Preload("AwayTeam").
		Order("kickoff_at ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

// UpdateMatch applies a column patch to a match
func (r *Repository) UpdateMatch(ctx context.Context, id uint, patch map[string]interface{}) (*models.Match, error) {
	if err := r.update(ctx, &models.Match{}, id, patch); err != nil {
		return nil, err
	}
	return r.GetMatch(ctx, id)
}

// DeleteMatch removes a match and, per the delete policy, its predictions.
func (r *Repository) DeleteMatch(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteWithPolicy(tx, "matches", &models.Match{}, id)
	})
}

// CountPredictions returns how many predictions reference the match.
func (r *Repository) CountPredictions(ctx context.Context, matchID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Prediction{}).Where("match_id = ?", matchID).Count(&count).Error
	return count, err
}

// GetScoreableMatches returns full-time matches with both scores that still
// have unscored predictions.
func (r *Repository) GetScoreableMatches(ctx context.Context, limit int) ([]models.Match, error) {
	unscored := r.db.Model(&models.Prediction{}).Select("match_id").Where("result_points IS NULL")

	var matches []models.Match
	err := r.db.WithContext(ctx).
		Where("status = ? AND home_score IS NOT NULL AND away_score IS NOT NULL", models.MatchStatusFullTime).
		Where("id IN (?)", unscored).
		Order("kickoff_at ASC, id ASC").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}
