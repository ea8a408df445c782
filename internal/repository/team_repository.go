package repository

import (
	"context"
	"strings"

	"matchday/internal/models"
	"matchday/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeamFilter narrows ListTeams.
type TeamFilter struct {
	Name    string // case-insensitive substring
	OwnerID *uint
	Page
}

// CreateTeam persists a new team
func (r *Repository) CreateTeam(ctx context.Context, team *models.Team) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(team).Error)
}

// GetTeam retrieves a team by ID
func (r *Repository) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, translate(err)
	}
	return &team, nil
}

// GetOwnedTeam retrieves a team only if actorID created it.
func (r *Repository) GetOwnedTeam(ctx context.Context, id, actorID uint) (*models.Team, error) {
	var team models.Team
	err := r.db.WithContext(ctx).
		Scopes(policy.OwnedBy(policy.OwnerColumn["teams"], actorID)).
		First(&team, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &team, nil
}

// ListTeams returns teams ordered by name
func (r *Repository) ListTeams(ctx context.Context, f TeamFilter) ([]models.Team, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Team{})
	if f.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.OwnerID != nil {
		query = query.Scopes(policy.OwnedBy(policy.OwnerColumn["teams"], *f.OwnerID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teams []models.Team
	if err := f.Page.apply(query).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

// UpdateTeam applies a column patch to a team
func (r *Repository) UpdateTeam(ctx context.Context, id uint, patch map[string]interface{}) (*models.Team, error) {
	if err := r.update(ctx, &models.Team{}, id, patch); err != nil {
		return nil, err
	}
	return r.GetTeam(ctx, id)
}

// DeleteTeam removes a team. Matches protect the teams they reference, so
// a team still on any fixture yields a ReferentialBlock listing them.
func (r *Repository) DeleteTeam(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteWithPolicy(tx, "teams", &models.Team{}, id)
	})
}

// GetMatchesForTeam returns every match the team plays in, home or away.
func (r *Repository) GetMatchesForTeam(ctx context.Context, teamID uint) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).
		Preload("HomeTeam").
		Preload("AwayTeam").
		Where("home_team_id = ? OR away_team_id = ?", teamID, teamID).
		Order("kickoff_at ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// GetMatchesByIDs loads matches with their teams, ordered by kickoff.
func (r *Repository) GetMatchesByIDs(ctx context.Context, ids []uint) ([]models.Match, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var matches []models.Match
	err := r.db.WithContext(ctx).
		Preload("HomeTeam").
		Preload("AwayTeam").
		Where("id IN ?", ids).
		Order("kickoff_at ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}
