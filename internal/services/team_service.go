package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"matchday/internal/metrics"
	"matchday/internal/models"
	"matchday/internal/repository"
	"matchday/internal/storage"
	"matchday/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TeamInput is the editable part of a team. Updates replace all of it.
type TeamInput struct {
	Name        string
	ShortCode   string
	FoundedYear *int
}

// LogoUpload is an image file submitted for a team.
type LogoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ErrLogoTooLarge and ErrLogoType reject uploads before they reach storage.
var (
	ErrLogoTooLarge = errors.New("logo exceeds the size limit")
	ErrLogoType     = errors.New("logo must be an image")
)

// TeamService handles team business logic
type TeamService struct {
	repo         *repository.Repository
	store        storage.Store
	metrics      *metrics.Metrics
	maxLogoBytes int64
}

// NewTeamService creates a new TeamService
func NewTeamService(repo *repository.Repository, store storage.Store, m *metrics.Metrics, maxLogoBytes int64) *TeamService {
	return &TeamService{repo: repo, store: store, metrics: m, maxLogoBytes: maxLogoBytes}
}

// GetTeam returns any team; read access is not owner-scoped.
func (s *TeamService) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	team, err := s.repo.GetTeam(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get team", err)
	}
	return s.decorate(team), nil
}

// ListTeams returns teams matching the filter, ordered by name.
func (s *TeamService) ListTeams(ctx context.Context, filter repository.TeamFilter) ([]models.Team, int64, error) {
	teams, total, err := s.repo.ListTeams(ctx, filter)
	if err != nil {
		return nil, 0, internal(ctx, "list teams", err)
	}
	for i := range teams {
		s.decorate(&teams[i])
	}
	return teams, total, nil
}

// CreateTeam creates a team owned by actorID.
func (s *TeamService) CreateTeam(ctx context.Context, actorID uint, in TeamInput) (*models.Team, error) {
	team := &models.Team{
		Name:        strings.TrimSpace(in.Name),
		ShortCode:   strings.TrimSpace(in.ShortCode),
		FoundedYear: in.FoundedYear,
		CreatedByID: &actorID,
	}
	if err := validation.ValidateTeam(team); err != nil {
		s.metrics.Rejected("team", rejectionReason(err))
		return nil, err
	}

	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, s.storeError(ctx, "create team", err)
	}

	s.metrics.Write("team", "create")
	zerolog.Ctx(ctx).Info().Uint("team_id", team.ID).Str("name", team.Name).Msg("team created")
	return s.decorate(team), nil
}

// UpdateTeam replaces the editable fields of a team owned by actorID.
func (s *TeamService) UpdateTeam(ctx context.Context, actorID, id uint, in TeamInput) (*models.Team, error) {
	team, err := s.repo.GetOwnedTeam(ctx, id, actorID)
	if err != nil {
		return nil, s.storeError(ctx, "load team", err)
	}

	team.Name = strings.TrimSpace(in.Name)
	team.ShortCode = strings.TrimSpace(in.ShortCode)
	team.FoundedYear = in.FoundedYear
	if err := validation.ValidateTeam(team); err != nil {
		s.metrics.Rejected("team", rejectionReason(err))
		return nil, err
	}

	updated, err := s.repo.UpdateTeam(ctx, id, map[string]interface{}{
		"name":         team.Name,
		"short_code":   team.ShortCode,
		"founded_year": team.FoundedYear,
	})
	if err != nil {
		return nil, s.storeError(ctx, "update team", err)
	}

	s.metrics.Write("team", "update")
	return s.decorate(updated), nil
}

// DeleteTeam deletes a team owned by actorID. A team still referenced by
// matches is kept and a *BlockedDelete lists those matches.
func (s *TeamService) DeleteTeam(ctx context.Context, actorID, id uint) error {
	team, err := s.repo.GetOwnedTeam(ctx, id, actorID)
	if err != nil {
		return s.storeError(ctx, "load team", err)
	}

	err = s.repo.DeleteTeam(ctx, id)
	var block *repository.ReferentialBlock
	if errors.As(err, &block) {
		matches, lerr := s.repo.GetMatchesByIDs(ctx, block.IDs)
		if lerr != nil {
			return internal(ctx, "load blocking matches", lerr)
		}
		s.metrics.BlockedDelete()
		zerolog.Ctx(ctx).Info().Uint("team_id", id).Uints("match_ids", block.IDs).Msg("team delete blocked")
		return &BlockedDelete{Team: team, BlockingMatches: matches}
	}
	if err != nil {
		return s.storeError(ctx, "delete team", err)
	}

	s.metrics.Write("team", "delete")
	s.removeLogo(ctx, team.Logo)
	return nil
}

// UploadLogo stores an image and points the team at it. The previous logo,
// if any, is removed from storage.
func (s *TeamService) UploadLogo(ctx context.Context, actorID, id uint, upload LogoUpload) (*models.Team, error) {
	team, err := s.repo.GetOwnedTeam(ctx, id, actorID)
	if err != nil {
		return nil, s.storeError(ctx, "load team", err)
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, ErrLogoType
	}
	if s.maxLogoBytes > 0 && upload.Size > s.maxLogoBytes {
		return nil, ErrLogoTooLarge
	}

	body := upload.Body
	if s.maxLogoBytes > 0 {
		body = io.LimitReader(body, s.maxLogoBytes+1)
	}
	key := fmt.Sprintf("teams/%d/%s%s", team.ID, uuid.NewString(), strings.ToLower(path.Ext(upload.Filename)))
	info, err := s.store.Put(ctx, key, body, storage.PutOptions{ContentType: upload.ContentType})
	if err != nil {
		return nil, internal(ctx, "store logo", err)
	}
	if s.maxLogoBytes > 0 && info.Size > s.maxLogoBytes {
		s.removeLogo(ctx, key)
		return nil, ErrLogoTooLarge
	}

	updated, err := s.repo.UpdateTeam(ctx, id, map[string]interface{}{"logo": key})
	if err != nil {
		s.removeLogo(ctx, key)
		return nil, s.storeError(ctx, "update team logo", err)
	}

	s.removeLogo(ctx, team.Logo)
	s.metrics.Write("team", "logo")
	return s.decorate(updated), nil
}

func (s *TeamService) removeLogo(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to remove logo")
	}
}

func (s *TeamService) decorate(team *models.Team) *models.Team {
	if team.Logo != "" && s.store != nil {
		team.LogoURL = s.store.URL(team.Logo)
	}
	return team
}

// storeError maps store failures on team writes.
func (s *TeamService) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	var cv *repository.ConstraintViolation
	if errors.As(err, &cv) {
		switch {
		case cv.On("name"):
			s.metrics.Rejected("team", "name_taken")
			return &validation.FieldError{Field: "name", Message: "a team with this name already exists", Reason: validation.Duplicate}
		case cv.Kind == repository.CheckViolation && cv.Rule == "chk_teams_founded_year":
			return &validation.FieldError{Field: "founded_year", Message: "must not be negative"}
		}
	}
	return internal(ctx, op, err)
}

// rejectionReason labels a validation error for metrics.
func rejectionReason(err error) string {
	var me *validation.MatchError
	var pe *validation.PredictionError
	var fe *validation.FieldError
	switch {
	case errors.As(err, &me):
		return string(me.Reason)
	case errors.As(err, &pe):
		return string(pe.Reason)
	case errors.As(err, &fe):
		return fe.Field
	}
	return "other"
}
