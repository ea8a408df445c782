package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"matchday/internal/models"
	"matchday/internal/repository"

	"github.com/rs/zerolog"
)

// ErrInternal wraps store failures that have no user-facing meaning.
// Callers should show a generic message; the cause is logged.
var ErrInternal = errors.New("internal error")

// ErrNotFound is the record-level miss surfaced to callers. It also covers
// records the actor does not own.
var ErrNotFound = repository.ErrNotFound

// ErrInvalidCredentials is returned by Login for any username/password
// mismatch.
var ErrInvalidCredentials = errors.New("invalid username or password")

// BlockedDelete reports a team that cannot be deleted because matches
// still reference it.
type BlockedDelete struct {
	Team            *models.Team
	BlockingMatches []models.Match
}

func (e *BlockedDelete) Error() string {
	fixtures := make([]string, len(e.BlockingMatches))
	for i := range e.BlockingMatches {
		fixtures[i] = e.BlockingMatches[i].String()
	}
	return fmt.Sprintf("team %q is used by %d match(es): %s",
		e.Team.Name, len(e.BlockingMatches), strings.Join(fixtures, "; "))
}

// internal logs err and hides it behind ErrInternal.
func internal(ctx context.Context, op string, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("unexpected store failure")
	return fmt.Errorf("%w: %s", ErrInternal, op)
}
