package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslatePostgres(t *testing.T) {
	tests := []struct {
		name   string
		err    *pgconn.PgError
		kind   ConstraintKind
		fields []string
		rule   string
	}{
		{
			name:   "prediction unique",
			err:    &pgconn.PgError{Code: "23505", TableName: "predictions", ConstraintName: "idx_predictions_user_match"},
			kind:   UniqueViolation,
			fields: []string{"user_id", "match_id"},
		},
		{
			name: "distinct teams check",
			err:  &pgconn.PgError{Code: "23514", TableName: "matches", ConstraintName: "chk_matches_distinct_teams"},
			kind: CheckViolation,
			rule: "chk_matches_distinct_teams",
		},
		{
			name: "restricted team delete",
			err:  &pgconn.PgError{Code: "23503", TableName: "matches", ConstraintName: "fk_matches_home_team"},
			kind: ReferentialViolation,
			rule: "fk_matches_home_team",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(fmt.Errorf("wrapped: %w", tt.err))

			var cv *ConstraintViolation
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, tt.kind, cv.Kind)
			assert.Equal(t, tt.fields, cv.Fields)
			assert.Equal(t, tt.rule, cv.Rule)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTranslateSQLiteMessages(t *testing.T) {
	err := translate(errors.New("UNIQUE constraint failed: predictions.user_id, predictions.match_id"))
	var cv *ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "predictions", cv.Table)
	assert.True(t, cv.On("match_id", "user_id"))
	assert.False(t, cv.On("user_id"))

	err = translate(errors.New("CHECK constraint failed: chk_predictions_pick"))
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, CheckViolation, cv.Kind)
	assert.Equal(t, "chk_predictions_pick", cv.Rule)

	err = translate(errors.New("FOREIGN KEY constraint failed"))
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, ReferentialViolation, cv.Kind)
}

func TestTranslatePassThrough(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)

	plain := errors.New("connection refused")
	assert.Equal(t, plain, translate(plain))
}
