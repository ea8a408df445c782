package validation

import (
	"errors"
	"math"
	"testing"

	"matchday/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func u(v uint) *uint       { return &v }

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var pe *PredictionError
	require.True(t, errors.As(err, &pe), "expected PredictionError, got %v", err)
	return pe.Reason
}

func TestValidateMatchSameTeam(t *testing.T) {
	for home := uint(1); home <= 4; home++ {
		for away := uint(1); away <= 4; away++ {
			err := ValidateMatch(&models.Match{HomeTeamID: home, AwayTeamID: away, Status: models.MatchStatusScheduled})
			if home == away {
				var me *MatchError
				require.ErrorAs(t, err, &me)
				assert.Equal(t, SameTeam, me.Reason)
			} else {
				assert.NoError(t, err)
			}
		}
	}
}

func TestValidateMatchFields(t *testing.T) {
	neg := -1

	var me *MatchError
	require.ErrorAs(t, ValidateMatch(&models.Match{HomeTeamID: 1, AwayTeamID: 2, Status: "HALF_TIME"}), &me)
	assert.Equal(t, InvalidStatus, me.Reason)

	var fe *FieldError
	require.ErrorAs(t, ValidateMatch(&models.Match{HomeTeamID: 1, AwayTeamID: 2, HomeScore: &neg}), &fe)
	assert.Equal(t, "home_score", fe.Field)

	assert.NoError(t, ValidateMatch(&models.Match{HomeTeamID: 1, AwayTeamID: 2}), "empty status takes the default")
}

func TestValidateTeam(t *testing.T) {
	neg := -5
	tests := []struct {
		name  string
		team  models.Team
		field string
	}{
		{"ok", models.Team{Name: "Red"}, ""},
		{"blank name", models.Team{Name: "   "}, "name"},
		{"long short code", models.Team{Name: "Red", ShortCode: "ABCDEFGHIJK"}, "short_code"},
		{"negative year", models.Team{Name: "Red", FoundedYear: &neg}, "founded_year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTeam(&tt.team)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestPredictionWithoutProbabilities(t *testing.T) {
	for _, pick := range []models.Pick{models.PickHome, models.PickDraw, models.PickAway} {
		err := ValidatePrediction(&models.Prediction{MatchID: 1, Pick: pick}, 7, nil, DefaultRules())
		assert.NoError(t, err, pick)
	}
}

func TestPredictionInvalidPick(t *testing.T) {
	err := ValidatePrediction(&models.Prediction{MatchID: 1, Pick: "WIN"}, 7, nil, DefaultRules())
	assert.Equal(t, InvalidPick, reasonOf(t, err))
}

// Walks every triple on a 0.01 grid whose sum lands in [0.90, 1.10].
func TestPredictionProbabilitySumBand(t *testing.T) {
	rules := DefaultRules()
	for h := 0; h <= 100; h += 5 {
		for d := 0; d <= 100-h; d += 5 {
			for total := 90; total <= 110; total++ {
				a := total - h - d
				if a < 0 || a > 100 {
					continue
				}
				p := &models.Prediction{
					MatchID: 1,
					Pick:    models.PickHome,
					PHome:   f(float64(h) / 100),
					PDraw:   f(float64(d) / 100),
					PAway:   f(float64(a) / 100),
				}
				err := ValidatePrediction(p, 7, nil, rules)
				if total >= 95 && total <= 105 {
					assert.NoError(t, err, "h=%d d=%d a=%d", h, d, a)
				} else {
					assert.Equal(t, ProbabilitySum, reasonOf(t, err), "h=%d d=%d a=%d", h, d, a)
				}
			}
		}
	}
}

func TestPredictionBandEdges(t *testing.T) {
	rules := DefaultRules()

	edges := []struct {
		home, draw, away float64
		ok               bool
	}{
		{0.5, 0.3, 0.15, true},  // 0.95
		{0.5, 0.3, 0.25, true},  // 1.05
		{0.5, 0.3, 0.149, false},
		{0.5, 0.3, 0.251, false},
		{0.6, 0.3, 0.1, true},
	}
	for _, e := range edges {
		err := ValidatePrediction(&models.Prediction{
			MatchID: 1, Pick: models.PickDraw,
			PHome: f(e.home), PDraw: f(e.draw), PAway: f(e.away),
		}, 7, nil, rules)
		if e.ok {
			assert.NoError(t, err, e)
		} else {
			assert.Equal(t, ProbabilitySum, reasonOf(t, err), e)
		}
	}
}

func TestPredictionMissingProbabilityCountsAsZero(t *testing.T) {
	err := ValidatePrediction(&models.Prediction{MatchID: 1, Pick: models.PickHome, PHome: f(1)}, 7, nil, DefaultRules())
	assert.NoError(t, err)

	err = ValidatePrediction(&models.Prediction{MatchID: 1, Pick: models.PickHome, PHome: f(0.6)}, 7, nil, DefaultRules())
	require.Error(t, err)
	var pe *PredictionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ProbabilitySum, pe.Reason)
	assert.True(t, pe.Sum.Equal(decimal.RequireFromString("0.6")))
}

func TestPredictionProbabilityRange(t *testing.T) {
	tests := []struct {
		name  string
		p     models.Prediction
		field string
	}{
		// sum is 1.0 but p_away is negative
		{"negative", models.Prediction{PHome: f(0.7), PDraw: f(0.4), PAway: f(-0.1)}, "p_away"},
		{"above one", models.Prediction{PHome: f(1.2), PDraw: f(-0.1), PAway: f(-0.1)}, "p_home"},
		{"nan", models.Prediction{PHome: f(math.NaN())}, "p_home"},
		{"inf", models.Prediction{PDraw: f(math.Inf(1))}, "p_draw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.MatchID = 1
			tt.p.Pick = models.PickHome
			err := ValidatePrediction(&tt.p, 7, nil, DefaultRules())
			var pe *PredictionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ProbabilityRange, pe.Reason)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestPredictionDuplicate(t *testing.T) {
	existing := []models.Prediction{{ID: 10, MatchID: 1, UserID: u(7), Pick: models.PickHome}}

	err := ValidatePrediction(&models.Prediction{MatchID: 1, Pick: models.PickAway}, 7, existing, DefaultRules())
	assert.Equal(t, DuplicateForUserAndMatch, reasonOf(t, err))

	// same record being updated
	err = ValidatePrediction(&models.Prediction{ID: 10, MatchID: 1, Pick: models.PickAway}, 7, existing, DefaultRules())
	assert.NoError(t, err)

	// other match, other user
	assert.NoError(t, ValidatePrediction(&models.Prediction{MatchID: 2, Pick: models.PickAway}, 7, existing, DefaultRules()))
	assert.NoError(t, ValidatePrediction(&models.Prediction{MatchID: 1, Pick: models.PickAway}, 8, existing, DefaultRules()))
}

func TestPredictionProbabilityBeforeDuplicate(t *testing.T) {
	existing := []models.Prediction{{ID: 10, MatchID: 1, UserID: u(7), Pick: models.PickHome}}

	err := ValidatePrediction(&models.Prediction{
		MatchID: 1, Pick: models.PickHome, PHome: f(0.2), PDraw: f(0.2), PAway: f(0.2),
	}, 7, existing, DefaultRules())
	assert.Equal(t, ProbabilitySum, reasonOf(t, err))
}

func TestPredictionCustomTolerance(t *testing.T) {
	rules := Rules{ProbabilityTolerance: decimal.RequireFromString("0.1")}
	p := &models.Prediction{MatchID: 1, Pick: models.PickHome, PHome: f(0.5), PDraw: f(0.3), PAway: f(0.1)}

	assert.NoError(t, ValidatePrediction(p, 7, nil, rules))
	assert.Error(t, ValidatePrediction(p, 7, nil, DefaultRules()))
}
