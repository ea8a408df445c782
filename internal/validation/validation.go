// Package validation holds the pure write rules for teams, matches and
// predictions. Nothing here touches the store; cross-record state is
// passed in by the caller.
package validation

import (
	"strings"
	"unicode/utf8"

	"matchday/internal/models"

	"github.com/shopspring/decimal"
)

const (
	maxTeamNameLen  = 120
	maxShortCodeLen = 10
	maxLogoLen      = 255
	maxVenueLen     = 120
)

// DefaultTolerance is the accepted distance of a probability sum from 1.0.
var DefaultTolerance = decimal.RequireFromString("0.05")

var one = decimal.NewFromInt(1)

// Rules carries the tunable thresholds.
type Rules struct {
	ProbabilityTolerance decimal.Decimal
}

// DefaultRules returns Rules with DefaultTolerance.
func DefaultRules() Rules {
	return Rules{ProbabilityTolerance: DefaultTolerance}
}

// ValidateTeam checks the team's own fields.
func ValidateTeam(team *models.Team) error {
	name := strings.TrimSpace(team.Name)
	if name == "" {
		return &FieldError{Field: "name", Message: "this field is required"}
	}
	if utf8.RuneCountInString(name) > maxTeamNameLen {
		return &FieldError{Field: "name", Message: "must be at most 120 characters"}
	}
	if utf8.RuneCountInString(team.ShortCode) > maxShortCodeLen {
		return &FieldError{Field: "short_code", Message: "must be at most 10 characters"}
	}
	if team.FoundedYear != nil && *team.FoundedYear < 0 {
		return &FieldError{Field: "founded_year", Message: "must not be negative"}
	}
	if len(team.Logo) > maxLogoLen {
		return &FieldError{Field: "logo", Message: "reference is too long"}
	}
	return nil
}

// ValidateMatch rejects a match whose home and away team are the same.
// Status must be a known value; score and venue are checked for shape only.
func ValidateMatch(match *models.Match) error {
	if match.HomeTeamID == match.AwayTeamID {
		return &MatchError{Reason: SameTeam, Field: "away_team_id"}
	}
	if match.Status != "" && !match.Status.Valid() {
		return &MatchError{Reason: InvalidStatus, Field: "status"}
	}
	if utf8.RuneCountInString(match.Venue) > maxVenueLen {
		return &FieldError{Field: "venue", Message: "must be at most 120 characters"}
	}
	if match.HomeScore != nil && *match.HomeScore < 0 {
		return &FieldError{Field: "home_score", Message: "must not be negative"}
	}
	if match.AwayScore != nil && *match.AwayScore < 0 {
		return &FieldError{Field: "away_score", Message: "must not be negative"}
	}
	return nil
}

// ValidatePrediction checks pick, probabilities and the one-per-match rule.
// existing holds the actor's live predictions (any subset that covers
// candidate.MatchID is enough). The first failure is returned; probability
// problems always win over a duplicate.
func ValidatePrediction(candidate *models.Prediction, actorID uint, existing []models.Prediction, rules Rules) error {
	if !candidate.Pick.Valid() {
		return &PredictionError{Reason: InvalidPick, Field: "pick"}
	}

	if err := validateProbabilities(candidate, rules); err != nil {
		return err
	}

	for i := range existing {
		other := &existing[i]
		if other.MatchID != candidate.MatchID || other.ID == candidate.ID {
			continue
		}
		if other.UserID == nil || *other.UserID != actorID {
			continue
		}
		return &PredictionError{Reason: DuplicateForUserAndMatch, Field: "match_id"}
	}
	return nil
}

func validateProbabilities(p *models.Prediction, rules Rules) error {
	if !p.HasProbabilities() {
		return nil
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"p_home", p.PHome},
		{"p_draw", p.PDraw},
		{"p_away", p.PAway},
	}

	sum := decimal.Zero
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		// NaN fails both comparisons
		if !(*f.value >= 0 && *f.value <= 1) {
			return &PredictionError{Reason: ProbabilityRange, Field: f.name}
		}
		sum = sum.Add(decimal.NewFromFloat(*f.value))
	}

	if sum.Sub(one).Abs().GreaterThan(rules.ProbabilityTolerance) {
		return &PredictionError{Reason: ProbabilitySum, Sum: sum}
	}
	return nil
}
