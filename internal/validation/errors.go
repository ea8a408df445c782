package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Reason identifies which rule a candidate record broke. The values double
// as the machine-readable "code" in API error bodies.
type Reason string

const (
	SameTeam                 Reason = "same_team"
	UnknownTeam              Reason = "unknown_team"
	InvalidStatus            Reason = "invalid_status"
	InvalidPick              Reason = "invalid_pick"
	ProbabilityRange         Reason = "probability_range"
	ProbabilitySum           Reason = "probability_sum"
	DuplicateForUserAndMatch Reason = "duplicate_for_user_and_match"
	// Duplicate marks a field whose value is already taken by another record.
	Duplicate Reason = "duplicate"
)

// MatchError is an invalid match write.
type MatchError struct {
	Reason Reason
	Field  string
}

func (e *MatchError) Error() string {
	switch e.Reason {
	case SameTeam:
		return "home team and away team must be different"
	case UnknownTeam:
		return "team does not exist"
	case InvalidStatus:
		return "unknown match status"
	default:
		return fmt.Sprintf("invalid match: %s", e.Reason)
	}
}

// PredictionError is an invalid prediction write. Sum is set for
// ProbabilitySum.
type PredictionError struct {
	Reason Reason
	Field  string
	Sum    decimal.Decimal
}

func (e *PredictionError) Error() string {
	switch e.Reason {
	case InvalidPick:
		return "pick must be HOME, DRAW or AWAY"
	case ProbabilityRange:
		return fmt.Sprintf("%s must be between 0 and 1", e.Field)
	case ProbabilitySum:
		return fmt.Sprintf("probabilities must sum to 1.0 (got %s)", e.Sum.String())
	case DuplicateForUserAndMatch:
		return "you already have a prediction for this match"
	default:
		return fmt.Sprintf("invalid prediction: %s", e.Reason)
	}
}

// FieldError is a plain field-level defect such as a missing name or an
// over-long value. Reason is empty unless the value collides with another
// record.
type FieldError struct {
	Field   string
	Message string
	Reason  Reason
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}
