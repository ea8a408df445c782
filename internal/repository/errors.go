package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the target record does not exist, or is
// outside the actor's modifiable set for owner-scoped lookups.
var ErrNotFound = errors.New("record not found")

// ConstraintKind distinguishes the store-level invariants.
type ConstraintKind string

const (
	UniqueViolation      ConstraintKind = "unique"
	CheckViolation       ConstraintKind = "check"
	ReferentialViolation ConstraintKind = "referential"
)

// ConstraintViolation reports a write the store refused. Fields is set for
// unique violations, Rule for check violations (the constraint name).
type ConstraintViolation struct {
	Kind   ConstraintKind
	Table  string
	Fields []string
	Rule   string
	Err    error
}

func (e *ConstraintViolation) Error() string {
	switch e.Kind {
	case UniqueViolation:
		return fmt.Sprintf("unique violation on %s(%s)", e.Table, strings.Join(e.Fields, ", "))
	case CheckViolation:
		return fmt.Sprintf("check violation: %s", e.Rule)
	default:
		return fmt.Sprintf("%s violation", e.Kind)
	}
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// On reports whether the violation covers exactly the given columns.
func (e *ConstraintViolation) On(fields ...string) bool {
	if e.Kind != UniqueViolation || len(fields) != len(e.Fields) {
		return false
	}
	for _, f := range fields {
		found := false
		for _, have := range e.Fields {
			if have == f {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ReferentialBlock is returned when a delete is refused because live
// records still reference the target through a protective relation.
type ReferentialBlock struct {
	Kind string // kind of the referencing records, e.g. "match"
	IDs  []uint
}

func (e *ReferentialBlock) Error() string {
	return fmt.Sprintf("delete blocked by %d referencing %s record(s)", len(e.IDs), e.Kind)
}

// uniqueIndexes maps index names to their columns; postgres only reports
// the constraint name.
var uniqueIndexes = map[string]struct {
	table   string
	columns []string
}{
	"idx_users_username":         {"users", []string{"username"}},
	"idx_teams_name":             {"teams", []string{"name"}},
	"idx_matches_fixture":        {"matches", []string{"home_team_id", "away_team_id", "kickoff_at"}},
	"idx_predictions_user_match": {"predictions", []string{"user_id", "match_id"}},
}

var (
	sqliteUnique = regexp.MustCompile(`UNIQUE constraint failed: (.+)$`)
	sqliteCheck  = regexp.MustCompile(`CHECK constraint failed: (.+)$`)
)

// translate classifies a raw driver error into the repository vocabulary.
// Errors that are not constraint failures pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			v := &ConstraintViolation{Kind: UniqueViolation, Table: pgErr.TableName, Err: err}
			if idx, ok := uniqueIndexes[pgErr.ConstraintName]; ok {
				v.Table, v.Fields = idx.table, idx.columns
			} else if pgErr.ColumnName != "" {
				v.Fields = []string{pgErr.ColumnName}
			}
			return v
		case "23514":
			return &ConstraintViolation{Kind: CheckViolation, Table: pgErr.TableName, Rule: pgErr.ConstraintName, Err: err}
		case "23503", "23001":
			return &ConstraintViolation{Kind: ReferentialViolation, Table: pgErr.TableName, Rule: pgErr.ConstraintName, Err: err}
		}
		return err
	}

	msg := err.Error()
	if m := sqliteUnique.FindStringSubmatch(msg); m != nil {
		v := &ConstraintViolation{Kind: UniqueViolation, Err: err}
		for _, col := range strings.Split(m[1], ",") {
			table, column, ok := strings.Cut(strings.TrimSpace(col), ".")
			if !ok {
				column = table
				table = ""
			}
			v.Table = table
			v.Fields = append(v.Fields, column)
		}
		return v
	}
	if m := sqliteCheck.FindStringSubmatch(msg); m != nil {
		return &ConstraintViolation{Kind: CheckViolation, Rule: strings.TrimSpace(m[1]), Err: err}
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return &ConstraintViolation{Kind: ReferentialViolation, Err: err}
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintViolation{Kind: UniqueViolation, Err: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &ConstraintViolation{Kind: CheckViolation, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintViolation{Kind: ReferentialViolation, Err: err}
	}
	return err
}
