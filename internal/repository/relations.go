package repository

// DeleteAction is what happens to referencing rows when their target is
// deleted.
type DeleteAction int

const (
	// Protect refuses the delete while referencing rows exist.
	Protect DeleteAction = iota
	// Cascade deletes the referencing rows together with the target.
	Cascade
)

func (a DeleteAction) String() string {
	if a == Cascade {
		return "cascade"
	}
	return "protect"
}

// Relation describes one foreign reference into a table.
type Relation struct {
	Kind    string   // kind of the referencing records
	Table   string   // referencing table
	Columns []string // referencing columns; any match counts
	Action  DeleteAction
}

// deletePolicy lists, per target table, every relation pointing at it.
// Deletes consult this table rather than relying on the declared foreign
// key behaviour; the database constraints back it up.
var deletePolicy = map[string][]Relation{
	"teams": {
		{Kind: "match", Table: "matches", Columns: []string{"home_team_id", "away_team_id"}, Action: Protect},
	},
	"matches": {
		{Kind: "prediction", Table: "predictions", Columns: []string{"match_id"}, Action: Cascade},
	},
}

// RelationsOf returns the delete policy for the given table.
func RelationsOf(table string) []Relation {
	return deletePolicy[table]
}
