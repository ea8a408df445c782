// Package policy decides which records an actor may view or change.
//
// Read access is broad: any authenticated actor may list and view teams,
// matches and predictions. Mutation is restricted to the record's owner,
// the creator for teams and matches and the predicting user for
// predictions. Lookups for update and delete are scoped to the owner so a
// record owned by someone else is reported as not found rather than
// forbidden.
package policy

import (
	"gorm.io/gorm"
)

// Owned is implemented by every record that carries an owner reference.
type Owned interface {
	OwnerID() *uint
}

// CanView reports whether the actor may read the record.
func CanView(actorID uint, _ Owned) bool {
	return actorID != 0
}

// CanModify reports whether the actor owns the record.
func CanModify(actorID uint, record Owned) bool {
	if actorID == 0 || record == nil {
		return false
	}
	owner := record.OwnerID()
	return owner != nil && *owner == actorID
}

// CanDelete follows the same owner rule as CanModify.
func CanDelete(actorID uint, record Owned) bool {
	return CanModify(actorID, record)
}

// OwnedBy restricts a query to rows whose owner column equals the actor.
func OwnedBy(column string, actorID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", actorID)
	}
}

// OwnerColumn names the owner column for each owned table.
var OwnerColumn = map[string]string{
	"teams":       "created_by_id",
	"matches":     "created_by_id",
	"predictions": "user_id",
}
