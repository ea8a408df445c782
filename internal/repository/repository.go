package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// DefaultLimit caps list queries that do not ask for a page size.
const DefaultLimit = 50

// MaxLimit is the largest page a list query will return.
const MaxLimit = 200

// Repository is the entity store for users, teams, matches and
// predictions. Every write is atomic per call; driver failures come back
// classified as ConstraintViolation, ReferentialBlock or ErrNotFound.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTransaction runs fn against a repository bound to one transaction.
func (r *Repository) WithTransaction(ctx context.Context, fn func(*Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Page normalises limit/offset pairs coming from query strings.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return db.Limit(limit).Offset(offset)
}

// update applies patch to the row with the given id. No matching row is
// reported as ErrNotFound.
func (r *Repository) update(ctx context.Context, model interface{}, id uint, patch map[string]interface{}) error {
	if len(patch) == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return translate(err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	}
	res := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteWithPolicy deletes one row of table, honouring deletePolicy. It
// must run inside a transaction.
func deleteWithPolicy(tx *gorm.DB, table string, model interface{}, id uint) error {
	if err := tx.Select("id").First(model, id).Error; err != nil {
		return translate(err)
	}

	for _, rel := range RelationsOf(table) {
		ids, err := referencingIDs(tx, rel, id)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		switch rel.Action {
		case Protect:
			return &ReferentialBlock{Kind: rel.Kind, IDs: ids}
		case Cascade:
			if err := tx.Exec("DELETE FROM "+rel.Table+" WHERE id IN ?", ids).Error; err != nil {
				return fmt.Errorf("cascade delete of %s: %w", rel.Table, translate(err))
			}
		}
	}

	res := tx.Delete(model, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func referencingIDs(tx *gorm.DB, rel Relation, id uint) ([]uint, error) {
	conds := make([]string, len(rel.Columns))
	args := make([]interface{}, len(rel.Columns))
	for i, col := range rel.Columns {
		conds[i] = col + " = ?"
		args[i] = id
	}

	var ids []uint
	err := tx.Table(rel.Table).
		Where(strings.Join(conds, " OR "), args...).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("lookup %s references: %w", rel.Table, err)
	}
	return ids, nil
}
