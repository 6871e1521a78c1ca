package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds SELECT ... FOR UPDATE. Dialects without row locks (sqlite)
// drop the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound maps gorm.ErrRecordNotFound to a NOT_FOUND domain error naming the entity
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, entity+" not found")
	}
	return fmt.Errorf("find %s: %w", entity, err)
}

// applyPage applies ordering and pagination. Order fields are checked against
// the allowed set; the id tiebreak keeps pages stable.
func applyPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// updateVersioned updates one aggregate row only if its stored version still
// matches. The new version is written with the columns. Zero rows affected
// means the row is gone or another transaction updated it first.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, version int, columns map[string]any, entity string) error {
	columns["version"] = version + 1
	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("update %s: %w", entity, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("update %s: %w", entity, err)
	}
	if count == 0 {
		return shared.NewDomainError(shared.CodeNotFound, entity+" not found")
	}
	return shared.NewDomainError(shared.CodeConcurrencyConflict,
		entity+" was modified by another transaction")
}
