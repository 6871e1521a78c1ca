package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTableRepository implements TableRepository using GORM
type GormTableRepository struct {
	db *gorm.DB
}

// NewGormTableRepository creates a new GormTableRepository
func NewGormTableRepository(db *gorm.DB) *GormTableRepository {
	return &GormTableRepository{db: db}
}

// FindByID finds a table by ID
func (r *GormTableRepository) FindByID(ctx context.Context, id uuid.UUID) (*occupancy.Table, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a table by ID and locks its row
func (r *GormTableRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*occupancy.Table, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormTableRepository) find(db *gorm.DB, id uuid.UUID) (*occupancy.Table, error) {
	var model models.TableModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err, "Table")
	}
	return model.ToDomain(), nil
}

// FindAll lists tables, by name unless the filter orders otherwise
func (r *GormTableRepository) FindAll(ctx context.Context, filter occupancy.TableFilter) ([]occupancy.Table, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TableModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	// shared by the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tables: %w", err)
	}

	var rows []models.TableModel
	if filter.OrderBy == "" {
		filter.OrderDir = "asc"
	}
	if err := applyPage(query, filter.Filter, TableSortFields, "name").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]occupancy.Table, len(rows))
	for i := range rows {
		tables[i] = *rows[i].ToDomain()
	}
	return tables, total, nil
}

// Create inserts a new table
func (r *GormTableRepository) Create(ctx context.Context, table *occupancy.Table) error {
	if err := r.db.WithContext(ctx).Create(models.TableModelFromDomain(table)).Error; err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Save updates a table if its version is unchanged since it was read
func (r *GormTableRepository) Save(ctx context.Context, table *occupancy.Table) error {
	err := updateVersioned(ctx, r.db, &models.TableModel{}, table.ID, table.Version, map[string]any{
		"name":               table.Name,
		"hourly_rate":        table.HourlyRate,
		"status":             string(table.Status),
		"current_session_id": table.CurrentSessionID,
		"updated_at":         table.UpdatedAt,
	}, "Table")
	if err != nil {
		return err
	}
	table.IncrementVersion()
	return nil
}

// Ensure GormTableRepository implements TableRepository
var _ occupancy.TableRepository = (*GormTableRepository)(nil)
