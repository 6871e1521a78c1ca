package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSessionRepository implements SessionRepository using GORM.
// Session members are stored in session_members and always preloaded.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

// FindByID finds a session by ID
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*occupancy.Session, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a session by ID and locks its row
func (r *GormSessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*occupancy.Session, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

// FindOpenByTable returns the newest unsettled session on a table
func (r *GormSessionRepository) FindOpenByTable(ctx context.Context, tableID uuid.UUID) (*occupancy.Session, error) {
	return r.first(r.db.WithContext(ctx).
		Where("table_id = ? AND status <> ?", tableID, string(occupancy.SessionStatusSettled)).
		Order("created_at DESC"))
}

func (r *GormSessionRepository) first(query *gorm.DB) (*occupancy.Session, error) {
	var model models.SessionModel
	if err := preloadMembers(query).First(&model).Error; err != nil {
		return nil, notFound(err, "Session")
	}
	return model.ToDomain(), nil
}

// FindAll lists sessions, newest first unless the filter orders otherwise
func (r *GormSessionRepository) FindAll(ctx context.Context, filter occupancy.SessionFilter) ([]occupancy.Session, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SessionModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.TableID != nil {
		query = query.Where("table_id = ?", *filter.TableID)
	}
	if filter.MemberID != nil {
		members := r.db.Model(&models.SessionMemberModel{}).
			Select("session_id").
			Where("member_id = ?", *filter.MemberID)
		query = query.Where("id IN (?)", members)
	}

	// shared by the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	var rows []models.SessionModel
	if err := preloadMembers(applyPage(query, filter.Filter, SessionSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	return toSessions(rows), total, nil
}

// FindSettledBefore returns up to limit settled sessions that ended before
// the given time, oldest first
func (r *GormSessionRepository) FindSettledBefore(ctx context.Context, before time.Time, limit int) ([]occupancy.Session, error) {
	var rows []models.SessionModel
	err := preloadMembers(r.db.WithContext(ctx)).
		Where("status = ? AND end_time < ?", string(occupancy.SessionStatusSettled), before).
		Order("end_time ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find settled sessions: %w", err)
	}
	return toSessions(rows), nil
}

// CountByStatus counts sessions in a status
func (r *GormSessionRepository) CountByStatus(ctx context.Context, status occupancy.SessionStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// Create inserts a new session and its member rows
func (r *GormSessionRepository) Create(ctx context.Context, session *occupancy.Session) error {
	model := models.SessionModelFromDomain(session)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if len(model.Members) > 0 {
		if err := db.Create(&model.Members).Error; err != nil {
			return fmt.Errorf("create session members: %w", err)
		}
	}
	return nil
}

// Save updates a session if its version is unchanged since it was read.
// Membership is fixed at creation and is not rewritten.
func (r *GormSessionRepository) Save(ctx context.Context, session *occupancy.Session) error {
	model := models.SessionModelFromDomain(session)
	err := updateVersioned(ctx, r.db, &models.SessionModel{}, session.ID, session.Version, map[string]any{
		"status":          model.Status,
		"start_time":      model.StartTime,
		"end_time":        model.EndTime,
		"elapsed_seconds": model.ElapsedSeconds,
		"store_charges":   model.StoreCharges,
		"total_price":     model.TotalPrice,
		"payment_method":  model.PaymentMethod,
		"paid_by":         model.PaidBy,
		"is_paid":         model.IsPaid,
		"settled_at":      model.SettledAt,
		"forced_end":      model.ForcedEnd,
		"end_reason":      model.EndReason,
		"updated_at":      model.UpdatedAt,
	}, "Session")
	if err != nil {
		return err
	}
	session.IncrementVersion()
	return nil
}

// Delete removes a session and its member rows
func (r *GormSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("session_id = ?", id).Delete(&models.SessionMemberModel{}).Error; err != nil {
		return fmt.Errorf("delete session members: %w", err)
	}
	result := db.Where("id = ?", id).Delete(&models.SessionModel{})
	if result.Error != nil {
		return fmt.Errorf("delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Session")
	}
	return nil
}

func toSessions(rows []models.SessionModel) []occupancy.Session {
	sessions := make([]occupancy.Session, len(rows))
	for i := range rows {
		sessions[i] = *rows[i].ToDomain()
	}
	return sessions
}

// Ensure GormSessionRepository implements SessionRepository
var _ occupancy.SessionRepository = (*GormSessionRepository)(nil)
