package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMemberRepository implements MemberRepository using GORM
type GormMemberRepository struct {
	db *gorm.DB
}

// NewGormMemberRepository creates a new GormMemberRepository
func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// FindByID finds a member by ID
func (r *GormMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Member, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a member by ID and locks its row
func (r *GormMemberRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*membership.Member, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormMemberRepository) find(db *gorm.DB, id uuid.UUID) (*membership.Member, error) {
	var model models.MemberModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err, "Member")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the members that exist among ids, in no particular order
func (r *GormMemberRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]membership.Member, error) {
	if len(ids) == 0 {
		return []membership.Member{}, nil
	}
	var rows []models.MemberModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	members := make([]membership.Member, len(rows))
	for i := range rows {
		members[i] = *rows[i].ToDomain()
	}
	return members, nil
}

// FindAll lists members. Supported filters: "name" and "phone" (substring
// match) and "referred_by" (member ID).
func (r *GormMemberRepository) FindAll(ctx context.Context, filter shared.Filter) ([]membership.Member, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MemberModel{})
	for key, value := range filter.Filters {
		switch key {
		case "name":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
			}
		case "phone":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("phone LIKE ?", "%"+s+"%")
			}
		case "referred_by":
			query = query.Where("referred_by = ?", value)
		}
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	var rows []models.MemberModel
	if err := applyPage(query, filter, MemberSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	members := make([]membership.Member, len(rows))
	for i := range rows {
		members[i] = *rows[i].ToDomain()
	}
	return members, total, nil
}

// Create inserts a new member
func (r *GormMemberRepository) Create(ctx context.Context, member *membership.Member) error {
	if err := r.db.WithContext(ctx).Create(models.MemberModelFromDomain(member)).Error; err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// Save updates a member if its version is unchanged since it was read
func (r *GormMemberRepository) Save(ctx context.Context, member *membership.Member) error {
	err := updateVersioned(ctx, r.db, &models.MemberModel{}, member.ID, member.Version, map[string]any{
		"name":           member.Name,
		"phone":          member.Phone,
		"wallet_balance": member.WalletBalance,
		"referred_by":    member.ReferredBy,
		"total_hours":    member.TotalHours,
		"total_spent":    member.TotalSpent,
		"updated_at":     member.UpdatedAt,
	}, "Member")
	if err != nil {
		return err
	}
	member.IncrementVersion()
	return nil
}

// Ensure GormMemberRepository implements MemberRepository
var _ membership.MemberRepository = (*GormMemberRepository)(nil)
