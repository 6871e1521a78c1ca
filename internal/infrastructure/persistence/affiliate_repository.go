package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAffiliateRepository implements AffiliateRepository using GORM
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewGormAffiliateRepository creates a new GormAffiliateRepository
func NewGormAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// FindByID finds an affiliate by ID
func (r *GormAffiliateRepository) FindByID(ctx context.Context, id uuid.UUID) (*affiliate.Affiliate, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByCode finds an affiliate by its normalized code
func (r *GormAffiliateRepository) FindByCode(ctx context.Context, code string) (*affiliate.Affiliate, error) {
	return r.first(r.db.WithContext(ctx).Where("code = ?", code))
}

// FindByOwnerForUpdate finds the affiliate owned by a member and locks its row
func (r *GormAffiliateRepository) FindByOwnerForUpdate(ctx context.Context, ownerMemberID uuid.UUID) (*affiliate.Affiliate, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("owner_member_id = ?", ownerMemberID))
}

func (r *GormAffiliateRepository) first(query *gorm.DB) (*affiliate.Affiliate, error) {
	var model models.AffiliateModel
	if err := query.First(&model).Error; err != nil {
		return nil, notFound(err, "Affiliate")
	}
	return model.ToDomain(), nil
}

// FindAll lists affiliates
func (r *GormAffiliateRepository) FindAll(ctx context.Context, filter shared.Filter) ([]affiliate.Affiliate, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AffiliateModel{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count affiliates: %w", err)
	}

	var rows []models.AffiliateModel
	if err := applyPage(query, filter, AffiliateSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list affiliates: %w", err)
	}
	affiliates := make([]affiliate.Affiliate, len(rows))
	for i := range rows {
		affiliates[i] = *rows[i].ToDomain()
	}
	return affiliates, total, nil
}

// ExistsByCode checks if a code is taken
func (r *GormAffiliateRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "code = ?", code)
}

// ExistsByOwner checks if a member already owns an affiliate
func (r *GormAffiliateRepository) ExistsByOwner(ctx context.Context, ownerMemberID uuid.UUID) (bool, error) {
	return r.exists(ctx, "owner_member_id = ?", ownerMemberID)
}

func (r *GormAffiliateRepository) exists(ctx context.Context, cond string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AffiliateModel{}).Where(cond, arg).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check affiliate: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new affiliate
func (r *GormAffiliateRepository) Create(ctx context.Context, a *affiliate.Affiliate) error {
	if err := r.db.WithContext(ctx).Create(models.AffiliateModelFromDomain(a)).Error; err != nil {
		return fmt.Errorf("create affiliate: %w", err)
	}
	return nil
}

// Save updates an affiliate if its version is unchanged since it was read
func (r *GormAffiliateRepository) Save(ctx context.Context, a *affiliate.Affiliate) error {
	err := updateVersioned(ctx, r.db, &models.AffiliateModel{}, a.ID, a.Version, map[string]any{
		"commission_rate":  a.CommissionRate,
		"pending_earnings": a.PendingEarnings,
		"paid_earnings":    a.PaidEarnings,
		"total_referrals":  a.TotalReferrals,
		"updated_at":       a.UpdatedAt,
	}, "Affiliate")
	if err != nil {
		return err
	}
	a.IncrementVersion()
	return nil
}

// GormEarningRepository implements EarningRepository using GORM
type GormEarningRepository struct {
	db *gorm.DB
}

// NewGormEarningRepository creates a new GormEarningRepository
func NewGormEarningRepository(db *gorm.DB) *GormEarningRepository {
	return &GormEarningRepository{db: db}
}

// Create inserts a commission line
func (r *GormEarningRepository) Create(ctx context.Context, e *affiliate.Earning) error {
	if err := r.db.WithContext(ctx).Create(models.EarningModelFromDomain(e)).Error; err != nil {
		return fmt.Errorf("create affiliate earning: %w", err)
	}
	return nil
}

// FindByAffiliateID lists an affiliate's commission lines, newest first by default
func (r *GormEarningRepository) FindByAffiliateID(ctx context.Context, affiliateID uuid.UUID, filter shared.Filter) ([]affiliate.Earning, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.EarningModel{}).
		Where("affiliate_id = ?", affiliateID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count affiliate earnings: %w", err)
	}

	var rows []models.EarningModel
	if err := applyPage(query, filter, EarningSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list affiliate earnings: %w", err)
	}
	earnings := make([]affiliate.Earning, len(rows))
	for i := range rows {
		earnings[i] = *rows[i].ToDomain()
	}
	return earnings, total, nil
}

var (
	_ affiliate.AffiliateRepository = (*GormAffiliateRepository)(nil)
	_ affiliate.EarningRepository   = (*GormEarningRepository)(nil)
)
