package affiliate

import (
	"context"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/shared"
)

// AffiliateRepository defines persistence for affiliates
type AffiliateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Affiliate, error)
	FindByCode(ctx context.Context, code string) (*Affiliate, error)
	// FindByOwnerForUpdate loads the affiliate owned by a member and holds a
	// row lock until the surrounding transaction ends
	FindByOwnerForUpdate(ctx context.Context, ownerMemberID uuid.UUID) (*Affiliate, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Affiliate, int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ExistsByOwner(ctx context.Context, ownerMemberID uuid.UUID) (bool, error)
	Create(ctx context.Context, affiliate *Affiliate) error
	Save(ctx context.Context, affiliate *Affiliate) error
}

// EarningRepository defines persistence for commission lines
type EarningRepository interface {
	Create(ctx context.Context, earning *Earning) error
	FindByAffiliateID(ctx context.Context, affiliateID uuid.UUID, filter shared.Filter) ([]Earning, int64, error)
}
