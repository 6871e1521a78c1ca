package affiliate

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
)

// Earning records one commission line: what a referred member paid in a
// session and what the affiliate earned from it.
type Earning struct {
	shared.BaseEntity
	AffiliateID    uuid.UUID
	SessionID      uuid.UUID
	MemberID       uuid.UUID
	ShareAmount    decimal.Decimal
	CommissionRate decimal.Decimal
	Commission     decimal.Decimal
}

// NewEarning creates an earning line for a referred member's share
func NewEarning(a *Affiliate, sessionID, memberID uuid.UUID, share decimal.Decimal, now time.Time) *Earning {
	return &Earning{
		BaseEntity:     shared.NewBaseEntity(now),
		AffiliateID:    a.ID,
		SessionID:      sessionID,
		MemberID:       memberID,
		ShareAmount:    share,
		CommissionRate: a.CommissionRate,
		Commission:     a.Commission(share),
	}
}
