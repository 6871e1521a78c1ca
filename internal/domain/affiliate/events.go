package affiliate

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeAffiliate = "Affiliate"

// Event type constants
const (
	EventTypeAffiliateCreated  = "AffiliateCreated"
	EventTypeCommissionAccrued = "CommissionAccrued"
	EventTypeAccrualSkipped    = "AccrualSkipped"
)

// AffiliateCreatedEvent is published when an affiliate account is opened
type AffiliateCreatedEvent struct {
	shared.BaseDomainEvent
	AffiliateID    uuid.UUID       `json:"affiliate_id"`
	OwnerMemberID  uuid.UUID       `json:"owner_member_id"`
	Code           string          `json:"code"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// NewAffiliateCreatedEvent creates a new AffiliateCreatedEvent
func NewAffiliateCreatedEvent(a *Affiliate, now time.Time) *AffiliateCreatedEvent {
	return &AffiliateCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAffiliateCreated, AggregateTypeAffiliate, a.ID, now),
		AffiliateID:     a.ID,
		OwnerMemberID:   a.OwnerMemberID,
		Code:            a.Code,
		CommissionRate:  a.CommissionRate,
	}
}

// CommissionAccruedEvent is published when a settled session adds pending earnings
type CommissionAccruedEvent struct {
	shared.BaseDomainEvent
	AffiliateID     uuid.UUID       `json:"affiliate_id"`
	SessionID       uuid.UUID       `json:"session_id"`
	Amount          decimal.Decimal `json:"amount"`
	PendingEarnings decimal.Decimal `json:"pending_earnings"`
}

// NewCommissionAccruedEvent creates a new CommissionAccruedEvent
func NewCommissionAccruedEvent(a *Affiliate, sessionID uuid.UUID, amount decimal.Decimal, now time.Time) *CommissionAccruedEvent {
	return &CommissionAccruedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionAccrued, AggregateTypeAffiliate, a.ID, now),
		AffiliateID:     a.ID,
		SessionID:       sessionID,
		Amount:          amount,
		PendingEarnings: a.PendingEarnings,
	}
}

// AccrualSkippedEvent is published when a referred member's referrer has no
// affiliate account. The aggregate is the referrer member.
type AccrualSkippedEvent struct {
	shared.BaseDomainEvent
	SessionID  uuid.UUID `json:"session_id"`
	MemberID   uuid.UUID `json:"member_id"`
	ReferrerID uuid.UUID `json:"referrer_id"`
}

// NewAccrualSkippedEvent creates a new AccrualSkippedEvent
func NewAccrualSkippedEvent(sessionID, memberID, referrerID uuid.UUID, now time.Time) *AccrualSkippedEvent {
	return &AccrualSkippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccrualSkipped, AggregateTypeAffiliate, referrerID, now),
		SessionID:       sessionID,
		MemberID:        memberID,
		ReferrerID:      referrerID,
	}
}
