package affiliate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/domain/shared/valueobject"
)

var (
	codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,31}$`)
	maxRate     = decimal.NewFromInt(100)
)

// Affiliate is a member's referral account. PendingEarnings grows only from
// settled sessions of referred members.
type Affiliate struct {
	shared.BaseAggregateRoot
	OwnerMemberID   uuid.UUID
	Code            string
	CommissionRate  decimal.Decimal // percentage in [0,100]
	PendingEarnings decimal.Decimal
	PaidEarnings    decimal.Decimal
	TotalReferrals  int
}

// NormalizeCode upper-cases and trims a referral code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewAffiliate creates an affiliate account owned by a member
func NewAffiliate(ownerMemberID uuid.UUID, code string, commissionRate decimal.Decimal, now time.Time) (*Affiliate, error) {
	if ownerMemberID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Owner member ID cannot be empty")
	}
	code = NormalizeCode(code)
	if !codePattern.MatchString(code) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			"Affiliate code must be 3-32 characters of letters, digits, '-' or '_'")
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThan(maxRate) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Commission rate must be between 0 and 100, got %s", commissionRate))
	}

	a := &Affiliate{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		OwnerMemberID:     ownerMemberID,
		Code:              code,
		CommissionRate:    commissionRate,
		PendingEarnings:   decimal.Zero,
		PaidEarnings:      decimal.Zero,
	}
	a.AddDomainEvent(NewAffiliateCreatedEvent(a, now))
	return a, nil
}

// Commission returns the commission on a referred member's share,
// rounded half-up to cents
func (a *Affiliate) Commission(share decimal.Decimal) decimal.Decimal {
	return valueobject.PercentageRoundedToCents(share, a.CommissionRate)
}

// AccrueSession posts the commissions earned from one settled session.
// TotalReferrals counts sessions, not commission lines.
func (a *Affiliate) AccrueSession(sessionID uuid.UUID, commissions []decimal.Decimal, now time.Time) error {
	if len(commissions) == 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "No commissions to accrue")
	}
	total := decimal.Zero
	for _, c := range commissions {
		if c.IsNegative() {
			return shared.NewDomainError(shared.CodeInvalidInput, "Commission cannot be negative")
		}
		total = total.Add(c)
	}
	a.PendingEarnings = a.PendingEarnings.Add(total)
	a.TotalReferrals++
	a.Touch(now)
	a.AddDomainEvent(NewCommissionAccruedEvent(a, sessionID, total, now))
	return nil
}
