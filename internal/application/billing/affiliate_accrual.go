package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AccrualResult is what one settlement posted to affiliates
type AccrualResult struct {
	Affiliates []*affiliate.Affiliate
	Earnings   []*affiliate.Earning
	Skipped    []*affiliate.AccrualSkippedEvent
}

// AffiliateAccrual posts referral commission for a settled session. It runs
// inside the settlement transaction.
type AffiliateAccrual struct {
	logger *zap.Logger
}

// NewAffiliateAccrual creates a new AffiliateAccrual
func NewAffiliateAccrual(logger *zap.Logger) *AffiliateAccrual {
	return &AffiliateAccrual{logger: logger}
}

// Accrue credits each referrer's affiliate with commission on the shares of
// the members they referred. A referrer without an affiliate account is
// skipped with a warning and does not block settlement. Members sharing a
// referrer count as a single referral for that session.
func (a *AffiliateAccrual) Accrue(
	ctx context.Context,
	repos TransactionalRepositories,
	session *occupancy.Session,
	members map[uuid.UUID]*membership.Member,
	shares []occupancy.MemberShare,
	now time.Time,
) (*AccrualResult, error) {
	result := &AccrualResult{}

	byReferrer := make(map[uuid.UUID][]occupancy.MemberShare)
	var referrers []uuid.UUID
	for _, share := range shares {
		m, ok := members[share.MemberID]
		if !ok || !m.IsReferred() {
			continue
		}
		ref := *m.ReferredBy
		if _, seen := byReferrer[ref]; !seen {
			referrers = append(referrers, ref)
		}
		byReferrer[ref] = append(byReferrer[ref], share)
	}

	for _, ref := range sortedIDs(referrers) {
		group := byReferrer[ref]
		aff, err := repos.Affiliates().FindByOwnerForUpdate(ctx, ref)
		if err != nil {
			if !shared.IsCode(err, shared.CodeNotFound) {
				return nil, err
			}
			for _, share := range group {
				a.logger.Warn("Affiliate accrual skipped: referrer has no affiliate account",
					zap.String("code", shared.CodeAccrualSkipped),
					zap.String("session_id", session.ID.String()),
					zap.String("member_id", share.MemberID.String()),
					zap.String("referrer_id", ref.String()))
				result.Skipped = append(result.Skipped,
					affiliate.NewAccrualSkippedEvent(session.ID, share.MemberID, ref, now))
			}
			continue
		}

		commissions := make([]decimal.Decimal, 0, len(group))
		for _, share := range group {
			earning := affiliate.NewEarning(aff, session.ID, share.MemberID, share.Amount, now)
			if err := repos.Earnings().Create(ctx, earning); err != nil {
				return nil, err
			}
			commissions = append(commissions, earning.Commission)
			result.Earnings = append(result.Earnings, earning)
		}
		if err := aff.AccrueSession(session.ID, commissions, now); err != nil {
			return nil, err
		}
		if err := repos.Affiliates().Save(ctx, aff); err != nil {
			return nil, err
		}
		result.Affiliates = append(result.Affiliates, aff)
	}

	return result, nil
}
