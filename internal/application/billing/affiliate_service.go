package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AffiliateService handles affiliate accounts and their earnings
type AffiliateService struct {
	scope          TransactionScope
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAffiliateService creates a new AffiliateService
func NewAffiliateService(scope TransactionScope, clock shared.Clock, logger *zap.Logger) *AffiliateService {
	return &AffiliateService{
		scope:  scope,
		clock:  clock,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for post-commit notifications
func (s *AffiliateService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateAffiliate opens an affiliate account for an existing member. Codes are
// unique and a member owns at most one account.
func (s *AffiliateService) CreateAffiliate(ctx context.Context, input CreateAffiliateInput) (*AffiliateResponse, error) {
	aff, err := affiliate.NewAffiliate(input.OwnerMemberID, input.Code, input.CommissionRate, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Members().FindByID(ctx, input.OwnerMemberID); err != nil {
			return err
		}
		exists, err := repos.Affiliates().ExistsByCode(ctx, aff.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeConflict, "Affiliate code already exists")
		}
		exists, err = repos.Affiliates().ExistsByOwner(ctx, input.OwnerMemberID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeConflict, "Member already has an affiliate account")
		}
		return repos.Affiliates().Create(ctx, aff)
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, shared.CollectEvents(aff))
	s.logger.Info("Affiliate created",
		zap.String("affiliate_id", aff.ID.String()),
		zap.String("code", aff.Code),
		zap.String("owner_member_id", aff.OwnerMemberID.String()))

	resp := ToAffiliateResponse(aff)
	return &resp, nil
}

// GetAffiliate returns an affiliate by ID
func (s *AffiliateService) GetAffiliate(ctx context.Context, id uuid.UUID) (*AffiliateResponse, error) {
	var aff *affiliate.Affiliate
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		aff, err = repos.Affiliates().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToAffiliateResponse(aff)
	return &resp, nil
}

// ListAffiliates lists affiliates
func (s *AffiliateService) ListAffiliates(ctx context.Context, filter shared.Filter) (shared.Paginated[AffiliateResponse], error) {
	normalizeFilter(&filter)
	var (
		affs  []affiliate.Affiliate
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		affs, total, err = repos.Affiliates().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return shared.Paginated[AffiliateResponse]{}, err
	}
	return paginate(affs, total, filter, ToAffiliateResponse), nil
}

// ListEarnings lists the commission lines posted to an affiliate
func (s *AffiliateService) ListEarnings(ctx context.Context, affiliateID uuid.UUID, filter shared.Filter) (shared.Paginated[EarningResponse], error) {
	normalizeFilter(&filter)
	var (
		earnings []affiliate.Earning
		total    int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Affiliates().FindByID(ctx, affiliateID); err != nil {
			return err
		}
		var err error
		earnings, total, err = repos.Earnings().FindByAffiliateID(ctx, affiliateID, filter)
		return err
	})
	if err != nil {
		return shared.Paginated[EarningResponse]{}, err
	}
	return paginate(earnings, total, filter, ToEarningResponse), nil
}
