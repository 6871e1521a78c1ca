package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MemberService handles member registration and lookup
type MemberService struct {
	scope          TransactionScope
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewMemberService creates a new MemberService
func NewMemberService(scope TransactionScope, clock shared.Clock, logger *zap.Logger) *MemberService {
	return &MemberService{
		scope:  scope,
		clock:  clock,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for post-commit notifications
func (s *MemberService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RegisterMember creates a member. A referral code is resolved to the
// affiliate's owner, who becomes the member's referrer.
func (s *MemberService) RegisterMember(ctx context.Context, input RegisterMemberInput) (*MemberResponse, error) {
	var member *membership.Member
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var referredBy *uuid.UUID
		if input.ReferralCode != "" {
			aff, err := repos.Affiliates().FindByCode(ctx, affiliate.NormalizeCode(input.ReferralCode))
			if err != nil {
				if shared.IsCode(err, shared.CodeNotFound) {
					return shared.NewDomainError(shared.CodeInvalidInput, "Unknown referral code")
				}
				return err
			}
			owner := aff.OwnerMemberID
			referredBy = &owner
		}

		var err error
		member, err = membership.NewMember(input.Name, input.Phone, referredBy, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.Members().Create(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, shared.CollectEvents(member))
	fields := []zap.Field{zap.String("member_id", member.ID.String())}
	if member.ReferredBy != nil {
		fields = append(fields, zap.String("referred_by", member.ReferredBy.String()))
	}
	s.logger.Info("Member registered", fields...)

	resp := ToMemberResponse(member)
	return &resp, nil
}

// GetMember returns a member by ID
func (s *MemberService) GetMember(ctx context.Context, id uuid.UUID) (*MemberResponse, error) {
	var member *membership.Member
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		member, err = repos.Members().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToMemberResponse(member)
	return &resp, nil
}

// ListMembers lists members
func (s *MemberService) ListMembers(ctx context.Context, filter shared.Filter) (shared.Paginated[MemberResponse], error) {
	normalizeFilter(&filter)
	var (
		members []membership.Member
		total   int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		members, total, err = repos.Members().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return shared.Paginated[MemberResponse]{}, err
	}
	return paginate(members, total, filter, ToMemberResponse), nil
}
