package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/domain/shared/valueobject"
	"github.com/thehub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// WalletService handles member wallet balance mutations. Mutations on one
// member are serialized by the member lock and the member row lock.
type WalletService struct {
	scope          TransactionScope
	locker         EntityLocker
	clock          shared.Clock
	currency       valueobject.Currency
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewWalletService creates a new WalletService
func NewWalletService(
	scope TransactionScope,
	locker EntityLocker,
	clock shared.Clock,
	currency valueobject.Currency,
	logger *zap.Logger,
) *WalletService {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &WalletService{
		scope:    scope,
		locker:   locker,
		clock:    clock,
		currency: currency,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for post-commit notifications
func (s *WalletService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetWalletBalance returns a member's current balance
func (s *WalletService) GetWalletBalance(ctx context.Context, memberID uuid.UUID) (*WalletBalanceResponse, error) {
	var member *membership.Member
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		member, err = repos.Members().FindByID(ctx, memberID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &WalletBalanceResponse{
		MemberID: member.ID,
		Balance:  member.WalletBalance,
		Currency: string(s.currency),
	}, nil
}

// CreditWallet tops up a member's wallet
func (s *WalletService) CreditWallet(ctx context.Context, input WalletMutationInput) (*WalletTransactionResponse, error) {
	return s.apply(ctx, input, membership.WalletTransactionTypeCredit)
}

// DebitWallet removes funds from a member's wallet. A debit that would take
// the balance below zero fails with INSUFFICIENT_BALANCE and changes nothing.
func (s *WalletService) DebitWallet(ctx context.Context, input WalletMutationInput) (*WalletTransactionResponse, error) {
	return s.apply(ctx, input, membership.WalletTransactionTypeDebit)
}

func (s *WalletService) apply(ctx context.Context, input WalletMutationInput, txType membership.WalletTransactionType) (_ *WalletTransactionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", strings.ToLower(txType.String()),
		telemetry.WithAttribute(telemetry.SpanAttrMemberID, input.MemberID),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, input.Amount))
	defer func() { telemetry.EndSpan(span, err) }()

	release, err := s.locker.Lock(ctx, MemberKey(input.MemberID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	var (
		ledger   *membership.WalletTransaction
		events   []shared.DomainEvent
		rejected *membership.WalletDebitRejectedEvent
	)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		member, err := repos.Members().FindByIDForUpdate(ctx, input.MemberID)
		if err != nil {
			return err
		}

		before := member.WalletBalance
		if txType == membership.WalletTransactionTypeCredit {
			_, err = member.Credit(input.Amount, now)
		} else {
			_, err = member.Debit(input.Amount, now)
		}
		if err != nil {
			if shared.IsCode(err, shared.CodeInsufficientBalance) {
				rejected = membership.NewWalletDebitRejectedEvent(member.ID, member.WalletBalance, input.Amount, nil, now)
			}
			return err
		}

		ledger, err = membership.NewWalletTransaction(member.ID, txType, input.Amount, before, member.WalletBalance, now)
		if err != nil {
			return err
		}
		ledger.WithReason(input.Reason).WithOperator(input.OperatorID)

		if err := repos.Members().Save(ctx, member); err != nil {
			return err
		}
		if err := repos.WalletTransactions().Create(ctx, ledger); err != nil {
			return err
		}
		events = shared.CollectEvents(member)
		return nil
	})
	if err != nil {
		if rejected != nil {
			publishEvents(ctx, s.eventPublisher, s.logger, []shared.DomainEvent{rejected})
		}
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("Wallet balance changed",
		zap.String("member_id", input.MemberID.String()),
		zap.String("type", txType.String()),
		zap.String("amount", input.Amount.StringFixed(2)),
		zap.String("balance_after", ledger.BalanceAfter.StringFixed(2)),
		zap.String("operator_id", input.OperatorID))

	resp := ToWalletTransactionResponse(ledger)
	return &resp, nil
}

// ListTransactions returns a member's wallet ledger, newest first
func (s *WalletService) ListTransactions(ctx context.Context, memberID uuid.UUID, filter membership.WalletTransactionFilter) (shared.Paginated[WalletTransactionResponse], error) {
	normalizeFilter(&filter.Filter)
	var (
		txs   []membership.WalletTransaction
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Members().FindByID(ctx, memberID); err != nil {
			return err
		}
		var err error
		txs, total, err = repos.WalletTransactions().FindByMemberID(ctx, memberID, filter)
		return err
	})
	if err != nil {
		return shared.Paginated[WalletTransactionResponse]{}, err
	}
	return paginate(txs, total, filter.Filter, ToWalletTransactionResponse), nil
}
