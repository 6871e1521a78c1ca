package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SessionService drives the session lifecycle: reservation, timing, ending
// and settlement. Every mutation runs under an entity lock and inside one
// database transaction; events are published only after commit.
type SessionService struct {
	scope          TransactionScope
	locker         EntityLocker
	clock          shared.Clock
	accrual        *AffiliateAccrual
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	scope TransactionScope,
	locker EntityLocker,
	clock shared.Clock,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		scope:   scope,
		locker:  locker,
		clock:   clock,
		accrual: NewAffiliateAccrual(logger),
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for post-commit notifications
func (s *SessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ReserveSession creates a pending session and holds the table for it
func (s *SessionService) ReserveSession(ctx context.Context, input StartSessionInput) (*SessionResponse, error) {
	return s.open(ctx, input, false)
}

// StartSession reserves the table and starts the timer in one step
func (s *SessionService) StartSession(ctx context.Context, input StartSessionInput) (*SessionResponse, error) {
	return s.open(ctx, input, true)
}

func (s *SessionService) open(ctx context.Context, input StartSessionInput, start bool) (_ *SessionResponse, err error) {
	method := "reserve"
	if start {
		method = "start"
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "session", method,
		telemetry.WithAttribute(telemetry.SpanAttrTableID, input.TableID),
		telemetry.WithAttribute(telemetry.SpanAttrMemberCount, len(input.MemberIDs)))
	defer func() { telemetry.EndSpan(span, err) }()

	release, err := s.locker.Lock(ctx, TableKey(input.TableID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	var session *occupancy.Session
	var events []shared.DomainEvent

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		table, err := repos.Tables().FindByIDForUpdate(ctx, input.TableID)
		if err != nil {
			return err
		}
		if err := ensureNoOpenSession(ctx, repos.Sessions(), table); err != nil {
			return err
		}
		if err := ensureMembersExist(ctx, repos.Members(), input.MemberIDs); err != nil {
			return err
		}

		session, err = occupancy.NewSession(table, input.MemberIDs, now)
		if err != nil {
			return err
		}
		if start {
			if err := session.Start(now); err != nil {
				return err
			}
			err = table.Occupy(session.ID, now)
		} else {
			err = table.Reserve(session.ID, now)
		}
		if err != nil {
			return err
		}

		if err := repos.Sessions().Create(ctx, session); err != nil {
			return err
		}
		if err := repos.Tables().Save(ctx, table); err != nil {
			return err
		}
		events = shared.CollectEvents(session, table)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("Session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("table_id", session.TableID.String()),
		zap.String("status", session.Status.String()),
		zap.Int("members", len(session.MemberIDs)),
		zap.String("operator_id", input.OperatorID))

	resp := ToSessionResponse(session, now)
	return &resp, nil
}

// StartReservedSession starts the timer of a pending session and occupies its table
func (s *SessionService) StartReservedSession(ctx context.Context, sessionID uuid.UUID) (*SessionResponse, error) {
	return s.mutate(ctx, sessionID, "Session started", func(repos TransactionalRepositories, session *occupancy.Session, now time.Time) ([]shared.DomainEvent, error) {
		if err := session.Start(now); err != nil {
			return nil, err
		}
		table, err := repos.Tables().FindByIDForUpdate(ctx, session.TableID)
		if err != nil {
			return nil, err
		}
		if err := table.Occupy(session.ID, now); err != nil {
			return nil, err
		}
		if err := repos.Sessions().Save(ctx, session); err != nil {
			return nil, err
		}
		if err := repos.Tables().Save(ctx, table); err != nil {
			return nil, err
		}
		return shared.CollectEvents(session, table), nil
	})
}

// EndSession stops the timer and fixes the total price. Ending a session
// that is already ended or settled returns it unchanged.
func (s *SessionService) EndSession(ctx context.Context, sessionID uuid.UUID) (*SessionResponse, error) {
	return s.mutate(ctx, sessionID, "Session ended", func(repos TransactionalRepositories, session *occupancy.Session, now time.Time) ([]shared.DomainEvent, error) {
		if session.Status == occupancy.SessionStatusEnded || session.Status == occupancy.SessionStatusSettled {
			return nil, nil
		}
		if err := session.End(now); err != nil {
			return nil, err
		}
		if err := repos.Sessions().Save(ctx, session); err != nil {
			return nil, err
		}
		return shared.CollectEvents(session), nil
	})
}

// ForceEndSession ends a session as of its start time so only store charges
// are billed. Used for admin corrections.
func (s *SessionService) ForceEndSession(ctx context.Context, sessionID uuid.UUID, reason string) (*SessionResponse, error) {
	return s.mutate(ctx, sessionID, "Session force-ended", func(repos TransactionalRepositories, session *occupancy.Session, now time.Time) ([]shared.DomainEvent, error) {
		if err := session.ForceEnd(now, reason); err != nil {
			return nil, err
		}
		if err := repos.Sessions().Save(ctx, session); err != nil {
			return nil, err
		}
		return shared.CollectEvents(session), nil
	})
}

// AddStoreCharge adds a store order to an open session's bill
func (s *SessionService) AddStoreCharge(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal, description string) (*SessionResponse, error) {
	return s.mutate(ctx, sessionID, "Store charge added", func(repos TransactionalRepositories, session *occupancy.Session, now time.Time) ([]shared.DomainEvent, error) {
		if err := session.AddStoreCharge(amount, now); err != nil {
			return nil, err
		}
		if err := repos.Sessions().Save(ctx, session); err != nil {
			return nil, err
		}
		s.logger.Debug("Store charge recorded",
			zap.String("session_id", session.ID.String()),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("description", description))
		return shared.CollectEvents(session), nil
	})
}

type sessionMutation func(repos TransactionalRepositories, session *occupancy.Session, now time.Time) ([]shared.DomainEvent, error)

// mutate loads a session under its lock and row lock, applies fn and
// publishes fn's events after commit
func (s *SessionService) mutate(ctx context.Context, sessionID uuid.UUID, logMsg string, fn sessionMutation) (*SessionResponse, error) {
	release, err := s.locker.Lock(ctx, SessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	var session *occupancy.Session
	var events []shared.DomainEvent

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.Sessions().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		events, err = fn(repos, session, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		publishEvents(ctx, s.eventPublisher, s.logger, events)
		s.logger.Info(logMsg,
			zap.String("session_id", session.ID.String()),
			zap.String("status", session.Status.String()))
	}

	resp := ToSessionResponse(session, now)
	return &resp, nil
}

// SettleSession pays for an ended session. A wallet payment debits the payer
// in the same transaction that marks the session settled, releases the table,
// records member usage and accrues affiliate commission. Any failure,
// including an insufficient balance, rolls all of it back and leaves the
// session ENDED.
func (s *SessionService) SettleSession(ctx context.Context, input SettleSessionInput) (_ *SessionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "session", "settle",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, input.SessionID),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentMethod, input.PaymentMethod.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	// The member set never changes after creation, so an unlocked read is
	// enough to build the lock key set.
	snapshot, err := s.loadSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	keys := []string{SessionKey(snapshot.ID)}
	for _, id := range snapshot.MemberIDs {
		keys = append(keys, MemberKey(id))
	}
	release, err := s.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	var (
		session  *occupancy.Session
		events   []shared.DomainEvent
		rejected *membership.WalletDebitRejectedEvent
		skipped  int
	)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.Sessions().FindByIDForUpdate(ctx, input.SessionID)
		if err != nil {
			return err
		}

		payerID := session.DefaultPayer()
		if input.PayerID != nil {
			payerID = *input.PayerID
		}
		if err := session.Settle(input.PaymentMethod, payerID, now); err != nil {
			return err
		}

		members := make(map[uuid.UUID]*membership.Member, len(session.MemberIDs))
		for _, id := range sortedIDs(session.MemberIDs) {
			m, err := repos.Members().FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			members[id] = m
		}

		var ledger *membership.WalletTransaction
		total := *session.TotalPrice
		if input.PaymentMethod == occupancy.PaymentMethodWallet && total.IsPositive() {
			payer := members[payerID]
			before, err := payer.Debit(total, now)
			if err != nil {
				if shared.IsCode(err, shared.CodeInsufficientBalance) {
					rejected = membership.NewWalletDebitRejectedEvent(payer.ID, payer.WalletBalance, total, &session.ID, now)
				}
				return err
			}
			ledger, err = membership.NewWalletTransaction(payer.ID, membership.WalletTransactionTypeSessionCharge,
				total, before, payer.WalletBalance, now)
			if err != nil {
				return err
			}
			ledger.WithSession(session.ID).WithOperator(input.OperatorID)
		}

		shares, err := session.Shares()
		if err != nil {
			return err
		}
		hours := session.Hours()
		for _, share := range shares {
			if err := members[share.MemberID].RecordUsage(hours, share.Amount, now); err != nil {
				return err
			}
		}

		table, err := repos.Tables().FindByIDForUpdate(ctx, session.TableID)
		if err != nil {
			return err
		}
		if err := table.Release(session.ID, now); err != nil {
			return err
		}

		if err := repos.Sessions().Save(ctx, session); err != nil {
			return err
		}
		if err := repos.Tables().Save(ctx, table); err != nil {
			return err
		}
		aggregates := []shared.AggregateRoot{session, table}
		for _, id := range session.MemberIDs {
			if err := repos.Members().Save(ctx, members[id]); err != nil {
				return err
			}
			aggregates = append(aggregates, members[id])
		}
		if ledger != nil {
			if err := repos.WalletTransactions().Create(ctx, ledger); err != nil {
				return err
			}
		}

		result, err := s.accrual.Accrue(ctx, repos, session, members, shares, now)
		if err != nil {
			return err
		}
		for _, a := range result.Affiliates {
			aggregates = append(aggregates, a)
		}
		events = shared.CollectEvents(aggregates...)
		for _, e := range result.Skipped {
			events = append(events, e)
		}
		skipped = len(result.Skipped)
		return nil
	})
	if err != nil {
		if rejected != nil {
			publishEvents(ctx, s.eventPublisher, s.logger, []shared.DomainEvent{rejected})
			s.logger.Info("Session settlement rejected",
				zap.String("session_id", input.SessionID.String()),
				zap.String("member_id", rejected.MemberID.String()),
				zap.String("available", rejected.Available.StringFixed(2)),
				zap.String("required", rejected.Required.StringFixed(2)))
		}
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("Session settled",
		zap.String("session_id", session.ID.String()),
		zap.String("payment_method", input.PaymentMethod.String()),
		zap.String("total_price", session.TotalPrice.StringFixed(2)),
		zap.String("paid_by", session.PaidBy.String()),
		zap.Int("accruals_skipped", skipped),
		zap.String("operator_id", input.OperatorID))

	resp := ToSessionResponse(session, now)
	return &resp, nil
}

// GetSession returns a session with elapsed time and running price as of now
func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session, s.clock.Now())
	return &resp, nil
}

// ListSessions lists sessions matching the filter
func (s *SessionService) ListSessions(ctx context.Context, filter occupancy.SessionFilter) (shared.Paginated[SessionResponse], error) {
	normalizeFilter(&filter.Filter)
	var (
		sessions []occupancy.Session
		total    int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sessions, total, err = repos.Sessions().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return shared.Paginated[SessionResponse]{}, err
	}
	now := s.clock.Now()
	return shared.NewPaginated(ToSessionResponses(sessions, now), total, filter.Page, filter.PageSize), nil
}

// CountActiveSessions returns how many sessions are currently timing
func (s *SessionService) CountActiveSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		count, err = repos.Sessions().CountByStatus(ctx, occupancy.SessionStatusActive)
		return err
	})
	return count, err
}

func (s *SessionService) loadSession(ctx context.Context, sessionID uuid.UUID) (*occupancy.Session, error) {
	var session *occupancy.Session
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.Sessions().FindByID(ctx, sessionID)
		return err
	})
	return session, err
}

// ensureNoOpenSession rejects a table that still carries an unsettled session
func ensureNoOpenSession(ctx context.Context, sessions occupancy.SessionRepository, table *occupancy.Table) error {
	open, err := sessions.FindOpenByTable(ctx, table.ID)
	switch {
	case err == nil:
		return shared.NewDomainError(shared.CodeConflict,
			"Table "+table.Name+" already has an open session ("+open.Status.String()+")")
	case shared.IsCode(err, shared.CodeNotFound):
		return nil
	default:
		return err
	}
}

// ensureMembersExist fails with NOT_FOUND if any member id is unknown
func ensureMembersExist(ctx context.Context, members membership.MemberRepository, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := members.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for i := range found {
		known[found[i].ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return shared.NewDomainError(shared.CodeNotFound, "Member "+id.String()+" not found")
		}
	}
	return nil
}

// normalizeFilter applies paging defaults
func normalizeFilter(f *shared.Filter) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}
