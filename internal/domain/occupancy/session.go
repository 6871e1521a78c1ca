package occupancy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/domain/shared/valueobject"
)

// MemberShare is one member's part of a session's total price
type MemberShare struct {
	MemberID uuid.UUID
	Amount   decimal.Decimal
}

// Session is one billable occupancy of a Table by one or more members.
//
// StartTime is set once the session leaves PENDING. EndTime, ElapsedSeconds
// and TotalPrice are fixed when it ends. A SETTLED session is immutable.
type Session struct {
	shared.BaseAggregateRoot
	TableID        uuid.UUID
	MemberIDs      []uuid.UUID
	HourlyRate     decimal.Decimal
	Status         SessionStatus
	StartTime      *time.Time
	EndTime        *time.Time
	ElapsedSeconds int64
	StoreCharges   decimal.Decimal
	TotalPrice     *decimal.Decimal
	PaymentMethod  *PaymentMethod
	PaidBy         *uuid.UUID
	IsPaid         bool
	SettledAt      *time.Time
	ForcedEnd      bool
	EndReason      string

	// highest elapsed value handed out by this instance while ACTIVE
	elapsedMark int64
}

// NewSession creates a pending session for the table at its current rate.
// The first member is the default payer.
func NewSession(table *Table, memberIDs []uuid.UUID, now time.Time) (*Session, error) {
	if table == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Table is required")
	}
	if len(memberIDs) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A session needs at least one member")
	}
	seen := make(map[uuid.UUID]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if id == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Member ID cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Member %s listed twice", id))
		}
		seen[id] = struct{}{}
	}

	s := &Session{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		TableID:           table.ID,
		MemberIDs:         append([]uuid.UUID(nil), memberIDs...),
		HourlyRate:        table.HourlyRate,
		Status:            SessionStatusPending,
		StoreCharges:      decimal.Zero,
	}
	s.AddDomainEvent(NewSessionReservedEvent(s, now))
	return s, nil
}

// Start begins the timer. Valid only from PENDING.
func (s *Session) Start(now time.Time) error {
	if !s.Status.CanTransitionTo(SessionStatusActive) {
		return s.invalidState("start")
	}
	s.StartTime = &now
	s.Status = SessionStatusActive
	s.Touch(now)
	s.AddDomainEvent(NewSessionStartedEvent(s, now))
	return nil
}

// Elapsed returns the billable whole seconds as of now. While ACTIVE it is
// recomputed from StartTime on every call and never drops below a value this
// instance already returned, even if the clock steps back. A freshly loaded
// session has no earlier reading, so across loads the value follows the
// injected clock; a reading earlier than StartTime yields zero. Once ended
// the frozen value is returned.
func (s *Session) Elapsed(now time.Time) int64 {
	switch s.Status {
	case SessionStatusActive:
		if elapsed := secondsBetween(*s.StartTime, now); elapsed > s.elapsedMark {
			s.elapsedMark = elapsed
		}
		return s.elapsedMark
	case SessionStatusEnded, SessionStatusSettled:
		return s.ElapsedSeconds
	}
	return 0
}

// RunningPrice is the price the session would end at if ended now
func (s *Session) RunningPrice(now time.Time) decimal.Decimal {
	if s.TotalPrice != nil {
		return *s.TotalPrice
	}
	return TotalPrice(s.Elapsed(now), s.HourlyRate, s.StoreCharges)
}

// AddStoreCharge adds a store order to the session bill.
// Only allowed before the session ends.
func (s *Session) AddStoreCharge(amount decimal.Decimal, now time.Time) error {
	if s.Status != SessionStatusPending && s.Status != SessionStatusActive {
		return s.invalidState("add store charge to")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Store charge must be positive")
	}
	if !valueobject.IsWholeCents(amount) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Store charge cannot have more than 2 decimal places")
	}
	s.StoreCharges = s.StoreCharges.Add(amount)
	s.Touch(now)
	s.AddDomainEvent(NewSessionStoreChargeAddedEvent(s, amount, now))
	return nil
}

// End stops the timer and computes the total price. Valid only from ACTIVE.
func (s *Session) End(now time.Time) error {
	if s.Status != SessionStatusActive {
		return s.invalidState("end")
	}
	end := now
	if end.Before(*s.StartTime) {
		end = *s.StartTime
	}
	elapsed := secondsBetween(*s.StartTime, end)
	if elapsed < s.elapsedMark {
		// keep endTime - startTime equal to the billed seconds
		elapsed = s.elapsedMark
		end = s.StartTime.Add(time.Duration(elapsed) * time.Second)
	}
	s.finish(end, elapsed, false, "", now)
	return nil
}

// ForceEnd ends the session as of its start: zero elapsed time, so only
// store charges are billed. A pending session is started and ended at now.
func (s *Session) ForceEnd(now time.Time, reason string) error {
	switch s.Status {
	case SessionStatusPending:
		s.StartTime = &now
	case SessionStatusActive:
	default:
		return s.invalidState("force end")
	}
	s.finish(*s.StartTime, 0, true, strings.TrimSpace(reason), now)
	return nil
}

func (s *Session) finish(end time.Time, elapsed int64, forced bool, reason string, now time.Time) {
	total := TotalPrice(elapsed, s.HourlyRate, s.StoreCharges)
	s.EndTime = &end
	s.ElapsedSeconds = elapsed
	s.TotalPrice = &total
	s.ForcedEnd = forced
	s.EndReason = reason
	s.Status = SessionStatusEnded
	s.Touch(now)
	s.AddDomainEvent(NewSessionEndedEvent(s, now))
}

// Settle marks the session paid. Valid only from ENDED. The caller persists it
// in the same transaction as the wallet debit, if any.
func (s *Session) Settle(method PaymentMethod, payerID uuid.UUID, now time.Time) error {
	if s.Status != SessionStatusEnded {
		return s.invalidState("settle")
	}
	if !method.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Invalid payment method: %q", method))
	}
	if !s.HasMember(payerID) {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Payer %s is not a member of this session", payerID))
	}
	s.PaymentMethod = &method
	s.PaidBy = &payerID
	s.IsPaid = true
	s.SettledAt = &now
	s.Status = SessionStatusSettled
	s.Touch(now)
	s.AddDomainEvent(NewSessionSettledEvent(s, now))
	return nil
}

// DefaultPayer returns the first member of the session
func (s *Session) DefaultPayer() uuid.UUID {
	return s.MemberIDs[0]
}

// HasMember returns true if the member belongs to the session
func (s *Session) HasMember(memberID uuid.UUID) bool {
	for _, id := range s.MemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}

// Hours returns the frozen elapsed time in hours
func (s *Session) Hours() decimal.Decimal {
	return HoursFromSeconds(s.ElapsedSeconds)
}

// Shares splits the total price equally between members. The first member
// carries any remainder so the shares sum exactly to the total.
func (s *Session) Shares() ([]MemberShare, error) {
	if s.TotalPrice == nil {
		return nil, s.invalidState("split")
	}
	parts, err := valueobject.SplitAmount(*s.TotalPrice, len(s.MemberIDs))
	if err != nil {
		return nil, err
	}
	shares := make([]MemberShare, len(parts))
	for i, p := range parts {
		shares[i] = MemberShare{MemberID: s.MemberIDs[i], Amount: p}
	}
	return shares, nil
}

func (s *Session) invalidState(action string) error {
	return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot %s session in %s status", action, s.Status))
}

func secondsBetween(from, to time.Time) int64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
