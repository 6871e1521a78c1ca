package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeMember = "Member"

// Event type constants
const (
	EventTypeMemberRegistered     = "MemberRegistered"
	EventTypeWalletBalanceChanged = "WalletBalanceChanged"
	EventTypeWalletDebitRejected  = "WalletDebitRejected"
)

// MemberRegisteredEvent is published when a member registers
type MemberRegisteredEvent struct {
	shared.BaseDomainEvent
	MemberID   uuid.UUID  `json:"member_id"`
	Name       string     `json:"name"`
	ReferredBy *uuid.UUID `json:"referred_by,omitempty"`
}

// NewMemberRegisteredEvent creates a new MemberRegisteredEvent
func NewMemberRegisteredEvent(m *Member, now time.Time) *MemberRegisteredEvent {
	return &MemberRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMemberRegistered, AggregateTypeMember, m.ID, now),
		MemberID:        m.ID,
		Name:            m.Name,
		ReferredBy:      m.ReferredBy,
	}
}

// WalletBalanceChangedEvent is published on every wallet credit or debit
type WalletBalanceChangedEvent struct {
	shared.BaseDomainEvent
	MemberID      uuid.UUID       `json:"member_id"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Delta         decimal.Decimal `json:"delta"`
}

// NewWalletBalanceChangedEvent creates a new WalletBalanceChangedEvent
func NewWalletBalanceChangedEvent(m *Member, before decimal.Decimal, now time.Time) *WalletBalanceChangedEvent {
	return &WalletBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletBalanceChanged, AggregateTypeMember, m.ID, now),
		MemberID:        m.ID,
		BalanceBefore:   before,
		BalanceAfter:    m.WalletBalance,
		Delta:           m.WalletBalance.Sub(before),
	}
}

// IsCredit returns true if the balance went up
func (e *WalletBalanceChangedEvent) IsCredit() bool {
	return e.Delta.IsPositive()
}

// WalletDebitRejectedEvent is published when a debit is refused for lack of funds
type WalletDebitRejectedEvent struct {
	shared.BaseDomainEvent
	MemberID  uuid.UUID       `json:"member_id"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
	SessionID *uuid.UUID      `json:"session_id,omitempty"`
}

// NewWalletDebitRejectedEvent creates a new WalletDebitRejectedEvent
func NewWalletDebitRejectedEvent(memberID uuid.UUID, available, required decimal.Decimal, sessionID *uuid.UUID, now time.Time) *WalletDebitRejectedEvent {
	return &WalletDebitRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletDebitRejected, AggregateTypeMember, memberID, now),
		MemberID:        memberID,
		Available:       available,
		Required:        required,
		SessionID:       sessionID,
	}
}
