package membership

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/domain/shared/valueobject"
)

// Member is a registered customer of the hub with a prepaid wallet.
// WalletBalance never goes negative.
type Member struct {
	shared.BaseAggregateRoot
	Name          string
	Phone         string
	WalletBalance decimal.Decimal
	ReferredBy    *uuid.UUID
	TotalHours    decimal.Decimal
	TotalSpent    decimal.Decimal
}

// NewMember registers a member with an empty wallet
func NewMember(name, phone string, referredBy *uuid.UUID, now time.Time) (*Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Member name cannot be empty")
	}
	if referredBy != nil && *referredBy == uuid.Nil {
		referredBy = nil
	}

	m := &Member{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Name:              name,
		Phone:             strings.TrimSpace(phone),
		WalletBalance:     decimal.Zero,
		ReferredBy:        referredBy,
		TotalHours:        decimal.Zero,
		TotalSpent:        decimal.Zero,
	}
	m.AddDomainEvent(NewMemberRegisteredEvent(m, now))
	return m, nil
}

// IsReferred returns true if another member referred this one
func (m *Member) IsReferred() bool {
	return m.ReferredBy != nil
}

// Credit adds amount to the wallet and returns the balance before the change
func (m *Member) Credit(amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	before := m.WalletBalance
	m.WalletBalance = before.Add(amount)
	m.Touch(now)
	m.AddDomainEvent(NewWalletBalanceChangedEvent(m, before, now))
	return before, nil
}

// Debit removes amount from the wallet and returns the balance before the
// change. A debit that would overdraw fails and leaves the balance untouched.
func (m *Member) Debit(amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	before := m.WalletBalance
	if before.LessThan(amount) {
		return decimal.Zero, shared.NewDomainError(shared.CodeInsufficientBalance,
			fmt.Sprintf("Insufficient wallet balance: available %s, required %s", before.StringFixed(2), amount.StringFixed(2)))
	}
	m.WalletBalance = before.Sub(amount)
	m.Touch(now)
	m.AddDomainEvent(NewWalletBalanceChangedEvent(m, before, now))
	return before, nil
}

// HasSufficientBalance returns true if the wallet covers amount
func (m *Member) HasSufficientBalance(amount decimal.Decimal) bool {
	return m.WalletBalance.GreaterThanOrEqual(amount)
}

// RecordUsage adds a settled session's hours and the member's share of its price
func (m *Member) RecordUsage(hours, spent decimal.Decimal, now time.Time) error {
	if hours.IsNegative() || spent.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Usage cannot be negative")
	}
	m.TotalHours = m.TotalHours.Add(hours)
	m.TotalSpent = m.TotalSpent.Add(spent)
	m.Touch(now)
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Amount must be positive")
	}
	if !valueobject.IsWholeCents(amount) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Amount cannot have more than 2 decimal places")
	}
	return nil
}
