package occupancy

import (
	"fmt"
	"strings"

	"github.com/thehub/backend/internal/domain/shared"
)

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	SessionStatusPending SessionStatus = "PENDING"
	SessionStatusActive  SessionStatus = "ACTIVE"
	SessionStatusEnded   SessionStatus = "ENDED"
	SessionStatusSettled SessionStatus = "SETTLED"
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPending, SessionStatusActive, SessionStatusEnded, SessionStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// IsOpen returns true while the session still holds its table
func (s SessionStatus) IsOpen() bool {
	return s != SessionStatusSettled
}

// CanTransitionTo checks if the status can transition to the target status.
// PENDING may jump straight to ENDED through a forced end.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case SessionStatusPending:
		return target == SessionStatusActive || target == SessionStatusEnded
	case SessionStatusActive:
		return target == SessionStatusEnded
	case SessionStatusEnded:
		return target == SessionStatusSettled
	case SessionStatusSettled:
		return false
	}
	return false
}

// PaymentMethod is how a settled session was paid
type PaymentMethod string

const (
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodWallet, PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// IsExternal returns true when payment happens outside the wallet
func (m PaymentMethod) IsExternal() bool {
	return m == PaymentMethodCash || m == PaymentMethodCard
}

// ParsePaymentMethod parses a payment method case-insensitively
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Invalid payment method: %q", s))
	}
	return m, nil
}
