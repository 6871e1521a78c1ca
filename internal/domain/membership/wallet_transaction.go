package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
)

// WalletTransactionType represents the kind of wallet mutation
type WalletTransactionType string

const (
	// WalletTransactionTypeCredit is a top-up or manual credit (balance increase)
	WalletTransactionTypeCredit WalletTransactionType = "CREDIT"
	// WalletTransactionTypeDebit is a manual debit (balance decrease)
	WalletTransactionTypeDebit WalletTransactionType = "DEBIT"
	// WalletTransactionTypeSessionCharge is a session paid from the wallet
	WalletTransactionTypeSessionCharge WalletTransactionType = "SESSION_CHARGE"
)

// String returns the string representation of WalletTransactionType
func (t WalletTransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t WalletTransactionType) IsValid() bool {
	switch t {
	case WalletTransactionTypeCredit, WalletTransactionTypeDebit, WalletTransactionTypeSessionCharge:
		return true
	}
	return false
}

// IsDecrease returns true if this transaction type decreases the balance
func (t WalletTransactionType) IsDecrease() bool {
	return t == WalletTransactionTypeDebit || t == WalletTransactionTypeSessionCharge
}

// WalletTransaction is an immutable ledger row for one wallet mutation.
// Corrections are made with new transactions.
type WalletTransaction struct {
	shared.BaseEntity
	MemberID        uuid.UUID
	TransactionType WalletTransactionType
	Amount          decimal.Decimal // Always positive, direction determined by type
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	SessionID       *uuid.UUID
	Reason          string
	OperatorID      string
	TransactionDate time.Time
}

// NewWalletTransaction creates a new ledger entry
func NewWalletTransaction(
	memberID uuid.UUID,
	txType WalletTransactionType,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	now time.Time,
) (*WalletTransaction, error) {
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Member ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid wallet transaction type")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Amount must be positive")
	}
	if balanceBefore.IsNegative() || balanceAfter.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Wallet balance cannot be negative")
	}

	return &WalletTransaction{
		BaseEntity:      shared.NewBaseEntity(now),
		MemberID:        memberID,
		TransactionType: txType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		TransactionDate: now,
	}, nil
}

// WithSession links the transaction to the session it paid for
func (t *WalletTransaction) WithSession(sessionID uuid.UUID) *WalletTransaction {
	t.SessionID = &sessionID
	return t
}

// WithReason sets the free-text reason
func (t *WalletTransaction) WithReason(reason string) *WalletTransaction {
	t.Reason = reason
	return t
}

// WithOperator records who performed the mutation
func (t *WalletTransaction) WithOperator(operatorID string) *WalletTransaction {
	t.OperatorID = operatorID
	return t
}

// SignedAmount returns the amount negated for decreases
func (t *WalletTransaction) SignedAmount() decimal.Decimal {
	if t.TransactionType.IsDecrease() {
		return t.Amount.Neg()
	}
	return t.Amount
}
