package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/membership"
)

// MemberModel is the persistence model for the Member aggregate root.
type MemberModel struct {
	AggregateModel
	Name          string          `gorm:"size:200;not null"`
	Phone         string          `gorm:"size:50;index"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ReferredBy    *uuid.UUID      `gorm:"size:36;index"`
	TotalHours    decimal.Decimal `gorm:"type:decimal(16,6);not null;default:0"`
	TotalSpent    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (MemberModel) TableName() string {
	return "members"
}

// ToDomain converts the persistence model to a domain Member.
func (m *MemberModel) ToDomain() *membership.Member {
	return &membership.Member{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Phone:             m.Phone,
		WalletBalance:     m.WalletBalance,
		ReferredBy:        m.ReferredBy,
		TotalHours:        m.TotalHours,
		TotalSpent:        m.TotalSpent,
	}
}

// FromDomain populates the persistence model from a domain Member.
func (m *MemberModel) FromDomain(member *membership.Member) {
	m.FromDomainAggregateRoot(member.BaseAggregateRoot)
	m.Name = member.Name
	m.Phone = member.Phone
	m.WalletBalance = member.WalletBalance
	m.ReferredBy = member.ReferredBy
	m.TotalHours = member.TotalHours
	m.TotalSpent = member.TotalSpent
}

// MemberModelFromDomain creates a persistence model from a domain Member.
func MemberModelFromDomain(member *membership.Member) *MemberModel {
	m := &MemberModel{}
	m.FromDomain(member)
	return m
}

// WalletTransactionModel is the persistence model for one wallet ledger row.
// Rows are insert-only.
type WalletTransactionModel struct {
	BaseModel
	MemberID        uuid.UUID       `gorm:"size:36;not null;index:idx_wallet_tx_member_date,priority:1"`
	TransactionType string          `gorm:"size:20;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SessionID       *uuid.UUID      `gorm:"size:36;index"`
	Reason          string          `gorm:"size:255"`
	OperatorID      string          `gorm:"size:100"`
	TransactionDate time.Time       `gorm:"not null;index:idx_wallet_tx_member_date,priority:2"`
}

// TableName returns the table name for GORM
func (WalletTransactionModel) TableName() string {
	return "wallet_transactions"
}

// ToDomain converts the persistence model to a domain WalletTransaction.
func (m *WalletTransactionModel) ToDomain() *membership.WalletTransaction {
	return &membership.WalletTransaction{
		BaseEntity:      m.BaseModel.ToDomain(),
		MemberID:        m.MemberID,
		TransactionType: membership.WalletTransactionType(m.TransactionType),
		Amount:          m.Amount,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		SessionID:       m.SessionID,
		Reason:          m.Reason,
		OperatorID:      m.OperatorID,
		TransactionDate: m.TransactionDate,
	}
}

// WalletTransactionModelFromDomain creates a persistence model from a domain WalletTransaction.
func WalletTransactionModelFromDomain(tx *membership.WalletTransaction) *WalletTransactionModel {
	m := &WalletTransactionModel{
		MemberID:        tx.MemberID,
		TransactionType: string(tx.TransactionType),
		Amount:          tx.Amount,
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
		SessionID:       tx.SessionID,
		Reason:          tx.Reason,
		OperatorID:      tx.OperatorID,
		TransactionDate: tx.TransactionDate,
	}
	m.FromDomainBaseEntity(tx.BaseEntity)
	return m
}
