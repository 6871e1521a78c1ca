package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/affiliate"
)

// AffiliateModel is the persistence model for the Affiliate aggregate root.
type AffiliateModel struct {
	AggregateModel
	OwnerMemberID   uuid.UUID       `gorm:"size:36;not null;uniqueIndex"`
	Code            string          `gorm:"size:32;not null;uniqueIndex"`
	CommissionRate  decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	PendingEarnings decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaidEarnings    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalReferrals  int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (AffiliateModel) TableName() string {
	return "affiliates"
}

// ToDomain converts the persistence model to a domain Affiliate.
func (m *AffiliateModel) ToDomain() *affiliate.Affiliate {
	return &affiliate.Affiliate{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OwnerMemberID:     m.OwnerMemberID,
		Code:              m.Code,
		CommissionRate:    m.CommissionRate,
		PendingEarnings:   m.PendingEarnings,
		PaidEarnings:      m.PaidEarnings,
		TotalReferrals:    m.TotalReferrals,
	}
}

// FromDomain populates the persistence model from a domain Affiliate.
func (m *AffiliateModel) FromDomain(a *affiliate.Affiliate) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.OwnerMemberID = a.OwnerMemberID
	m.Code = a.Code
	m.CommissionRate = a.CommissionRate
	m.PendingEarnings = a.PendingEarnings
	m.PaidEarnings = a.PaidEarnings
	m.TotalReferrals = a.TotalReferrals
}

// AffiliateModelFromDomain creates a persistence model from a domain Affiliate.
func AffiliateModelFromDomain(a *affiliate.Affiliate) *AffiliateModel {
	m := &AffiliateModel{}
	m.FromDomain(a)
	return m
}

// EarningModel is the persistence model for a commission line.
type EarningModel struct {
	BaseModel
	AffiliateID    uuid.UUID       `gorm:"size:36;not null;index"`
	SessionID      uuid.UUID       `gorm:"size:36;not null;index"`
	MemberID       uuid.UUID       `gorm:"size:36;not null"`
	ShareAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Commission     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (EarningModel) TableName() string {
	return "affiliate_earnings"
}

// ToDomain converts the persistence model to a domain Earning.
func (m *EarningModel) ToDomain() *affiliate.Earning {
	return &affiliate.Earning{
		BaseEntity:     m.BaseModel.ToDomain(),
		AffiliateID:    m.AffiliateID,
		SessionID:      m.SessionID,
		MemberID:       m.MemberID,
		ShareAmount:    m.ShareAmount,
		CommissionRate: m.CommissionRate,
		Commission:     m.Commission,
	}
}

// EarningModelFromDomain creates a persistence model from a domain Earning.
func EarningModelFromDomain(e *affiliate.Earning) *EarningModel {
	m := &EarningModel{
		AffiliateID:    e.AffiliateID,
		SessionID:      e.SessionID,
		MemberID:       e.MemberID,
		ShareAmount:    e.ShareAmount,
		CommissionRate: e.CommissionRate,
		Commission:     e.Commission,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
