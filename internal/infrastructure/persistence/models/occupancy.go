package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/occupancy"
)

// TableModel is the persistence model for the Table aggregate root.
type TableModel struct {
	AggregateModel
	Name             string          `gorm:"size:100;not null"`
	HourlyRate       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status           string          `gorm:"size:20;not null;index"`
	CurrentSessionID *uuid.UUID      `gorm:"size:36"`
}

// TableName returns the table name for GORM
func (TableModel) TableName() string {
	return "hub_tables"
}

// ToDomain converts the persistence model to a domain Table.
func (m *TableModel) ToDomain() *occupancy.Table {
	return &occupancy.Table{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		HourlyRate:        m.HourlyRate,
		Status:            occupancy.TableStatus(m.Status),
		CurrentSessionID:  m.CurrentSessionID,
	}
}

// FromDomain populates the persistence model from a domain Table.
func (m *TableModel) FromDomain(t *occupancy.Table) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.HourlyRate = t.HourlyRate
	m.Status = string(t.Status)
	m.CurrentSessionID = t.CurrentSessionID
}

// TableModelFromDomain creates a persistence model from a domain Table.
func TableModelFromDomain(t *occupancy.Table) *TableModel {
	m := &TableModel{}
	m.FromDomain(t)
	return m
}

// SessionModel is the persistence model for the Session aggregate root.
// Member IDs live in session_members, ordered by position.
type SessionModel struct {
	AggregateModel
	TableID        uuid.UUID       `gorm:"size:36;not null;index"`
	HourlyRate     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         string          `gorm:"size:20;not null;index"`
	StartTime      *time.Time
	EndTime        *time.Time       `gorm:"index"`
	ElapsedSeconds int64            `gorm:"not null;default:0"`
	StoreCharges   decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPrice     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PaymentMethod  *string          `gorm:"size:10"`
	PaidBy         *uuid.UUID       `gorm:"size:36"`
	IsPaid         bool             `gorm:"not null;default:false"`
	SettledAt      *time.Time
	ForcedEnd      bool                 `gorm:"not null;default:false"`
	EndReason      string               `gorm:"size:255"`
	Members        []SessionMemberModel `gorm:"foreignKey:SessionID;references:ID"`
}

// TableName returns the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}

// ToDomain converts the persistence model to a domain Session. Members must
// be preloaded.
func (m *SessionModel) ToDomain() *occupancy.Session {
	s := &occupancy.Session{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TableID:           m.TableID,
		MemberIDs:         make([]uuid.UUID, len(m.Members)),
		HourlyRate:        m.HourlyRate,
		Status:            occupancy.SessionStatus(m.Status),
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		ElapsedSeconds:    m.ElapsedSeconds,
		StoreCharges:      m.StoreCharges,
		TotalPrice:        m.TotalPrice,
		PaidBy:            m.PaidBy,
		IsPaid:            m.IsPaid,
		SettledAt:         m.SettledAt,
		ForcedEnd:         m.ForcedEnd,
		EndReason:         m.EndReason,
	}
	for _, member := range m.Members {
		if member.Position >= 0 && member.Position < len(s.MemberIDs) {
			s.MemberIDs[member.Position] = member.MemberID
		}
	}
	if m.PaymentMethod != nil {
		pm := occupancy.PaymentMethod(*m.PaymentMethod)
		s.PaymentMethod = &pm
	}
	return s
}

// FromDomain populates the persistence model from a domain Session.
func (m *SessionModel) FromDomain(s *occupancy.Session) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.TableID = s.TableID
	m.HourlyRate = s.HourlyRate
	m.Status = string(s.Status)
	m.StartTime = s.StartTime
	m.EndTime = s.EndTime
	m.ElapsedSeconds = s.ElapsedSeconds
	m.StoreCharges = s.StoreCharges
	m.TotalPrice = s.TotalPrice
	m.PaidBy = s.PaidBy
	m.IsPaid = s.IsPaid
	m.SettledAt = s.SettledAt
	m.ForcedEnd = s.ForcedEnd
	m.EndReason = s.EndReason
	m.PaymentMethod = nil
	if s.PaymentMethod != nil {
		pm := string(*s.PaymentMethod)
		m.PaymentMethod = &pm
	}
	m.Members = make([]SessionMemberModel, len(s.MemberIDs))
	for i, id := range s.MemberIDs {
		m.Members[i] = SessionMemberModel{SessionID: s.ID, MemberID: id, Position: i}
	}
}

// SessionModelFromDomain creates a persistence model from a domain Session.
func SessionModelFromDomain(s *occupancy.Session) *SessionModel {
	m := &SessionModel{}
	m.FromDomain(s)
	return m
}

// SessionMemberModel links a member to a session. Position keeps the order
// of memberIds, which decides the default payer and who takes the split
// remainder.
type SessionMemberModel struct {
	SessionID uuid.UUID `gorm:"size:36;primaryKey"`
	MemberID  uuid.UUID `gorm:"size:36;primaryKey;index"`
	Position  int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SessionMemberModel) TableName() string {
	return "session_members"
}
