package occupancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeTable   = "Table"
	AggregateTypeSession = "Session"
)

// Event type constants
const (
	EventTypeTableCreated            = "TableCreated"
	EventTypeTableStatusChanged      = "TableStatusChanged"
	EventTypeTableRateChanged        = "TableRateChanged"
	EventTypeSessionReserved         = "SessionReserved"
	EventTypeSessionStarted          = "SessionStarted"
	EventTypeSessionStoreChargeAdded = "SessionStoreChargeAdded"
	EventTypeSessionEnded            = "SessionEnded"
	EventTypeSessionSettled          = "SessionSettled"
)

// TableCreatedEvent is published when a table is created
type TableCreatedEvent struct {
	shared.BaseDomainEvent
	TableID    uuid.UUID       `json:"table_id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// NewTableCreatedEvent creates a new TableCreatedEvent
func NewTableCreatedEvent(t *Table, now time.Time) *TableCreatedEvent {
	return &TableCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTableCreated, AggregateTypeTable, t.ID, now),
		TableID:         t.ID,
		Name:            t.Name,
		HourlyRate:      t.HourlyRate,
	}
}

// TableStatusChangedEvent is published when a table is reserved, occupied or released
type TableStatusChangedEvent struct {
	shared.BaseDomainEvent
	TableID   uuid.UUID   `json:"table_id"`
	OldStatus TableStatus `json:"old_status"`
	NewStatus TableStatus `json:"new_status"`
	SessionID *uuid.UUID  `json:"session_id,omitempty"`
}

// NewTableStatusChangedEvent creates a new TableStatusChangedEvent
func NewTableStatusChangedEvent(t *Table, old TableStatus, now time.Time) *TableStatusChangedEvent {
	return &TableStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTableStatusChanged, AggregateTypeTable, t.ID, now),
		TableID:         t.ID,
		OldStatus:       old,
		NewStatus:       t.Status,
		SessionID:       t.CurrentSessionID,
	}
}

// TableRateChangedEvent is published when a table's hourly rate changes
type TableRateChangedEvent struct {
	shared.BaseDomainEvent
	TableID uuid.UUID       `json:"table_id"`
	OldRate decimal.Decimal `json:"old_rate"`
	NewRate decimal.Decimal `json:"new_rate"`
}

// NewTableRateChangedEvent creates a new TableRateChangedEvent
func NewTableRateChangedEvent(t *Table, old decimal.Decimal, now time.Time) *TableRateChangedEvent {
	return &TableRateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTableRateChanged, AggregateTypeTable, t.ID, now),
		TableID:         t.ID,
		OldRate:         old,
		NewRate:         t.HourlyRate,
	}
}

// SessionReservedEvent is published when a pending session is created
type SessionReservedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID   `json:"session_id"`
	TableID   uuid.UUID   `json:"table_id"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

// NewSessionReservedEvent creates a new SessionReservedEvent
func NewSessionReservedEvent(s *Session, now time.Time) *SessionReservedEvent {
	return &SessionReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionReserved, AggregateTypeSession, s.ID, now),
		SessionID:       s.ID,
		TableID:         s.TableID,
		MemberIDs:       s.MemberIDs,
	}
}

// SessionStartedEvent is published when a session's timer starts
type SessionStartedEvent struct {
	shared.BaseDomainEvent
	SessionID  uuid.UUID       `json:"session_id"`
	TableID    uuid.UUID       `json:"table_id"`
	StartTime  time.Time       `json:"start_time"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// NewSessionStartedEvent creates a new SessionStartedEvent
func NewSessionStartedEvent(s *Session, now time.Time) *SessionStartedEvent {
	return &SessionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionStarted, AggregateTypeSession, s.ID, now),
		SessionID:       s.ID,
		TableID:         s.TableID,
		StartTime:       *s.StartTime,
		HourlyRate:      s.HourlyRate,
	}
}

// SessionStoreChargeAddedEvent is published when a store order is added to a session
type SessionStoreChargeAddedEvent struct {
	shared.BaseDomainEvent
	SessionID    uuid.UUID       `json:"session_id"`
	Amount       decimal.Decimal `json:"amount"`
	StoreCharges decimal.Decimal `json:"store_charges"`
}

// NewSessionStoreChargeAddedEvent creates a new SessionStoreChargeAddedEvent
func NewSessionStoreChargeAddedEvent(s *Session, amount decimal.Decimal, now time.Time) *SessionStoreChargeAddedEvent {
	return &SessionStoreChargeAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionStoreChargeAdded, AggregateTypeSession, s.ID, now),
		SessionID:       s.ID,
		Amount:          amount,
		StoreCharges:    s.StoreCharges,
	}
}

// SessionEndedEvent is published when a session's timer stops
type SessionEndedEvent struct {
	shared.BaseDomainEvent
	SessionID      uuid.UUID       `json:"session_id"`
	TableID        uuid.UUID       `json:"table_id"`
	ElapsedSeconds int64           `json:"elapsed_seconds"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Forced         bool            `json:"forced"`
	Reason         string          `json:"reason,omitempty"`
}

// NewSessionEndedEvent creates a new SessionEndedEvent
func NewSessionEndedEvent(s *Session, now time.Time) *SessionEndedEvent {
	return &SessionEndedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionEnded, AggregateTypeSession, s.ID, now),
		SessionID:       s.ID,
		TableID:         s.TableID,
		ElapsedSeconds:  s.ElapsedSeconds,
		TotalPrice:      *s.TotalPrice,
		Forced:          s.ForcedEnd,
		Reason:          s.EndReason,
	}
}

// SessionSettledEvent is published when a session is paid
type SessionSettledEvent struct {
	shared.BaseDomainEvent
	SessionID      uuid.UUID       `json:"session_id"`
	TableID        uuid.UUID       `json:"table_id"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaidBy         uuid.UUID       `json:"paid_by"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	ElapsedSeconds int64           `json:"elapsed_seconds"`
}

// NewSessionSettledEvent creates a new SessionSettledEvent
func NewSessionSettledEvent(s *Session, now time.Time) *SessionSettledEvent {
	return &SessionSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionSettled, AggregateTypeSession, s.ID, now),
		SessionID:       s.ID,
		TableID:         s.TableID,
		PaymentMethod:   *s.PaymentMethod,
		PaidBy:          *s.PaidBy,
		TotalPrice:      *s.TotalPrice,
		ElapsedSeconds:  s.ElapsedSeconds,
	}
}
