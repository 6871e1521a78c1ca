package occupancy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared"
)

// TableStatus represents the occupancy status of a table
type TableStatus string

const (
	TableStatusAvailable TableStatus = "AVAILABLE"
	TableStatusReserved  TableStatus = "RESERVED"
	TableStatusOccupied  TableStatus = "OCCUPIED"
)

// IsValid checks if the status is a valid TableStatus
func (s TableStatus) IsValid() bool {
	switch s {
	case TableStatusAvailable, TableStatusReserved, TableStatusOccupied:
		return true
	}
	return false
}

// String returns the string representation of TableStatus
func (s TableStatus) String() string {
	return string(s)
}

// Table is a bookable seat or room billed by the hour.
// CurrentSessionID points at the open session holding the table, if any.
type Table struct {
	shared.BaseAggregateRoot
	Name             string
	HourlyRate       decimal.Decimal
	Status           TableStatus
	CurrentSessionID *uuid.UUID
}

// NewTable creates a new available table
func NewTable(name string, hourlyRate decimal.Decimal, now time.Time) (*Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Table name cannot be empty")
	}
	if err := validateRate(hourlyRate); err != nil {
		return nil, err
	}

	t := &Table{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Name:              name,
		HourlyRate:        hourlyRate,
		Status:            TableStatusAvailable,
	}
	t.AddDomainEvent(NewTableCreatedEvent(t, now))
	return t, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Hourly rate cannot be negative")
	}
	if !rate.Equal(rate.Round(2)) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Hourly rate cannot have more than 2 decimal places")
	}
	return nil
}

// IsAvailable returns true if no session holds the table
func (t *Table) IsAvailable() bool {
	return t.Status == TableStatusAvailable
}

// IsHeldBy returns true if the given session currently holds the table
func (t *Table) IsHeldBy(sessionID uuid.UUID) bool {
	return t.CurrentSessionID != nil && *t.CurrentSessionID == sessionID
}

// Reserve holds the table for a pending session
func (t *Table) Reserve(sessionID uuid.UUID, now time.Time) error {
	if !t.IsAvailable() {
		return shared.NewDomainError(shared.CodeConflict, fmt.Sprintf("Table %s is %s", t.Name, t.Status))
	}
	t.changeStatus(TableStatusReserved, &sessionID, now)
	return nil
}

// Occupy marks the table occupied by the given session. A table reserved for
// that same session may be occupied; any other holder is a conflict.
func (t *Table) Occupy(sessionID uuid.UUID, now time.Time) error {
	switch {
	case t.IsAvailable():
	case t.Status == TableStatusReserved && t.IsHeldBy(sessionID):
	default:
		return shared.NewDomainError(shared.CodeConflict, fmt.Sprintf("Table %s already has an open session", t.Name))
	}
	t.changeStatus(TableStatusOccupied, &sessionID, now)
	return nil
}

// Release returns the table to available once its session is settled
func (t *Table) Release(sessionID uuid.UUID, now time.Time) error {
	if !t.IsHeldBy(sessionID) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Table %s is not held by session %s", t.Name, sessionID))
	}
	t.changeStatus(TableStatusAvailable, nil, now)
	return nil
}

// ChangeRate updates the hourly rate. Only allowed while no session holds the table.
func (t *Table) ChangeRate(rate decimal.Decimal, now time.Time) error {
	if !t.IsAvailable() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot change rate of table in %s status", t.Status))
	}
	if err := validateRate(rate); err != nil {
		return err
	}
	old := t.HourlyRate
	t.HourlyRate = rate
	t.Touch(now)
	t.AddDomainEvent(NewTableRateChangedEvent(t, old, now))
	return nil
}

func (t *Table) changeStatus(status TableStatus, sessionID *uuid.UUID, now time.Time) {
	old := t.Status
	t.Status = status
	t.CurrentSessionID = sessionID
	t.Touch(now)
	t.AddDomainEvent(NewTableStatusChangedEvent(t, old, now))
}
