package occupancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/shared"
)

// TableRepository defines persistence for tables
type TableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Table, error)
	// FindByIDForUpdate loads the table and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Table, error)
	FindAll(ctx context.Context, filter TableFilter) ([]Table, int64, error)
	Create(ctx context.Context, table *Table) error
	// Save updates an existing table, failing with CONCURRENCY_CONFLICT if
	// the stored version no longer matches
	Save(ctx context.Context, table *Table) error
}

// TableFilter contains filter options for listing tables
type TableFilter struct {
	shared.Filter
	Status *TableStatus
}

// SessionRepository defines persistence for sessions
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Session, error)
	// FindOpenByTable returns the unsettled session holding the table, or NOT_FOUND
	FindOpenByTable(ctx context.Context, tableID uuid.UUID) (*Session, error)
	FindAll(ctx context.Context, filter SessionFilter) ([]Session, int64, error)
	FindSettledBefore(ctx context.Context, before time.Time, limit int) ([]Session, error)
	CountByStatus(ctx context.Context, status SessionStatus) (int64, error)
	Create(ctx context.Context, session *Session) error
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionFilter contains filter options for listing sessions
type SessionFilter struct {
	shared.Filter
	Status   *SessionStatus
	TableID  *uuid.UUID
	MemberID *uuid.UUID
}
