package membership

import (
	"context"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/shared"
)

// MemberRepository defines persistence for members
type MemberRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	// FindByIDForUpdate loads the member and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Member, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Member, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Member, int64, error)
	Create(ctx context.Context, member *Member) error
	// Save updates an existing member, failing with CONCURRENCY_CONFLICT if
	// the stored version no longer matches
	Save(ctx context.Context, member *Member) error
}

// WalletTransactionFilter contains filter options for listing wallet transactions
type WalletTransactionFilter struct {
	shared.Filter
	TransactionType *WalletTransactionType
}

// WalletTransactionRepository defines persistence for the wallet ledger
type WalletTransactionRepository interface {
	Create(ctx context.Context, tx *WalletTransaction) error
	FindByMemberID(ctx context.Context, memberID uuid.UUID, filter WalletTransactionFilter) ([]WalletTransaction, int64, error)
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]WalletTransaction, error)
}
