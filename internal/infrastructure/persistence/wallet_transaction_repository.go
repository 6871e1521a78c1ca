package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWalletTransactionRepository implements WalletTransactionRepository using GORM.
// The ledger is append-only: there is no update or delete.
type GormWalletTransactionRepository struct {
	db *gorm.DB
}

// NewGormWalletTransactionRepository creates a new GormWalletTransactionRepository
func NewGormWalletTransactionRepository(db *gorm.DB) *GormWalletTransactionRepository {
	return &GormWalletTransactionRepository{db: db}
}

// Create appends a ledger row
func (r *GormWalletTransactionRepository) Create(ctx context.Context, tx *membership.WalletTransaction) error {
	if err := r.db.WithContext(ctx).Create(models.WalletTransactionModelFromDomain(tx)).Error; err != nil {
		return fmt.Errorf("create wallet transaction: %w", err)
	}
	return nil
}

// FindByMemberID lists a member's ledger, newest first by default
func (r *GormWalletTransactionRepository) FindByMemberID(ctx context.Context, memberID uuid.UUID, filter membership.WalletTransactionFilter) ([]membership.WalletTransaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Where("member_id = ?", memberID)
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", string(*filter.TransactionType))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count wallet transactions: %w", err)
	}

	var rows []models.WalletTransactionModel
	if err := applyPage(query, filter.Filter, WalletTransactionSortFields, "transaction_date").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list wallet transactions: %w", err)
	}
	return toWalletTransactions(rows), total, nil
}

// FindBySessionID returns the ledger rows written by a session's settlement
func (r *GormWalletTransactionRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]membership.WalletTransaction, error) {
	var rows []models.WalletTransactionModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("transaction_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find session wallet transactions: %w", err)
	}
	return toWalletTransactions(rows), nil
}

func toWalletTransactions(rows []models.WalletTransactionModel) []membership.WalletTransaction {
	txs := make([]membership.WalletTransaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs
}

// Ensure GormWalletTransactionRepository implements WalletTransactionRepository
var _ membership.WalletTransactionRepository = (*GormWalletTransactionRepository)(nil)
