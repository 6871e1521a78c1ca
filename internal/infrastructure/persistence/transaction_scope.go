package persistence

import (
	"context"

	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"gorm.io/gorm"
)

// GormTransactionScope implements billing.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. The transaction is rolled
// back if fn returns an error or panics and committed otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos billing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories binds every billing repository to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Tables() occupancy.TableRepository {
	return NewGormTableRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sessions() occupancy.SessionRepository {
	return NewGormSessionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Members() membership.MemberRepository {
	return NewGormMemberRepository(r.tx)
}

func (r *gormTransactionalRepositories) WalletTransactions() membership.WalletTransactionRepository {
	return NewGormWalletTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Affiliates() affiliate.AffiliateRepository {
	return NewGormAffiliateRepository(r.tx)
}

func (r *gormTransactionalRepositories) Earnings() affiliate.EarningRepository {
	return NewGormEarningRepository(r.tx)
}

var (
	_ billing.TransactionScope          = (*GormTransactionScope)(nil)
	_ billing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
