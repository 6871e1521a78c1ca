package billing

import (
	"context"

	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
)

// TransactionScope provides transactional access to the billing repositories.
// All repository calls made inside fn share one database transaction, which
// is committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes every billing repository bound to the
// current transaction.
type TransactionalRepositories interface {
	Tables() occupancy.TableRepository
	Sessions() occupancy.SessionRepository
	Members() membership.MemberRepository
	WalletTransactions() membership.WalletTransactionRepository
	Affiliates() affiliate.AffiliateRepository
	Earnings() affiliate.EarningRepository
}

// Repositories is a plain set of repositories. It doubles as a
// TransactionalRepositories for NoOpTransactionScope.
type Repositories struct {
	TableRepo             occupancy.TableRepository
	SessionRepo           occupancy.SessionRepository
	MemberRepo            membership.MemberRepository
	WalletTransactionRepo membership.WalletTransactionRepository
	AffiliateRepo         affiliate.AffiliateRepository
	EarningRepo           affiliate.EarningRepository
}

func (r *Repositories) Tables() occupancy.TableRepository     { return r.TableRepo }
func (r *Repositories) Sessions() occupancy.SessionRepository { return r.SessionRepo }
func (r *Repositories) Members() membership.MemberRepository  { return r.MemberRepo }
func (r *Repositories) WalletTransactions() membership.WalletTransactionRepository {
	return r.WalletTransactionRepo
}
func (r *Repositories) Affiliates() affiliate.AffiliateRepository { return r.AffiliateRepo }
func (r *Repositories) Earnings() affiliate.EarningRepository     { return r.EarningRepo }

// NoOpTransactionScope runs fn directly against its repositories without a
// transaction. Useful in tests.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*Repositories)(nil)
)
