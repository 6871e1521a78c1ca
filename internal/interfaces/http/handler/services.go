package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
)

// TableService is the table catalogue surface the handlers need.
type TableService interface {
	CreateTable(ctx context.Context, input billing.CreateTableInput) (*billing.TableResponse, error)
	GetTable(ctx context.Context, id uuid.UUID) (*billing.TableResponse, error)
	ListTables(ctx context.Context, filter occupancy.TableFilter) (shared.Paginated[billing.TableResponse], error)
	UpdateRate(ctx context.Context, id uuid.UUID, rate decimal.Decimal) (*billing.TableResponse, error)
}

// SessionService is the session lifecycle surface the handlers need.
type SessionService interface {
	ReserveSession(ctx context.Context, input billing.StartSessionInput) (*billing.SessionResponse, error)
	StartSession(ctx context.Context, input billing.StartSessionInput) (*billing.SessionResponse, error)
	StartReservedSession(ctx context.Context, id uuid.UUID) (*billing.SessionResponse, error)
	EndSession(ctx context.Context, id uuid.UUID) (*billing.SessionResponse, error)
	ForceEndSession(ctx context.Context, id uuid.UUID, reason string) (*billing.SessionResponse, error)
	AddStoreCharge(ctx context.Context, id uuid.UUID, amount decimal.Decimal, description string) (*billing.SessionResponse, error)
	SettleSession(ctx context.Context, input billing.SettleSessionInput) (*billing.SessionResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*billing.SessionResponse, error)
	ListSessions(ctx context.Context, filter occupancy.SessionFilter) (shared.Paginated[billing.SessionResponse], error)
}

// MemberService is the member registry surface the handlers need.
type MemberService interface {
	RegisterMember(ctx context.Context, input billing.RegisterMemberInput) (*billing.MemberResponse, error)
	GetMember(ctx context.Context, id uuid.UUID) (*billing.MemberResponse, error)
	ListMembers(ctx context.Context, filter shared.Filter) (shared.Paginated[billing.MemberResponse], error)
}

// WalletService is the wallet ledger surface the handlers need.
type WalletService interface {
	GetWalletBalance(ctx context.Context, memberID uuid.UUID) (*billing.WalletBalanceResponse, error)
	CreditWallet(ctx context.Context, input billing.WalletMutationInput) (*billing.WalletTransactionResponse, error)
	DebitWallet(ctx context.Context, input billing.WalletMutationInput) (*billing.WalletTransactionResponse, error)
	ListTransactions(ctx context.Context, memberID uuid.UUID, filter membership.WalletTransactionFilter) (shared.Paginated[billing.WalletTransactionResponse], error)
}

// AffiliateService is the affiliate surface the handlers need.
type AffiliateService interface {
	CreateAffiliate(ctx context.Context, input billing.CreateAffiliateInput) (*billing.AffiliateResponse, error)
	GetAffiliate(ctx context.Context, id uuid.UUID) (*billing.AffiliateResponse, error)
	ListAffiliates(ctx context.Context, filter shared.Filter) (shared.Paginated[billing.AffiliateResponse], error)
	ListEarnings(ctx context.Context, affiliateID uuid.UUID, filter shared.Filter) (shared.Paginated[billing.EarningResponse], error)
}

var (
	_ TableService     = (*billing.TableService)(nil)
	_ SessionService   = (*billing.SessionService)(nil)
	_ MemberService    = (*billing.MemberService)(nil)
	_ WalletService    = (*billing.WalletService)(nil)
	_ AffiliateService = (*billing.AffiliateService)(nil)
)
