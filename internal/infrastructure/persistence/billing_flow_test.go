package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// billingEnv wires the billing services to a real database and the
// in-process locker
type billingEnv struct {
	db         *gorm.DB
	clock      *shared.ManualClock
	tables     *billing.TableService
	members    *billing.MemberService
	wallets    *billing.WalletService
	sessions   *billing.SessionService
	affiliates *billing.AffiliateService
}

func newBillingEnv(t *testing.T) *billingEnv {
	t.Helper()
	return newBillingEnvOn(newSQLiteDB(t), cache.NewLocalLocker())
}

func newBillingEnvOn(db *gorm.DB, locker billing.EntityLocker) *billingEnv {
	scope := NewGormTransactionScope(db)
	clock := shared.NewManualClock(time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	return &billingEnv{
		db:         db,
		clock:      clock,
		tables:     billing.NewTableService(scope, locker, clock, log),
		members:    billing.NewMemberService(scope, clock, log),
		wallets:    billing.NewWalletService(scope, locker, clock, "", log),
		sessions:   billing.NewSessionService(scope, locker, clock, log),
		affiliates: billing.NewAffiliateService(scope, clock, log),
	}
}

func (e *billingEnv) table(t *testing.T, rate string) uuid.UUID {
	t.Helper()
	resp, err := e.tables.CreateTable(context.Background(), billing.CreateTableInput{
		Name: "Table " + uuid.NewString()[:4], HourlyRate: decimal.RequireFromString(rate),
	})
	require.NoError(t, err)
	return resp.ID
}

func (e *billingEnv) member(t *testing.T, name, referralCode, balance string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	resp, err := e.members.RegisterMember(ctx, billing.RegisterMemberInput{Name: name, ReferralCode: referralCode})
	require.NoError(t, err)
	if amount := decimal.RequireFromString(balance); amount.IsPositive() {
		_, err = e.wallets.CreditWallet(ctx, billing.WalletMutationInput{MemberID: resp.ID, Amount: amount, Reason: "top-up"})
		require.NoError(t, err)
	}
	return resp.ID
}

// endedSession starts a session and ends it after d
func (e *billingEnv) endedSession(t *testing.T, tableID uuid.UUID, d time.Duration, memberIDs ...uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	started, err := e.sessions.StartSession(ctx, billing.StartSessionInput{TableID: tableID, MemberIDs: memberIDs})
	require.NoError(t, err)
	e.clock.Advance(d)
	_, err = e.sessions.EndSession(ctx, started.ID)
	require.NoError(t, err)
	return started.ID
}

func TestBillingFlow_WalletSettlementWithReferral(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	owner := env.member(t, "Omar", "", "0")
	aff, err := env.affiliates.CreateAffiliate(ctx, billing.CreateAffiliateInput{
		OwnerMemberID: owner, Code: "friend30", CommissionRate: decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	player := env.member(t, "Mona", "FRIEND30", "100")
	tableID := env.table(t, "20")

	sessionID := env.endedSession(t, tableID, 90*time.Minute, player)

	settled, err := env.sessions.SettleSession(ctx, billing.SettleSessionInput{
		SessionID: sessionID, PaymentMethod: occupancy.PaymentMethodWallet, OperatorID: "cashier-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "SETTLED", settled.Status)
	assert.Equal(t, "30.00", settled.TotalPrice.StringFixed(2))
	assert.Equal(t, int64(5400), settled.ElapsedSeconds)

	balance, err := env.wallets.GetWalletBalance(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, "70.00", balance.Balance.StringFixed(2))

	m, err := env.members.GetMember(ctx, player)
	require.NoError(t, err)
	assert.True(t, m.TotalHours.Equal(decimal.RequireFromString("1.5")), "total hours %s", m.TotalHours)
	assert.Equal(t, "30.00", m.TotalSpent.StringFixed(2))
	require.NotNil(t, m.ReferredBy)
	assert.Equal(t, owner, *m.ReferredBy)

	ledger, err := NewGormWalletTransactionRepository(env.db).FindBySessionID(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, membership.WalletTransactionTypeSessionCharge, ledger[0].TransactionType)
	assert.Equal(t, "100.00", ledger[0].BalanceBefore.StringFixed(2))
	assert.Equal(t, "cashier-1", ledger[0].OperatorID)

	gotAff, err := env.affiliates.GetAffiliate(ctx, aff.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.00", gotAff.PendingEarnings.StringFixed(2))
	assert.Equal(t, 1, gotAff.TotalReferrals)

	lines, err := env.affiliates.ListEarnings(ctx, aff.ID, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, lines.Items, 1)
	assert.Equal(t, player, lines.Items[0].MemberID)

	table, err := env.tables.GetTable(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, "AVAILABLE", table.Status)
	assert.Nil(t, table.CurrentSessionID)
}

func TestBillingFlow_InsufficientBalanceRollsBack(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	player := env.member(t, "Karim", "", "10")
	tableID := env.table(t, "20")
	sessionID := env.endedSession(t, tableID, 90*time.Minute, player)

	_, err := env.sessions.SettleSession(ctx, billing.SettleSessionInput{
		SessionID: sessionID, PaymentMethod: occupancy.PaymentMethodWallet,
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientBalance), "got %v", err)

	session, err := env.sessions.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "ENDED", session.Status)
	assert.False(t, session.IsPaid)

	balance, err := env.wallets.GetWalletBalance(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, "10.00", balance.Balance.StringFixed(2))

	m, err := env.members.GetMember(ctx, player)
	require.NoError(t, err)
	assert.True(t, m.TotalHours.IsZero())

	table, err := env.tables.GetTable(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, "OCCUPIED", table.Status)

	// the operator falls back to cash
	settled, err := env.sessions.SettleSession(ctx, billing.SettleSessionInput{
		SessionID: sessionID, PaymentMethod: occupancy.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "SETTLED", settled.Status)

	ledger, err := NewGormWalletTransactionRepository(env.db).FindBySessionID(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestBillingFlow_ConcurrentSettleChargesOnce(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	a := env.member(t, "Hana", "", "100")
	b := env.member(t, "Yara", "", "100")
	tableID := env.table(t, "20")
	sessionID := env.endedSession(t, tableID, time.Hour, a, b)

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.sessions.SettleSession(ctx, billing.SettleSessionInput{
				SessionID: sessionID, PaymentMethod: occupancy.PaymentMethodWallet,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	payer, err := env.wallets.GetWalletBalance(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "80.00", payer.Balance.StringFixed(2))

	other, err := env.members.GetMember(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "100.00", other.WalletBalance.StringFixed(2))
	assert.Equal(t, "10.00", other.TotalSpent.StringFixed(2))
}

func TestBillingFlow_TableHoldsOneOpenSession(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	a := env.member(t, "Ali", "", "0")
	tableID := env.table(t, "15")

	_, err := env.sessions.StartSession(ctx, billing.StartSessionInput{TableID: tableID, MemberIDs: []uuid.UUID{a}})
	require.NoError(t, err)

	_, err = env.sessions.ReserveSession(ctx, billing.StartSessionInput{TableID: tableID, MemberIDs: []uuid.UUID{a}})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeConflict), "got %v", err)

	active, err := env.sessions.CountActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}
