package billing

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]shared.DomainEvent, 0),
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]shared.DomainEvent, 0)
}

// recordingLocker serializes all callers on one mutex and remembers the key
// sets it was asked for
type recordingLocker struct {
	mu    sync.Mutex
	logMu sync.Mutex
	calls [][]string
}

func (l *recordingLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logMu.Lock()
	l.calls = append(l.calls, sortedKeys(keys))
	l.logMu.Unlock()
	l.mu.Lock()
	return l.mu.Unlock, nil
}

func sortedKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (l *recordingLocker) lastCall() []string {
	l.logMu.Lock()
	defer l.logMu.Unlock()
	if len(l.calls) == 0 {
		return nil
	}
	return l.calls[len(l.calls)-1]
}

// memDB is an in-memory store with all-or-nothing transactions. Execute runs
// fn against a copy and swaps it in only when fn succeeds.
type memDB struct {
	mu         sync.Mutex
	tables     map[uuid.UUID]occupancy.Table
	sessions   map[uuid.UUID]occupancy.Session
	members    map[uuid.UUID]membership.Member
	ledger     []membership.WalletTransaction
	affiliates map[uuid.UUID]affiliate.Affiliate
	earnings   []affiliate.Earning
}

type memState struct {
	tables     map[uuid.UUID]occupancy.Table
	sessions   map[uuid.UUID]occupancy.Session
	members    map[uuid.UUID]membership.Member
	ledger     []membership.WalletTransaction
	affiliates map[uuid.UUID]affiliate.Affiliate
	earnings   []affiliate.Earning
}

func newMemDB() *memDB {
	return &memDB{
		tables:     map[uuid.UUID]occupancy.Table{},
		sessions:   map[uuid.UUID]occupancy.Session{},
		members:    map[uuid.UUID]membership.Member{},
		affiliates: map[uuid.UUID]affiliate.Affiliate{},
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (db *memDB) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	work := &memState{
		tables:     copyMap(db.tables),
		sessions:   copyMap(db.sessions),
		members:    copyMap(db.members),
		ledger:     append([]membership.WalletTransaction(nil), db.ledger...),
		affiliates: copyMap(db.affiliates),
		earnings:   append([]affiliate.Earning(nil), db.earnings...),
	}
	if err := fn(work); err != nil {
		return err
	}
	db.tables = work.tables
	db.sessions = work.sessions
	db.members = work.members
	db.ledger = work.ledger
	db.affiliates = work.affiliates
	db.earnings = work.earnings
	return nil
}

func (db *memDB) session(id uuid.UUID) occupancy.Session {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.sessions[id]
}

func (db *memDB) table(id uuid.UUID) occupancy.Table {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.tables[id]
}

func (db *memDB) member(id uuid.UUID) membership.Member {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.members[id]
}

func (db *memDB) affiliate(id uuid.UUID) affiliate.Affiliate {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.affiliates[id]
}

func (db *memDB) walletTransactions() []membership.WalletTransaction {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]membership.WalletTransaction(nil), db.ledger...)
}

func (db *memDB) earningLines() []affiliate.Earning {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]affiliate.Earning(nil), db.earnings...)
}

var _ TransactionScope = (*memDB)(nil)

func (s *memState) Tables() occupancy.TableRepository                          { return memTables{s} }
func (s *memState) Sessions() occupancy.SessionRepository                      { return memSessions{s} }
func (s *memState) Members() membership.MemberRepository                       { return memMembers{s} }
func (s *memState) WalletTransactions() membership.WalletTransactionRepository { return memLedger{s} }
func (s *memState) Affiliates() affiliate.AffiliateRepository                  { return memAffiliates{s} }
func (s *memState) Earnings() affiliate.EarningRepository                      { return memEarnings{s} }

func notFound(what string) error {
	return shared.NewDomainError(shared.CodeNotFound, what+" not found")
}

func stale() error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, "stale version")
}

func page[T any](items []T, f shared.Filter) []T {
	start := f.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}
	return items[start:end]
}

type memTables struct{ s *memState }

func (r memTables) FindByID(_ context.Context, id uuid.UUID) (*occupancy.Table, error) {
	t, ok := r.s.tables[id]
	if !ok {
		return nil, notFound("Table")
	}
	return &t, nil
}

func (r memTables) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*occupancy.Table, error) {
	return r.FindByID(ctx, id)
}

func (r memTables) FindAll(_ context.Context, filter occupancy.TableFilter) ([]occupancy.Table, int64, error) {
	var out []occupancy.Table
	for _, t := range r.s.tables {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Filter), int64(len(out)), nil
}

func (r memTables) Create(_ context.Context, t *occupancy.Table) error {
	c := *t
	c.ClearDomainEvents()
	r.s.tables[t.ID] = c
	return nil
}

func (r memTables) Save(_ context.Context, t *occupancy.Table) error {
	stored, ok := r.s.tables[t.ID]
	if !ok {
		return notFound("Table")
	}
	if stored.Version != t.Version {
		return stale()
	}
	t.IncrementVersion()
	c := *t
	c.ClearDomainEvents()
	r.s.tables[t.ID] = c
	return nil
}

type memSessions struct{ s *memState }

func (r memSessions) FindByID(_ context.Context, id uuid.UUID) (*occupancy.Session, error) {
	s, ok := r.s.sessions[id]
	if !ok {
		return nil, notFound("Session")
	}
	return &s, nil
}

func (r memSessions) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*occupancy.Session, error) {
	return r.FindByID(ctx, id)
}

func (r memSessions) FindOpenByTable(_ context.Context, tableID uuid.UUID) (*occupancy.Session, error) {
	for _, s := range r.s.sessions {
		if s.TableID == tableID && s.Status != occupancy.SessionStatusSettled {
			return &s, nil
		}
	}
	return nil, notFound("Session")
}

func (r memSessions) FindAll(_ context.Context, filter occupancy.SessionFilter) ([]occupancy.Session, int64, error) {
	var out []occupancy.Session
	for _, s := range r.s.sessions {
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.TableID != nil && s.TableID != *filter.TableID {
			continue
		}
		if filter.MemberID != nil && !s.HasMember(*filter.MemberID) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, filter.Filter), int64(len(out)), nil
}

func (r memSessions) FindSettledBefore(_ context.Context, before time.Time, limit int) ([]occupancy.Session, error) {
	var out []occupancy.Session
	for _, s := range r.s.sessions {
		if s.Status == occupancy.SessionStatusSettled && s.EndTime != nil && s.EndTime.Before(before) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(*out[j].EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memSessions) CountByStatus(_ context.Context, status occupancy.SessionStatus) (int64, error) {
	var n int64
	for _, s := range r.s.sessions {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

func (r memSessions) Create(_ context.Context, s *occupancy.Session) error {
	c := *s
	c.ClearDomainEvents()
	r.s.sessions[s.ID] = c
	return nil
}

func (r memSessions) Save(_ context.Context, s *occupancy.Session) error {
	stored, ok := r.s.sessions[s.ID]
	if !ok {
		return notFound("Session")
	}
	if stored.Version != s.Version {
		return stale()
	}
	s.IncrementVersion()
	c := *s
	c.ClearDomainEvents()
	r.s.sessions[s.ID] = c
	return nil
}

func (r memSessions) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.sessions[id]; !ok {
		return notFound("Session")
	}
	delete(r.s.sessions, id)
	return nil
}

type memMembers struct{ s *memState }

func (r memMembers) FindByID(_ context.Context, id uuid.UUID) (*membership.Member, error) {
	m, ok := r.s.members[id]
	if !ok {
		return nil, notFound("Member")
	}
	return &m, nil
}

func (r memMembers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*membership.Member, error) {
	return r.FindByID(ctx, id)
}

func (r memMembers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]membership.Member, error) {
	var out []membership.Member
	for _, id := range ids {
		if m, ok := r.s.members[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memMembers) FindAll(_ context.Context, filter shared.Filter) ([]membership.Member, int64, error) {
	var out []membership.Member
	for _, m := range r.s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter), int64(len(out)), nil
}

func (r memMembers) Create(_ context.Context, m *membership.Member) error {
	c := *m
	c.ClearDomainEvents()
	r.s.members[m.ID] = c
	return nil
}

func (r memMembers) Save(_ context.Context, m *membership.Member) error {
	stored, ok := r.s.members[m.ID]
	if !ok {
		return notFound("Member")
	}
	if stored.Version != m.Version {
		return stale()
	}
	m.IncrementVersion()
	c := *m
	c.ClearDomainEvents()
	r.s.members[m.ID] = c
	return nil
}

type memLedger struct{ s *memState }

func (r memLedger) Create(_ context.Context, tx *membership.WalletTransaction) error {
	r.s.ledger = append(r.s.ledger, *tx)
	return nil
}

func (r memLedger) FindByMemberID(_ context.Context, memberID uuid.UUID, filter membership.WalletTransactionFilter) ([]membership.WalletTransaction, int64, error) {
	var out []membership.WalletTransaction
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		tx := r.s.ledger[i]
		if tx.MemberID != memberID {
			continue
		}
		if filter.TransactionType != nil && tx.TransactionType != *filter.TransactionType {
			continue
		}
		out = append(out, tx)
	}
	return page(out, filter.Filter), int64(len(out)), nil
}

func (r memLedger) FindBySessionID(_ context.Context, sessionID uuid.UUID) ([]membership.WalletTransaction, error) {
	var out []membership.WalletTransaction
	for _, tx := range r.s.ledger {
		if tx.SessionID != nil && *tx.SessionID == sessionID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type memAffiliates struct{ s *memState }

func (r memAffiliates) FindByID(_ context.Context, id uuid.UUID) (*affiliate.Affiliate, error) {
	a, ok := r.s.affiliates[id]
	if !ok {
		return nil, notFound("Affiliate")
	}
	return &a, nil
}

func (r memAffiliates) FindByCode(_ context.Context, code string) (*affiliate.Affiliate, error) {
	for _, a := range r.s.affiliates {
		if a.Code == code {
			return &a, nil
		}
	}
	return nil, notFound("Affiliate")
}

func (r memAffiliates) FindByOwnerForUpdate(_ context.Context, owner uuid.UUID) (*affiliate.Affiliate, error) {
	for _, a := range r.s.affiliates {
		if a.OwnerMemberID == owner {
			return &a, nil
		}
	}
	return nil, notFound("Affiliate")
}

func (r memAffiliates) FindAll(_ context.Context, filter shared.Filter) ([]affiliate.Affiliate, int64, error) {
	var out []affiliate.Affiliate
	for _, a := range r.s.affiliates {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, filter), int64(len(out)), nil
}

func (r memAffiliates) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByCode(ctx, code)
	return err == nil, nil
}

func (r memAffiliates) ExistsByOwner(ctx context.Context, owner uuid.UUID) (bool, error) {
	_, err := r.FindByOwnerForUpdate(ctx, owner)
	return err == nil, nil
}

func (r memAffiliates) Create(_ context.Context, a *affiliate.Affiliate) error {
	c := *a
	c.ClearDomainEvents()
	r.s.affiliates[a.ID] = c
	return nil
}

func (r memAffiliates) Save(_ context.Context, a *affiliate.Affiliate) error {
	stored, ok := r.s.affiliates[a.ID]
	if !ok {
		return notFound("Affiliate")
	}
	if stored.Version != a.Version {
		return stale()
	}
	a.IncrementVersion()
	c := *a
	c.ClearDomainEvents()
	r.s.affiliates[a.ID] = c
	return nil
}

type memEarnings struct{ s *memState }

func (r memEarnings) Create(_ context.Context, e *affiliate.Earning) error {
	r.s.earnings = append(r.s.earnings, *e)
	return nil
}

func (r memEarnings) FindByAffiliateID(_ context.Context, affiliateID uuid.UUID, filter shared.Filter) ([]affiliate.Earning, int64, error) {
	var out []affiliate.Earning
	for _, e := range r.s.earnings {
		if e.AffiliateID == affiliateID {
			out = append(out, e)
		}
	}
	return page(out, filter), int64(len(out)), nil
}

// testEnv wires every billing service over one memDB and a manual clock
type testEnv struct {
	db         *memDB
	clock      *shared.ManualClock
	locker     *recordingLocker
	publisher  *MockEventPublisher
	sessions   *SessionService
	wallets    *WalletService
	tables     *TableService
	members    *MemberService
	affiliates *AffiliateService
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	clock := shared.NewManualClock(t0)
	locker := &recordingLocker{}
	pub := NewMockEventPublisher()
	logger := zap.NewNop()

	env := &testEnv{
		db:         db,
		clock:      clock,
		locker:     locker,
		publisher:  pub,
		sessions:   NewSessionService(db, locker, clock, logger),
		wallets:    NewWalletService(db, locker, clock, "", logger),
		tables:     NewTableService(db, locker, clock, logger),
		members:    NewMemberService(db, clock, logger),
		affiliates: NewAffiliateService(db, clock, logger),
	}
	env.sessions.SetEventPublisher(pub)
	env.wallets.SetEventPublisher(pub)
	env.tables.SetEventPublisher(pub)
	env.members.SetEventPublisher(pub)
	env.affiliates.SetEventPublisher(pub)
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *testEnv) seedTable(t *testing.T, rate string) *occupancy.Table {
	t.Helper()
	table, err := occupancy.NewTable("T-"+uuid.NewString()[:8], dec(rate), e.clock.Now())
	require.NoError(t, err)
	require.NoError(t, e.db.Execute(context.Background(), func(repos TransactionalRepositories) error {
		return repos.Tables().Create(context.Background(), table)
	}))
	return table
}

func (e *testEnv) seedMember(t *testing.T, balance string, referredBy *uuid.UUID) *membership.Member {
	t.Helper()
	m, err := membership.NewMember("member-"+uuid.NewString()[:8], "", referredBy, e.clock.Now())
	require.NoError(t, err)
	m.WalletBalance = dec(balance)
	require.NoError(t, e.db.Execute(context.Background(), func(repos TransactionalRepositories) error {
		return repos.Members().Create(context.Background(), m)
	}))
	return m
}

func (e *testEnv) seedAffiliate(t *testing.T, owner uuid.UUID, code, rate string) *affiliate.Affiliate {
	t.Helper()
	a, err := affiliate.NewAffiliate(owner, code, dec(rate), e.clock.Now())
	require.NoError(t, err)
	require.NoError(t, e.db.Execute(context.Background(), func(repos TransactionalRepositories) error {
		return repos.Affiliates().Create(context.Background(), a)
	}))
	return a
}

// startAndEnd opens a session, advances the clock by elapsed and ends it
func (e *testEnv) startAndEnd(t *testing.T, table *occupancy.Table, elapsed time.Duration, memberIDs ...uuid.UUID) *SessionResponse {
	t.Helper()
	ctx := context.Background()
	started, err := e.sessions.StartSession(ctx, StartSessionInput{TableID: table.ID, MemberIDs: memberIDs})
	require.NoError(t, err)
	e.clock.Advance(elapsed)
	ended, err := e.sessions.EndSession(ctx, started.ID)
	require.NoError(t, err)
	return ended
}
