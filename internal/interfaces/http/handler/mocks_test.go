package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/interfaces/http/dto"
	"github.com/thehub/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const testOperator = "7b0c1f5e-1111-4a2b-9c3d-000000000001"

// newTestRouter mirrors the production chain minus auth: the operator id
// is injected directly.
func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.JWTOperatorIDKey, testOperator)
		c.Next()
	})
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

// MockTableService is a mock implementation of TableService
type MockTableService struct {
	mock.Mock
}

func (m *MockTableService) CreateTable(ctx context.Context, input billing.CreateTableInput) (*billing.TableResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TableResponse), args.Error(1)
}

func (m *MockTableService) GetTable(ctx context.Context, id uuid.UUID) (*billing.TableResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TableResponse), args.Error(1)
}

func (m *MockTableService) ListTables(ctx context.Context, filter occupancy.TableFilter) (shared.Paginated[billing.TableResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[billing.TableResponse]), args.Error(1)
}

func (m *MockTableService) UpdateRate(ctx context.Context, id uuid.UUID, rate decimal.Decimal) (*billing.TableResponse, error) {
	args := m.Called(ctx, id, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TableResponse), args.Error(1)
}

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) session(args mock.Arguments) (*billing.SessionResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SessionResponse), args.Error(1)
}

func (m *MockSessionService) ReserveSession(ctx context.Context, input billing.StartSessionInput) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, input))
}

func (m *MockSessionService) StartSession(ctx context.Context, input billing.StartSessionInput) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, input))
}

func (m *MockSessionService) StartReservedSession(ctx context.Context, id uuid.UUID) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, id))
}

func (m *MockSessionService) EndSession(ctx context.Context, id uuid.UUID) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, id))
}

func (m *MockSessionService) ForceEndSession(ctx context.Context, id uuid.UUID, reason string) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, id, reason))
}

func (m *MockSessionService) AddStoreCharge(ctx context.Context, id uuid.UUID, amount decimal.Decimal, description string) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, id, amount, description))
}

func (m *MockSessionService) SettleSession(ctx context.Context, input billing.SettleSessionInput) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, input))
}

func (m *MockSessionService) GetSession(ctx context.Context, id uuid.UUID) (*billing.SessionResponse, error) {
	return m.session(m.Called(ctx, id))
}

func (m *MockSessionService) ListSessions(ctx context.Context, filter occupancy.SessionFilter) (shared.Paginated[billing.SessionResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[billing.SessionResponse]), args.Error(1)
}

// MockMemberService is a mock implementation of MemberService
type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) RegisterMember(ctx context.Context, input billing.RegisterMemberInput) (*billing.MemberResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.MemberResponse), args.Error(1)
}

func (m *MockMemberService) GetMember(ctx context.Context, id uuid.UUID) (*billing.MemberResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.MemberResponse), args.Error(1)
}

func (m *MockMemberService) ListMembers(ctx context.Context, filter shared.Filter) (shared.Paginated[billing.MemberResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[billing.MemberResponse]), args.Error(1)
}

// MockWalletService is a mock implementation of WalletService
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWalletBalance(ctx context.Context, memberID uuid.UUID) (*billing.WalletBalanceResponse, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.WalletBalanceResponse), args.Error(1)
}

func (m *MockWalletService) CreditWallet(ctx context.Context, input billing.WalletMutationInput) (*billing.WalletTransactionResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.WalletTransactionResponse), args.Error(1)
}

func (m *MockWalletService) DebitWallet(ctx context.Context, input billing.WalletMutationInput) (*billing.WalletTransactionResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.WalletTransactionResponse), args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, memberID uuid.UUID, filter membership.WalletTransactionFilter) (shared.Paginated[billing.WalletTransactionResponse], error) {
	args := m.Called(ctx, memberID, filter)
	return args.Get(0).(shared.Paginated[billing.WalletTransactionResponse]), args.Error(1)
}

// MockAffiliateService is a mock implementation of AffiliateService
type MockAffiliateService struct {
	mock.Mock
}

func (m *MockAffiliateService) CreateAffiliate(ctx context.Context, input billing.CreateAffiliateInput) (*billing.AffiliateResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.AffiliateResponse), args.Error(1)
}

func (m *MockAffiliateService) GetAffiliate(ctx context.Context, id uuid.UUID) (*billing.AffiliateResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.AffiliateResponse), args.Error(1)
}

func (m *MockAffiliateService) ListAffiliates(ctx context.Context, filter shared.Filter) (shared.Paginated[billing.AffiliateResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[billing.AffiliateResponse]), args.Error(1)
}

func (m *MockAffiliateService) ListEarnings(ctx context.Context, affiliateID uuid.UUID, filter shared.Filter) (shared.Paginated[billing.EarningResponse], error) {
	args := m.Called(ctx, affiliateID, filter)
	return args.Get(0).(shared.Paginated[billing.EarningResponse]), args.Error(1)
}
