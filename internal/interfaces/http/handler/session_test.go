package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/interfaces/http/dto"
)

func newSessionRouter(svc *MockSessionService) *gin.Engine {
	h := NewSessionHandler(svc)
	r := newTestRouter()
	r.POST("/sessions", h.Start)
	r.POST("/sessions/reserve", h.Reserve)
	r.GET("/sessions", h.List)
	r.GET("/sessions/:id", h.GetByID)
	r.POST("/sessions/:id/start", h.StartReserved)
	r.POST("/sessions/:id/end", h.End)
	r.POST("/sessions/:id/force-end", h.ForceEnd)
	r.POST("/sessions/:id/store-charges", h.AddStoreCharge)
	r.POST("/sessions/:id/settle", h.Settle)
	return r
}

func TestSessionHandler_Start(t *testing.T) {
	svc := new(MockSessionService)
	r := newSessionRouter(svc)
	tableID, m1, m2 := uuid.New(), uuid.New(), uuid.New()
	sessionID := uuid.New()

	svc.On("StartSession", mock.Anything, billing.StartSessionInput{
		TableID:    tableID,
		MemberIDs:  []uuid.UUID{m1, m2},
		OperatorID: testOperator,
	}).Return(&billing.SessionResponse{ID: sessionID, Status: "ACTIVE"}, nil)

	w := doJSON(r, http.MethodPost, "/sessions", map[string]any{
		"table_id":   tableID.String(),
		"member_ids": []string{m1.String(), m2.String()},
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "ACTIVE", data["status"])
	svc.AssertExpectations(t)
}

func TestSessionHandler_Reserve(t *testing.T) {
	svc := new(MockSessionService)
	r := newSessionRouter(svc)
	tableID := uuid.New()

	svc.On("ReserveSession", mock.Anything, mock.MatchedBy(func(in billing.StartSessionInput) bool {
		return in.TableID == tableID && len(in.MemberIDs) == 0
	})).Return(&billing.SessionResponse{Status: "PENDING"}, nil)

	w := doJSON(r, http.MethodPost, "/sessions/reserve", map[string]any{"table_id": tableID.String()})

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestSessionHandler_Start_Errors(t *testing.T) {
	tableID := uuid.New()

	t.Run("invalid member id", func(t *testing.T) {
		r := newSessionRouter(new(MockSessionService))
		w := doJSON(r, http.MethodPost, "/sessions", map[string]any{
			"table_id":   tableID.String(),
			"member_ids": []string{"x"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})

	t.Run("table busy", func(t *testing.T) {
		svc := new(MockSessionService)
		r := newSessionRouter(svc)
		svc.On("StartSession", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeConflict, "Table already has an open session"))

		w := doJSON(r, http.MethodPost, "/sessions", map[string]any{"table_id": tableID.String()})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeConflict, errorCode(t, w))
	})
}

func TestSessionHandler_Transitions(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		path   string
		method string
		status int
		err    error
	}{
		{"/start", "StartReservedSession", http.StatusOK, nil},
		{"/end", "EndSession", http.StatusOK, nil},
		{"/end", "EndSession", http.StatusUnprocessableEntity, shared.NewDomainError(shared.CodeInvalidState, "Session is not active")},
		{"/end", "EndSession", http.StatusConflict, shared.NewDomainError(shared.CodeConcurrencyConflict, "Session was modified")},
	}
	for _, tt := range tests {
		t.Run(tt.method+tt.path, func(t *testing.T) {
			svc := new(MockSessionService)
			r := newSessionRouter(svc)
			if tt.err != nil {
				svc.On(tt.method, mock.Anything, id).Return(nil, tt.err)
			} else {
				svc.On(tt.method, mock.Anything, id).Return(&billing.SessionResponse{ID: id}, nil)
			}

			w := doJSON(r, http.MethodPost, "/sessions/"+id.String()+tt.path, nil)
			assert.Equal(t, tt.status, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestSessionHandler_ForceEnd(t *testing.T) {
	svc := new(MockSessionService)
	r := newSessionRouter(svc)
	id := uuid.New()

	svc.On("ForceEndSession", mock.Anything, id, "power cut").
		Return(&billing.SessionResponse{ID: id, ForcedEnd: true, EndReason: "power cut"}, nil)

	w := doJSON(r, http.MethodPost, "/sessions/"+id.String()+"/force-end", map[string]string{"reason": " power cut "})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/sessions/"+id.String()+"/force-end", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "ForceEndSession", 1)
}

func TestSessionHandler_AddStoreCharge(t *testing.T) {
	svc := new(MockSessionService)
	r := newSessionRouter(svc)
	id := uuid.New()

	svc.On("AddStoreCharge", mock.Anything, id, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("4.50"))
	}), "cola").Return(&billing.SessionResponse{ID: id}, nil)

	w := doJSON(r, http.MethodPost, "/sessions/"+id.String()+"/store-charges",
		map[string]string{"amount": "4.50", "description": "cola"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/sessions/"+id.String()+"/store-charges",
		map[string]string{"amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "AddStoreCharge", 1)
}

func TestSessionHandler_Settle(t *testing.T) {
	id, payer := uuid.New(), uuid.New()

	t.Run("wallet with payer override", func(t *testing.T) {
		svc := new(MockSessionService)
		r := newSessionRouter(svc)
		svc.On("SettleSession", mock.Anything, mock.MatchedBy(func(in billing.SettleSessionInput) bool {
			return in.SessionID == id &&
				in.PaymentMethod == occupancy.PaymentMethodWallet &&
				in.PayerID != nil && *in.PayerID == payer &&
				in.OperatorID == testOperator
		})).Return(&billing.SessionResponse{ID: id, Status: "SETTLED", IsPaid: true}, nil)

		w := doJSON(r, http.MethodPost, "/sessions/"+id.String()+"/settle",
			map[string]string{"payment_method": "wallet", "payer_id": payer.String()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decodeResponse(t, w).Data.(map[string]any)["is_paid"])
	})

	t.Run("insufficient balance", func(t *testing.T) {
		svc := new(MockSessionService)
		r := newSessionRouter(svc)
		svc.On("SettleSession", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeInsufficientBalance, "Insufficient wallet balance"))

		w := doJSON(r, http.MethodPost, "/sessions/"+id.String()+"/settle",
			map[string]string{"payment_method": "WALLET"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, shared.CodeInsufficientBalance, errorCode(t, w))
	})

	t.Run("unknown method", func(t *testing.T) {
		r := newSessionRouter(new(MockSessionService))
		w := doJSON(r, http.MethodPost, "/sessions/"+id.String()+"/settle",
			map[string]string{"payment_method": "IOU"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_GetAndList(t *testing.T) {
	svc := new(MockSessionService)
	r := newSessionRouter(svc)
	id, tableID := uuid.New(), uuid.New()

	svc.On("GetSession", mock.Anything, id).
		Return(&billing.SessionResponse{ID: id, Status: "ACTIVE", ElapsedSeconds: 600}, nil)
	svc.On("ListSessions", mock.Anything, mock.MatchedBy(func(f occupancy.SessionFilter) bool {
		return f.Status != nil && *f.Status == occupancy.SessionStatusActive &&
			f.TableID != nil && *f.TableID == tableID && f.MemberID == nil
	})).Return(shared.NewPaginated([]billing.SessionResponse{{ID: id}}, 1, 1, 20), nil)

	w := doJSON(r, http.MethodGet, "/sessions/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(600), decodeResponse(t, w).Data.(map[string]any)["elapsed_seconds"])

	w = doJSON(r, http.MethodGet, "/sessions?status=active&table_id="+tableID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decodeResponse(t, w).Meta.Total)
	svc.AssertExpectations(t)
}
