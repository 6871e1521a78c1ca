package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/occupancy"
)

// SessionHandler handles the session lifecycle endpoints
type SessionHandler struct {
	BaseHandler
	sessions SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// OpenSessionRequest is the body of POST /sessions and POST /sessions/reserve.
// The first member is the default payer.
type OpenSessionRequest struct {
	TableID   string   `json:"table_id" binding:"required,uuid"`
	MemberIDs []string `json:"member_ids" binding:"omitempty,dive,uuid"`
}

// ForceEndRequest is the body of POST /sessions/:id/force-end
type ForceEndRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// StoreChargeRequest is the body of POST /sessions/:id/store-charges
type StoreChargeRequest struct {
	Amount      string `json:"amount" binding:"required,money"`
	Description string `json:"description" binding:"max=500"`
}

// SettleRequest is the body of POST /sessions/:id/settle
type SettleRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,payment_method"`
	PayerID       string `json:"payer_id" binding:"omitempty,uuid"`
}

// ListSessionsQuery filters GET /sessions
type ListSessionsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING ACTIVE ENDED SETTLED pending active ended settled"`
	TableID  string `form:"table_id" binding:"omitempty,uuid"`
	MemberID string `form:"member_id" binding:"omitempty,uuid"`
}

// Start handles POST /sessions: open a session with the clock running
func (h *SessionHandler) Start(c *gin.Context) {
	h.open(c, h.sessions.StartSession)
}

// Reserve handles POST /sessions/reserve: hold a table without timing
func (h *SessionHandler) Reserve(c *gin.Context) {
	h.open(c, h.sessions.ReserveSession)
}

func (h *SessionHandler) open(c *gin.Context, fn func(context.Context, billing.StartSessionInput) (*billing.SessionResponse, error)) {
	var req OpenSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	memberIDs, err := parseUUIDs(req.MemberIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	session, err := fn(c.Request.Context(), billing.StartSessionInput{
		TableID:    uuid.MustParse(req.TableID),
		MemberIDs:  memberIDs,
		OperatorID: operatorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// StartReserved handles POST /sessions/:id/start
func (h *SessionHandler) StartReserved(c *gin.Context) {
	h.transition(c, h.sessions.StartReservedSession)
}

// End handles POST /sessions/:id/end: stop the clock and freeze the price
func (h *SessionHandler) End(c *gin.Context) {
	h.transition(c, h.sessions.EndSession)
}

func (h *SessionHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*billing.SessionResponse, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	session, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// ForceEnd handles POST /sessions/:id/force-end
func (h *SessionHandler) ForceEnd(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ForceEndRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessions.ForceEndSession(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// AddStoreCharge handles POST /sessions/:id/store-charges
func (h *SessionHandler) AddStoreCharge(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req StoreChargeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessions.AddStoreCharge(c.Request.Context(), id, mustDecimal(req.Amount), req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Settle handles POST /sessions/:id/settle
func (h *SessionHandler) Settle(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SettleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := occupancy.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	input := billing.SettleSessionInput{
		SessionID:     id,
		PaymentMethod: method,
		OperatorID:    operatorID(c),
	}
	if req.PayerID != "" {
		payer := uuid.MustParse(req.PayerID)
		input.PayerID = &payer
	}

	session, err := h.sessions.SettleSession(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetByID handles GET /sessions/:id. Active sessions report elapsed time and
// running price as of the request.
func (h *SessionHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// List handles GET /sessions
func (h *SessionHandler) List(c *gin.Context) {
	base, ok := h.listFilter(c)
	if !ok {
		return
	}
	var query ListSessionsQuery
	if !h.bindQuery(c, &query) {
		return
	}

	filter := occupancy.SessionFilter{Filter: base}
	if query.Status != "" {
		status := occupancy.SessionStatus(strings.ToUpper(query.Status))
		filter.Status = &status
	}
	if query.TableID != "" {
		tableID := uuid.MustParse(query.TableID)
		filter.TableID = &tableID
	}
	if query.MemberID != "" {
		memberID := uuid.MustParse(query.MemberID)
		filter.MemberID = &memberID
	}

	page, err := h.sessions.ListSessions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
