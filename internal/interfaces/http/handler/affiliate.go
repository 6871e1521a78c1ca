package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/shared"
)

// AffiliateHandler handles affiliate endpoints
type AffiliateHandler struct {
	BaseHandler
	affiliates AffiliateService
}

// NewAffiliateHandler creates a new AffiliateHandler
func NewAffiliateHandler(affiliates AffiliateService) *AffiliateHandler {
	return &AffiliateHandler{affiliates: affiliates}
}

// CreateAffiliateRequest is the body of POST /affiliates.
// CommissionRate is a fraction, e.g. "0.30" for 30%.
type CreateAffiliateRequest struct {
	OwnerMemberID  string `json:"owner_member_id" binding:"required,uuid"`
	Code           string `json:"code" binding:"required,min=3,max=50,alphanum"`
	CommissionRate string `json:"commission_rate" binding:"required"`
}

// Create handles POST /affiliates
func (h *AffiliateHandler) Create(c *gin.Context) {
	var req CreateAffiliateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.CommissionRate))
	if err != nil {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidInput, "commission_rate must be a decimal number"))
		return
	}

	aff, err := h.affiliates.CreateAffiliate(c.Request.Context(), billing.CreateAffiliateInput{
		OwnerMemberID:  uuid.MustParse(req.OwnerMemberID),
		Code:           req.Code,
		CommissionRate: rate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, aff)
}

// GetByID handles GET /affiliates/:id
func (h *AffiliateHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	aff, err := h.affiliates.GetAffiliate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, aff)
}

// List handles GET /affiliates
func (h *AffiliateHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.affiliates.ListAffiliates(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// ListEarnings handles GET /affiliates/:id/earnings
func (h *AffiliateHandler) ListEarnings(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.affiliates.ListEarnings(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
