package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/membership"
)

// MemberHandler handles member registry and wallet endpoints
type MemberHandler struct {
	BaseHandler
	members MemberService
	wallets WalletService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(members MemberService, wallets WalletService) *MemberHandler {
	return &MemberHandler{members: members, wallets: wallets}
}

// RegisterMemberRequest is the body of POST /members
type RegisterMemberRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	Phone        string `json:"phone" binding:"omitempty,max=30"`
	ReferralCode string `json:"referral_code" binding:"omitempty,max=50"`
}

// WalletMutationRequest is the body of the wallet credit and debit endpoints
type WalletMutationRequest struct {
	Amount string `json:"amount" binding:"required,money"`
	Reason string `json:"reason" binding:"max=500"`
}

// ListTransactionsQuery filters GET /members/:id/wallet/transactions
type ListTransactionsQuery struct {
	Type string `form:"type" binding:"omitempty,oneof=CREDIT DEBIT SESSION_CHARGE credit debit session_charge"`
}

// Register handles POST /members
func (h *MemberHandler) Register(c *gin.Context) {
	var req RegisterMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	member, err := h.members.RegisterMember(c.Request.Context(), billing.RegisterMemberInput{
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		ReferralCode: strings.TrimSpace(req.ReferralCode),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, member)
}

// GetByID handles GET /members/:id
func (h *MemberHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.members.GetMember(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, member)
}

// List handles GET /members
func (h *MemberHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.members.ListMembers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetWallet handles GET /members/:id/wallet
func (h *MemberHandler) GetWallet(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	balance, err := h.wallets.GetWalletBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Credit handles POST /members/:id/wallet/credit
func (h *MemberHandler) Credit(c *gin.Context) {
	h.mutateWallet(c, h.wallets.CreditWallet)
}

// Debit handles POST /members/:id/wallet/debit
func (h *MemberHandler) Debit(c *gin.Context) {
	h.mutateWallet(c, h.wallets.DebitWallet)
}

type walletMutation func(context.Context, billing.WalletMutationInput) (*billing.WalletTransactionResponse, error)

func (h *MemberHandler) mutateWallet(c *gin.Context, fn walletMutation) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req WalletMutationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := fn(c.Request.Context(), billing.WalletMutationInput{
		MemberID:   id,
		Amount:     mustDecimal(req.Amount),
		Reason:     strings.TrimSpace(req.Reason),
		OperatorID: operatorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// ListTransactions handles GET /members/:id/wallet/transactions, newest first
func (h *MemberHandler) ListTransactions(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	base, ok := h.listFilter(c)
	if !ok {
		return
	}
	var query ListTransactionsQuery
	if !h.bindQuery(c, &query) {
		return
	}

	filter := membership.WalletTransactionFilter{Filter: base}
	if query.Type != "" {
		txType := membership.WalletTransactionType(strings.ToUpper(query.Type))
		filter.TransactionType = &txType
	}

	page, err := h.wallets.ListTransactions(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
