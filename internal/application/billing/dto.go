package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
)

// StartSessionInput opens a session on a table for a set of members.
// The first member is the default payer.
type StartSessionInput struct {
	TableID    uuid.UUID
	MemberIDs  []uuid.UUID
	OperatorID string
}

// SettleSessionInput settles an ended session
type SettleSessionInput struct {
	SessionID     uuid.UUID
	PaymentMethod occupancy.PaymentMethod
	// PayerID overrides the default payer; it must be a session member
	PayerID    *uuid.UUID
	OperatorID string
}

// WalletMutationInput credits or debits a member's wallet
type WalletMutationInput struct {
	MemberID   uuid.UUID
	Amount     decimal.Decimal
	Reason     string
	OperatorID string
}

// CreateTableInput creates a table
type CreateTableInput struct {
	Name       string
	HourlyRate decimal.Decimal
}

// RegisterMemberInput registers a member, optionally through a referral code
type RegisterMemberInput struct {
	Name         string
	Phone        string
	ReferralCode string
}

// CreateAffiliateInput opens an affiliate account for a member
type CreateAffiliateInput struct {
	OwnerMemberID  uuid.UUID
	Code           string
	CommissionRate decimal.Decimal
}

// SessionResponse represents a session in API responses.
// ElapsedSeconds and RunningPrice are computed as of the read for active sessions.
type SessionResponse struct {
	ID             uuid.UUID        `json:"id"`
	TableID        uuid.UUID        `json:"table_id"`
	MemberIDs      []uuid.UUID      `json:"member_ids"`
	Status         string           `json:"status"`
	HourlyRate     decimal.Decimal  `json:"hourly_rate"`
	StartTime      *time.Time       `json:"start_time,omitempty"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
	ElapsedSeconds int64            `json:"elapsed_seconds"`
	StoreCharges   decimal.Decimal  `json:"store_charges"`
	RunningPrice   decimal.Decimal  `json:"running_price"`
	TotalPrice     *decimal.Decimal `json:"total_price,omitempty"`
	PaymentMethod  *string          `json:"payment_method,omitempty"`
	PaidBy         *uuid.UUID       `json:"paid_by,omitempty"`
	IsPaid         bool             `json:"is_paid"`
	SettledAt      *time.Time       `json:"settled_at,omitempty"`
	ForcedEnd      bool             `json:"forced_end"`
	EndReason      string           `json:"end_reason,omitempty"`
	Version        int              `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ToSessionResponse converts a domain Session as of now
func ToSessionResponse(s *occupancy.Session, now time.Time) SessionResponse {
	resp := SessionResponse{
		ID:             s.ID,
		TableID:        s.TableID,
		MemberIDs:      s.MemberIDs,
		Status:         s.Status.String(),
		HourlyRate:     s.HourlyRate,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		ElapsedSeconds: s.Elapsed(now),
		StoreCharges:   s.StoreCharges,
		RunningPrice:   s.RunningPrice(now),
		TotalPrice:     s.TotalPrice,
		PaidBy:         s.PaidBy,
		IsPaid:         s.IsPaid,
		SettledAt:      s.SettledAt,
		ForcedEnd:      s.ForcedEnd,
		EndReason:      s.EndReason,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.PaymentMethod != nil {
		method := s.PaymentMethod.String()
		resp.PaymentMethod = &method
	}
	return resp
}

// ToSessionResponses converts a slice of sessions as of now
func ToSessionResponses(sessions []occupancy.Session, now time.Time) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = ToSessionResponse(&sessions[i], now)
	}
	return out
}

// TableResponse represents a table in API responses
type TableResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	HourlyRate       decimal.Decimal `json:"hourly_rate"`
	Status           string          `json:"status"`
	CurrentSessionID *uuid.UUID      `json:"current_session_id,omitempty"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToTableResponse converts a domain Table
func ToTableResponse(t *occupancy.Table) TableResponse {
	return TableResponse{
		ID:               t.ID,
		Name:             t.Name,
		HourlyRate:       t.HourlyRate,
		Status:           t.Status.String(),
		CurrentSessionID: t.CurrentSessionID,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone,omitempty"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	ReferredBy    *uuid.UUID      `json:"referred_by,omitempty"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToMemberResponse converts a domain Member
func ToMemberResponse(m *membership.Member) MemberResponse {
	return MemberResponse{
		ID:            m.ID,
		Name:          m.Name,
		Phone:         m.Phone,
		WalletBalance: m.WalletBalance,
		ReferredBy:    m.ReferredBy,
		TotalHours:    m.TotalHours,
		TotalSpent:    m.TotalSpent,
		Version:       m.Version,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// WalletBalanceResponse is a member's current wallet balance
type WalletBalanceResponse struct {
	MemberID uuid.UUID       `json:"member_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// WalletTransactionResponse represents a wallet ledger row in API responses
type WalletTransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	MemberID        uuid.UUID       `json:"member_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	SessionID       *uuid.UUID      `json:"session_id,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	OperatorID      string          `json:"operator_id,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// ToWalletTransactionResponse converts a domain WalletTransaction
func ToWalletTransactionResponse(t *membership.WalletTransaction) WalletTransactionResponse {
	return WalletTransactionResponse{
		ID:              t.ID,
		MemberID:        t.MemberID,
		TransactionType: t.TransactionType.String(),
		Amount:          t.Amount,
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		SessionID:       t.SessionID,
		Reason:          t.Reason,
		OperatorID:      t.OperatorID,
		TransactionDate: t.TransactionDate,
	}
}

// AffiliateResponse represents an affiliate in API responses
type AffiliateResponse struct {
	ID              uuid.UUID       `json:"id"`
	OwnerMemberID   uuid.UUID       `json:"owner_member_id"`
	Code            string          `json:"code"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	PendingEarnings decimal.Decimal `json:"pending_earnings"`
	PaidEarnings    decimal.Decimal `json:"paid_earnings"`
	TotalReferrals  int             `json:"total_referrals"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToAffiliateResponse converts a domain Affiliate
func ToAffiliateResponse(a *affiliate.Affiliate) AffiliateResponse {
	return AffiliateResponse{
		ID:              a.ID,
		OwnerMemberID:   a.OwnerMemberID,
		Code:            a.Code,
		CommissionRate:  a.CommissionRate,
		PendingEarnings: a.PendingEarnings,
		PaidEarnings:    a.PaidEarnings,
		TotalReferrals:  a.TotalReferrals,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// EarningResponse represents an affiliate commission line
type EarningResponse struct {
	ID             uuid.UUID       `json:"id"`
	AffiliateID    uuid.UUID       `json:"affiliate_id"`
	SessionID      uuid.UUID       `json:"session_id"`
	MemberID       uuid.UUID       `json:"member_id"`
	ShareAmount    decimal.Decimal `json:"share_amount"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Commission     decimal.Decimal `json:"commission"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToEarningResponse converts a domain Earning
func ToEarningResponse(e *affiliate.Earning) EarningResponse {
	return EarningResponse{
		ID:             e.ID,
		AffiliateID:    e.AffiliateID,
		SessionID:      e.SessionID,
		MemberID:       e.MemberID,
		ShareAmount:    e.ShareAmount,
		CommissionRate: e.CommissionRate,
		Commission:     e.Commission,
		CreatedAt:      e.CreatedAt,
	}
}

// mapSlice converts a slice of domain values with f
func mapSlice[T any, R any](items []T, f func(*T) R) []R {
	out := make([]R, len(items))
	for i := range items {
		out[i] = f(&items[i])
	}
	return out
}

// paginate wraps converted items into a Paginated result
func paginate[T any, R any](items []T, total int64, filter shared.Filter, f func(*T) R) shared.Paginated[R] {
	return shared.NewPaginated(mapSlice(items, f), total, filter.Page, filter.PageSize)
}
