package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TableSortFields contains allowed sort fields for tables
var TableSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"hourly_rate": true,
	"status":      true,
}

// SessionSortFields contains allowed sort fields for sessions
var SessionSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"start_time":      true,
	"end_time":        true,
	"status":          true,
	"total_price":     true,
	"elapsed_seconds": true,
}

// MemberSortFields contains allowed sort fields for members
var MemberSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"wallet_balance": true,
	"total_hours":    true,
	"total_spent":    true,
}

// WalletTransactionSortFields contains allowed sort fields for the wallet ledger
var WalletTransactionSortFields = map[string]bool{
	"created_at":       true,
	"transaction_date": true,
	"amount":           true,
}

// AffiliateSortFields contains allowed sort fields for affiliates
var AffiliateSortFields = map[string]bool{
	"created_at":       true,
	"updated_at":       true,
	"code":             true,
	"pending_earnings": true,
	"total_referrals":  true,
}

// EarningSortFields contains allowed sort fields for affiliate earnings
var EarningSortFields = map[string]bool{
	"created_at": true,
	"commission": true,
}
