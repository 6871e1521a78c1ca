package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"ASC; DROP TABLE sessions", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.in), tt.in)
	}
}

func TestValidateSortField(t *testing.T) {
	t.Run("allowed field passes", func(t *testing.T) {
		assert.Equal(t, "end_time", ValidateSortField("end_time", SessionSortFields, "created_at"))
	})
	t.Run("unknown field falls back", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("password", MemberSortFields, "created_at"))
	})
	t.Run("injection falls back", func(t *testing.T) {
		assert.Equal(t, "name", ValidateSortField("name; DELETE FROM members", TableSortFields, "name"))
	})
	t.Run("empty uses default", func(t *testing.T) {
		assert.Equal(t, "transaction_date", ValidateSortField("", WalletTransactionSortFields, "transaction_date"))
	})
}
