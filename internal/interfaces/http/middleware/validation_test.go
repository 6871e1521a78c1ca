package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/interfaces/http/dto"
)

type chargeRequest struct {
	Amount        string   `json:"amount" binding:"required,money"`
	PaymentMethod string   `json:"payment_method" binding:"omitempty,payment_method"`
	MemberIDs     []string `json:"member_ids" binding:"omitempty,min=1,dive,uuid"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/charge", func(c *gin.Context) {
		var req chargeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount})
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/charge", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		SetupValidator()
		SetupValidator()
	})
}

func TestValidation_Money(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		amount string
		ok     bool
	}{
		{"10", true},
		{"10.5", true},
		{"0.01", true},
		{"10.999", false},
		{"0", false},
		{"-5", false},
		{"abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			w := postJSON(router, `{"amount":"`+tt.amount+`"}`)
			if tt.ok {
				assert.Equal(t, http.StatusOK, w.Code)
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestValidation_PaymentMethod(t *testing.T) {
	router := newValidationRouter()

	assert.Equal(t, http.StatusOK, postJSON(router, `{"amount":"5","payment_method":"wallet"}`).Code)
	assert.Equal(t, http.StatusOK, postJSON(router, `{"amount":"5","payment_method":"CARD"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(router, `{"amount":"5","payment_method":"CHEQUE"}`).Code)
}

func TestValidation_ErrorEnvelope(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"payment_method":"BARTER","member_ids":["not-a-uuid"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", fields["amount"])
	assert.Contains(t, fields["payment_method"], "WALLET")
	assert.Equal(t, "Invalid UUID format", fields["member_ids[0]"])
}

func TestValidation_MalformedBody(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"amount":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Invalid request body", resp.Error.Message)
	assert.Empty(t, resp.Error.Details)
}
