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
	"github.com/thehub/backend/internal/infrastructure/config"
	"github.com/thehub/backend/internal/interfaces/http/dto"
)

type storeChargeBody struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// newLimitedRouter mirrors the server chain: request ids first, then the
// configured body limit, then a handler that binds JSON the way the API does
func newLimitedRouter(cfg config.HTTPConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(cfg.MaxBodySize))
	router.POST("/api/v1/sessions/:id/store-charges", func(c *gin.Context) {
		var req storeChargeBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.NewSuccessResponse(req))
	})
	router.GET("/api/v1/tables", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return router
}

func chargePayload(description string) string {
	body, _ := json.Marshal(storeChargeBody{Amount: "12.50", Description: description})
	return string(body)
}

func postCharge(router *gin.Engine, body string, declareLength bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/1/store-charges", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-body-limit")
	if !declareLength {
		req.ContentLength = -1
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBodyLimit(t *testing.T) {
	cfg := config.HTTPConfig{MaxBodySize: 256}
	router := newLimitedRouter(cfg)

	t.Run("body within the configured size is bound", func(t *testing.T) {
		w := postCharge(router, chargePayload("espresso"), true)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("declared length over the limit is rejected before the handler", func(t *testing.T) {
		w := postCharge(router, chargePayload(strings.Repeat("x", 400)), true)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, errInfo.Code)
		assert.Equal(t, "req-body-limit", errInfo.RequestID)
	})

	t.Run("streamed body over the limit gets the same envelope", func(t *testing.T) {
		w := postCharge(router, chargePayload(strings.Repeat("x", 400)), false)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, errInfo.Code)
		assert.Equal(t, "req-body-limit", errInfo.RequestID)
	})

	t.Run("malformed body under the limit is still a validation error", func(t *testing.T) {
		w := postCharge(router, `{"amount":`, false)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
	})

	t.Run("requests without a body pass", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/tables", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
