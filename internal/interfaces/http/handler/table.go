package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/occupancy"
)

// TableHandler handles table catalogue endpoints
type TableHandler struct {
	BaseHandler
	tables TableService
}

// NewTableHandler creates a new TableHandler
func NewTableHandler(tables TableService) *TableHandler {
	return &TableHandler{tables: tables}
}

// CreateTableRequest is the body of POST /tables
type CreateTableRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	HourlyRate string `json:"hourly_rate" binding:"required,money"`
}

// UpdateRateRequest is the body of PUT /tables/:id/rate
type UpdateRateRequest struct {
	HourlyRate string `json:"hourly_rate" binding:"required,money"`
}

// ListTablesQuery filters GET /tables
type ListTablesQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=AVAILABLE RESERVED OCCUPIED available reserved occupied"`
}

// Create handles POST /tables
func (h *TableHandler) Create(c *gin.Context) {
	var req CreateTableRequest
	if !h.bindJSON(c, &req) {
		return
	}

	table, err := h.tables.CreateTable(c.Request.Context(), billing.CreateTableInput{
		Name:       strings.TrimSpace(req.Name),
		HourlyRate: mustDecimal(req.HourlyRate),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, table)
}

// GetByID handles GET /tables/:id
func (h *TableHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	table, err := h.tables.GetTable(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, table)
}

// List handles GET /tables
func (h *TableHandler) List(c *gin.Context) {
	base, ok := h.listFilter(c)
	if !ok {
		return
	}
	var query ListTablesQuery
	if !h.bindQuery(c, &query) {
		return
	}

	filter := occupancy.TableFilter{Filter: base}
	if query.Status != "" {
		status := occupancy.TableStatus(strings.ToUpper(query.Status))
		filter.Status = &status
	}

	page, err := h.tables.ListTables(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// UpdateRate handles PUT /tables/:id/rate. Running sessions keep the rate
// they were opened with.
func (h *TableHandler) UpdateRate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateRateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	table, err := h.tables.UpdateRate(c.Request.Context(), id, mustDecimal(req.HourlyRate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, table)
}
