package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ComputeTaxRequest represents the tax computation payload
type ComputeTaxRequest struct {
	GrossAnnualIncome float64 `json:"gross_annual_income" binding:"required"`
	Deductions        float64 `json:"deductions"`
	Regime            string  `json:"regime" binding:"required"`
}

// ComputeTax handles POST /api/v1/tax/compute
func (h *Handlers) ComputeTax(c *gin.Context) {
	var req ComputeTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	breakup, err := h.services.Tax.Compute(c.Request.Context(), actorFrom(c), service.TaxComputeInput{
		GrossAnnualIncome: req.GrossAnnualIncome,
		Deductions:        req.Deductions,
		Regime:            req.Regime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, breakup)
}

// pagination applies list defaults
func pagination(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListQuery represents common list query parameters
type ListQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
