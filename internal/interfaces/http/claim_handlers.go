package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// ExpenseLineRequest is one expense item in a claim payload
type ExpenseLineRequest struct {
	Class       string    `json:"class" binding:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" binding:"required"`
	Amount      float64   `json:"amount" binding:"required"`
}

// CreateClaimRequest represents the claim creation payload
type CreateClaimRequest struct {
	EmployeeID      string               `json:"employee_id" binding:"required"`
	TravelRequestID string               `json:"travel_request_id"`
	AdvanceID       string               `json:"advance_id"`
	Purpose         string               `json:"purpose" binding:"required"`
	Currency        string               `json:"currency"`
	TripStartDate   time.Time            `json:"trip_start_date" binding:"required"`
	TripEndDate     time.Time            `json:"trip_end_date" binding:"required"`
	Expenses        []ExpenseLineRequest `json:"expenses" binding:"required"`
}

// DecisionRequest carries approval/rejection parameters
type DecisionRequest struct {
	Level          string   `json:"level"`
	Comments       string   `json:"comments"`
	ApprovedAmount *float64 `json:"approved_amount"`
}

// SettleRequest carries the settlement payment reference
type SettleRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// CreateClaim handles POST /api/v1/claims
func (h *Handlers) CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	expenses := make([]entity.ExpenseLine, 0, len(req.Expenses))
	for _, line := range req.Expenses {
		expenses = append(expenses, entity.ExpenseLine{
			Class:       line.Class,
			Description: line.Description,
			Date:        line.Date,
			Amount:      line.Amount,
		})
	}

	claim, err := h.services.Claims.Create(c.Request.Context(), actorFrom(c), service.CreateClaimInput{
		EmployeeID:      req.EmployeeID,
		TravelRequestID: req.TravelRequestID,
		AdvanceID:       req.AdvanceID,
		Purpose:         req.Purpose,
		Currency:        req.Currency,
		TripStartDate:   req.TripStartDate,
		TripEndDate:     req.TripEndDate,
		Expenses:        expenses,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, claim)
}

// GetClaim handles GET /api/v1/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	claim, err := h.services.Claims.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, claim)
}

// ListClaims handles GET /api/v1/claims
func (h *Handlers) ListClaims(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	limit, offset := pagination(q.Limit, q.Offset)

	claims, err := h.services.Claims.List(c.Request.Context(), actorFrom(c), q.Status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, claims)
}

// DeleteClaim handles DELETE /api/v1/claims/:id
func (h *Handlers) DeleteClaim(c *gin.Context) {
	if err := h.services.Claims.DeleteDraft(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// SubmitClaim handles POST /api/v1/claims/:id/submit
func (h *Handlers) SubmitClaim(c *gin.Context) {
	claim, err := h.services.Claims.Submit(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, claim)
}

// ApproveClaim handles POST /api/v1/claims/:id/approve
func (h *Handlers) ApproveClaim(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	claim, err := h.services.Claims.Approve(c.Request.Context(), actorFrom(c),
		c.Param("id"), req.Level, req.Comments, req.ApprovedAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, claim)
}

// RejectClaim handles POST /api/v1/claims/:id/reject
func (h *Handlers) RejectClaim(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	claim, err := h.services.Claims.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, claim)
}

// SettleClaim handles POST /api/v1/claims/:id/settle
func (h *Handlers) SettleClaim(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "payment_reference is required")
		return
	}

	claim, err := h.services.Claims.Settle(c.Request.Context(), actorFrom(c), c.Param("id"), req.PaymentReference)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, claim)
}

// ValidateClaim handles POST /api/v1/claims/:id/validate
func (h *Handlers) ValidateClaim(c *gin.Context) {
	violations, err := h.services.Claims.Revalidate(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"violations": violations})
}
