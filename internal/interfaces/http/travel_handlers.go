package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
)

// CreateTravelRequestRequest represents the travel request creation payload
type CreateTravelRequestRequest struct {
	EmployeeID    string    `json:"employee_id" binding:"required"`
	Purpose       string    `json:"purpose" binding:"required"`
	Origin        string    `json:"origin" binding:"required"`
	Destination   string    `json:"destination" binding:"required"`
	StartDate     time.Time `json:"start_date" binding:"required"`
	EndDate       time.Time `json:"end_date" binding:"required"`
	EstimatedCost float64   `json:"estimated_cost" binding:"required"`
}

// CreateTravelRequest handles POST /api/v1/travel-requests
func (h *Handlers) CreateTravelRequest(c *gin.Context) {
	var req CreateTravelRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	request, err := h.services.Requests.Create(c.Request.Context(), actorFrom(c), service.CreateTravelRequestInput{
		EmployeeID:    req.EmployeeID,
		Purpose:       req.Purpose,
		Origin:        req.Origin,
		Destination:   req.Destination,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		EstimatedCost: req.EstimatedCost,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, request)
}

// GetTravelRequest handles GET /api/v1/travel-requests/:id
func (h *Handlers) GetTravelRequest(c *gin.Context) {
	request, err := h.services.Requests.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, request)
}

// ListTravelRequests handles GET /api/v1/travel-requests
func (h *Handlers) ListTravelRequests(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	limit, offset := pagination(q.Limit, q.Offset)

	requests, err := h.services.Requests.List(c.Request.Context(), actorFrom(c), q.Status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, requests)
}

// DeleteTravelRequest handles DELETE /api/v1/travel-requests/:id
func (h *Handlers) DeleteTravelRequest(c *gin.Context) {
	if err := h.services.Requests.DeleteDraft(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// SubmitTravelRequest handles POST /api/v1/travel-requests/:id/submit
func (h *Handlers) SubmitTravelRequest(c *gin.Context) {
	request, err := h.services.Requests.Submit(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, request)
}

// ApproveTravelRequest handles POST /api/v1/travel-requests/:id/approve
func (h *Handlers) ApproveTravelRequest(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	request, err := h.services.Requests.Approve(c.Request.Context(), actorFrom(c),
		c.Param("id"), req.Level, req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, request)
}

// RejectTravelRequest handles POST /api/v1/travel-requests/:id/reject
func (h *Handlers) RejectTravelRequest(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	request, err := h.services.Requests.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, request)
}

// CreateAdvanceRequest represents the advance creation payload
type CreateAdvanceRequest struct {
	TravelRequestID string  `json:"travel_request_id" binding:"required"`
	Amount          float64 `json:"amount" binding:"required"`
}

// CreateAdvance handles POST /api/v1/advances
func (h *Handlers) CreateAdvance(c *gin.Context) {
	var req CreateAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	advance, err := h.services.Advances.Create(c.Request.Context(), actorFrom(c), req.TravelRequestID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, advance)
}

// GetAdvance handles GET /api/v1/advances/:id
func (h *Handlers) GetAdvance(c *gin.Context) {
	advance, err := h.services.Advances.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, advance)
}

// PayAdvance handles POST /api/v1/advances/:id/pay
func (h *Handlers) PayAdvance(c *gin.Context) {
	advance, err := h.services.Advances.MarkPaid(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, advance)
}
