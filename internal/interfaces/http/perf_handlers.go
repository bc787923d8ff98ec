package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
)

// CreateGoalRequest represents the goal creation payload
type CreateGoalRequest struct {
	EmployeeID  string    `json:"employee_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Weight      int       `json:"weight"`
	TargetDate  time.Time `json:"target_date" binding:"required"`
}

// CreateGoal handles POST /api/v1/goals
func (h *Handlers) CreateGoal(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	goal, err := h.services.Goals.Create(c.Request.Context(), actorFrom(c), service.CreateGoalInput{
		EmployeeID:  req.EmployeeID,
		Title:       req.Title,
		Description: req.Description,
		Weight:      req.Weight,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, goal)
}

// GetGoal handles GET /api/v1/goals/:id
func (h *Handlers) GetGoal(c *gin.Context) {
	goal, err := h.services.Goals.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, goal)
}

// ListGoals handles GET /api/v1/goals?employee_id=...
func (h *Handlers) ListGoals(c *gin.Context) {
	actor := actorFrom(c)
	employeeID := c.Query("employee_id")
	if employeeID == "" {
		employeeID = actor.UserID
	}

	goals, err := h.services.Goals.ListByEmployee(c.Request.Context(), actor, employeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, goals)
}

// DeleteGoal handles DELETE /api/v1/goals/:id
func (h *Handlers) DeleteGoal(c *gin.Context) {
	if err := h.services.Goals.DeleteDraft(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// SubmitGoal handles POST /api/v1/goals/:id/submit
func (h *Handlers) SubmitGoal(c *gin.Context) {
	goal, err := h.services.Goals.Submit(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, goal)
}

// ApproveGoal handles POST /api/v1/goals/:id/approve
func (h *Handlers) ApproveGoal(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	goal, err := h.services.Goals.Approve(c.Request.Context(), actorFrom(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, goal)
}

// RejectGoal handles POST /api/v1/goals/:id/reject
func (h *Handlers) RejectGoal(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	goal, err := h.services.Goals.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, goal)
}

// GoalProgressRequest carries a progress update
type GoalProgressRequest struct {
	ProgressPct int `json:"progress_pct" binding:"min=0,max=100"`
}

// UpdateGoalProgress handles PATCH /api/v1/goals/:id/progress
func (h *Handlers) UpdateGoalProgress(c *gin.Context) {
	var req GoalProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "progress_pct must be between 0 and 100")
		return
	}

	goal, err := h.services.Goals.UpdateProgress(c.Request.Context(), actorFrom(c), c.Param("id"), req.ProgressPct)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, goal)
}

// CompleteGoal handles POST /api/v1/goals/:id/complete
func (h *Handlers) CompleteGoal(c *gin.Context) {
	goal, err := h.services.Goals.Complete(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, goal)
}

// CreatePIPRequest represents the PIP creation payload
type CreatePIPRequest struct {
	EmployeeID string    `json:"employee_id" binding:"required"`
	Reason     string    `json:"reason" binding:"required"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
}

// CreatePIP handles POST /api/v1/pips
func (h *Handlers) CreatePIP(c *gin.Context) {
	var req CreatePIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	pip, err := h.services.PIPs.Create(c.Request.Context(), actorFrom(c), service.CreatePIPInput{
		EmployeeID: req.EmployeeID,
		Reason:     req.Reason,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, pip)
}

// GetPIP handles GET /api/v1/pips/:id
func (h *Handlers) GetPIP(c *gin.Context) {
	pip, err := h.services.PIPs.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pip)
}

// ListPIPs handles GET /api/v1/pips?employee_id=...
func (h *Handlers) ListPIPs(c *gin.Context) {
	actor := actorFrom(c)
	employeeID := c.Query("employee_id")
	if employeeID == "" {
		employeeID = actor.UserID
	}

	pips, err := h.services.PIPs.ListByEmployee(c.Request.Context(), actor, employeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pips)
}

// SubmitPIP handles POST /api/v1/pips/:id/submit
func (h *Handlers) SubmitPIP(c *gin.Context) {
	pip, err := h.services.PIPs.Submit(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pip)
}

// ApprovePIP handles POST /api/v1/pips/:id/approve
func (h *Handlers) ApprovePIP(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	pip, err := h.services.PIPs.Approve(c.Request.Context(), actorFrom(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pip)
}

// RejectPIP handles POST /api/v1/pips/:id/reject
func (h *Handlers) RejectPIP(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	pip, err := h.services.PIPs.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pip)
}

// ClosePIPRequest carries the review outcome
type ClosePIPRequest struct {
	Outcome     string `json:"outcome" binding:"required"`
	ReviewNotes string `json:"review_notes"`
}

// ClosePIP handles POST /api/v1/pips/:id/close
func (h *Handlers) ClosePIP(c *gin.Context) {
	var req ClosePIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "outcome is required")
		return
	}

	pip, err := h.services.PIPs.Close(c.Request.Context(), actorFrom(c), c.Param("id"), req.Outcome, req.ReviewNotes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pip)
}

// CreateAppraisalRequest represents the appraisal creation payload
type CreateAppraisalRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Cycle      string `json:"cycle" binding:"required"`
}

// CreateAppraisal handles POST /api/v1/appraisals
func (h *Handlers) CreateAppraisal(c *gin.Context) {
	var req CreateAppraisalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	appraisal, err := h.services.Appraisals.Create(c.Request.Context(), actorFrom(c), req.EmployeeID, req.Cycle)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, appraisal)
}

// GetAppraisal handles GET /api/v1/appraisals/:id
func (h *Handlers) GetAppraisal(c *gin.Context) {
	appraisal, err := h.services.Appraisals.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, appraisal)
}

// ListAppraisals handles GET /api/v1/appraisals?cycle=...
func (h *Handlers) ListAppraisals(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	limit, offset := pagination(q.Limit, q.Offset)

	appraisals, err := h.services.Appraisals.ListByCycle(c.Request.Context(), actorFrom(c), c.Query("cycle"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, appraisals)
}

// SubmitAppraisalRequest carries the self rating
type SubmitAppraisalRequest struct {
	SelfRating float64 `json:"self_rating" binding:"required"`
}

// SubmitAppraisal handles POST /api/v1/appraisals/:id/submit
func (h *Handlers) SubmitAppraisal(c *gin.Context) {
	var req SubmitAppraisalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "self_rating is required")
		return
	}

	appraisal, err := h.services.Appraisals.SubmitSelf(c.Request.Context(), actorFrom(c), c.Param("id"), req.SelfRating)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, appraisal)
}

// FeedbackRequest represents one 360 feedback entry
type FeedbackRequest struct {
	Relationship string  `json:"relationship" binding:"required"`
	Rating       float64 `json:"rating" binding:"required"`
	Comments     string  `json:"comments"`
}

// AddAppraisalFeedback handles POST /api/v1/appraisals/:id/feedback
func (h *Handlers) AddAppraisalFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	feedback, err := h.services.Appraisals.AddFeedback(c.Request.Context(), actorFrom(c), service.AddFeedbackInput{
		AppraisalID:  c.Param("id"),
		Relationship: req.Relationship,
		Rating:       req.Rating,
		Comments:     req.Comments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, feedback)
}

// ListAppraisalFeedback handles GET /api/v1/appraisals/:id/feedback
func (h *Handlers) ListAppraisalFeedback(c *gin.Context) {
	entries, err := h.services.Appraisals.ListFeedback(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entries)
}

// ReviewAppraisalRequest carries the manager rating
type ReviewAppraisalRequest struct {
	ManagerRating float64 `json:"manager_rating" binding:"required"`
	Comments      string  `json:"comments"`
}

// ReviewAppraisal handles POST /api/v1/appraisals/:id/review
func (h *Handlers) ReviewAppraisal(c *gin.Context) {
	var req ReviewAppraisalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "manager_rating is required")
		return
	}

	appraisal, err := h.services.Appraisals.ManagerReview(c.Request.Context(), actorFrom(c),
		c.Param("id"), req.ManagerRating, req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, appraisal)
}

// CloseAppraisal handles POST /api/v1/appraisals/:id/close
func (h *Handlers) CloseAppraisal(c *gin.Context) {
	appraisal, err := h.services.Appraisals.Close(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, appraisal)
}
