package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
)

// CreateEmployeeRequest represents the employee creation payload
type CreateEmployeeRequest struct {
	Code        string    `json:"code" binding:"required"`
	FirstName   string    `json:"first_name" binding:"required"`
	LastName    string    `json:"last_name" binding:"required"`
	Email       string    `json:"email" binding:"required"`
	Grade       string    `json:"grade" binding:"required"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
	ManagerID   string    `json:"manager_id"`
	JoinedAt    time.Time `json:"joined_at" binding:"required"`
}

// CreateEmployee handles POST /api/v1/admin/employees
func (h *Handlers) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	employee, err := h.services.Employees.Create(c.Request.Context(), actorFrom(c), service.CreateEmployeeInput{
		Code:        req.Code,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Grade:       req.Grade,
		Department:  req.Department,
		Designation: req.Designation,
		ManagerID:   req.ManagerID,
		JoinedAt:    req.JoinedAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, employee)
}

// GetEmployee handles GET /api/v1/admin/employees/:id
func (h *Handlers) GetEmployee(c *gin.Context) {
	employee, err := h.services.Employees.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, employee)
}

// ListEmployees handles GET /api/v1/admin/employees
func (h *Handlers) ListEmployees(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	limit, offset := pagination(q.Limit, q.Offset)

	employees, err := h.services.Employees.List(c.Request.Context(), actorFrom(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, employees)
}

// UpdateEmployeeRequest represents the mutable employee fields
type UpdateEmployeeRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Grade       string `json:"grade" binding:"required"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	ManagerID   string `json:"manager_id"`
}

// UpdateEmployee handles PUT /api/v1/admin/employees/:id
func (h *Handlers) UpdateEmployee(c *gin.Context) {
	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	actor := actorFrom(c)
	employee, err := h.services.Employees.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	employee.FirstName = req.FirstName
	employee.LastName = req.LastName
	employee.Email = req.Email
	employee.Grade = req.Grade
	employee.Department = req.Department
	employee.Designation = req.Designation
	employee.ManagerID = req.ManagerID

	updated, err := h.services.Employees.Update(c.Request.Context(), actor, employee)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// DeactivateEmployee handles POST /api/v1/admin/employees/:id/deactivate
func (h *Handlers) DeactivateEmployee(c *gin.Context) {
	employee, err := h.services.Employees.Deactivate(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, employee)
}

// CreatePolicyRequest represents the travel policy payload
type CreatePolicyRequest struct {
	Grade                       string             `json:"grade" binding:"required"`
	ClaimSubmissionDeadlineDays int                `json:"claim_submission_deadline_days"`
	EscalationThreshold         float64            `json:"escalation_threshold"`
	MaxClaimAmount              float64            `json:"max_claim_amount"`
	ClassDailyLimits            map[string]float64 `json:"class_daily_limits"`
	EffectiveFrom               time.Time          `json:"effective_from" binding:"required"`
}

// CreatePolicy handles POST /api/v1/admin/policies
func (h *Handlers) CreatePolicy(c *gin.Context) {
	var req CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	policy, err := h.services.Policies.Create(c.Request.Context(), actorFrom(c), service.CreatePolicyInput{
		Grade:                       req.Grade,
		ClaimSubmissionDeadlineDays: req.ClaimSubmissionDeadlineDays,
		EscalationThreshold:         req.EscalationThreshold,
		MaxClaimAmount:              req.MaxClaimAmount,
		ClassDailyLimits:            req.ClassDailyLimits,
		EffectiveFrom:               req.EffectiveFrom,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, policy)
}

// GetPolicy handles GET /api/v1/admin/policies/:id
func (h *Handlers) GetPolicy(c *gin.Context) {
	policy, err := h.services.Policies.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, policy)
}

// ListPolicies handles GET /api/v1/admin/policies
func (h *Handlers) ListPolicies(c *gin.Context) {
	policies, err := h.services.Policies.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, policies)
}

// ListAuditTrail handles GET /api/v1/admin/audit/:entityType/:entityId
func (h *Handlers) ListAuditTrail(c *gin.Context) {
	entries, err := h.services.Audit.ListByEntity(c.Request.Context(), actorFrom(c),
		c.Param("entityType"), c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entries)
}
