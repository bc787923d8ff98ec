package http

import (
	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
)

// CreateLoanRequest represents the loan application payload
type CreateLoanRequest struct {
	EmployeeID         string  `json:"employee_id" binding:"required"`
	Amount             float64 `json:"amount" binding:"required"`
	TermMonths         int     `json:"term_months" binding:"required"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	Purpose            string  `json:"purpose" binding:"required"`
}

// CreateLoan handles POST /api/v1/loans
func (h *Handlers) CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	loan, err := h.services.Loans.Create(c.Request.Context(), actorFrom(c), service.CreateLoanInput{
		EmployeeID:         req.EmployeeID,
		Amount:             req.Amount,
		TermMonths:         req.TermMonths,
		AnnualInterestRate: req.AnnualInterestRate,
		Purpose:            req.Purpose,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, loan)
}

// GetLoan handles GET /api/v1/loans/:id
func (h *Handlers) GetLoan(c *gin.Context) {
	loan, err := h.services.Loans.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loan)
}

// ListLoans handles GET /api/v1/loans
func (h *Handlers) ListLoans(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	limit, offset := pagination(q.Limit, q.Offset)

	loans, err := h.services.Loans.List(c.Request.Context(), actorFrom(c), q.Status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loans)
}

// SubmitLoan handles POST /api/v1/loans/:id/submit
func (h *Handlers) SubmitLoan(c *gin.Context) {
	loan, err := h.services.Loans.Submit(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loan)
}

// ApproveLoan handles POST /api/v1/loans/:id/approve
func (h *Handlers) ApproveLoan(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	loan, err := h.services.Loans.Approve(c.Request.Context(), actorFrom(c),
		c.Param("id"), req.Level, req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loan)
}

// RejectLoan handles POST /api/v1/loans/:id/reject
func (h *Handlers) RejectLoan(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	loan, err := h.services.Loans.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loan)
}

// DisburseLoanRequest carries the disbursement payment reference
type DisburseLoanRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// DisburseLoan handles POST /api/v1/loans/:id/disburse
func (h *Handlers) DisburseLoan(c *gin.Context) {
	var req DisburseLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "payment_reference is required")
		return
	}

	loan, err := h.services.Loans.Disburse(c.Request.Context(), actorFrom(c), c.Param("id"), req.PaymentReference)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loan)
}
