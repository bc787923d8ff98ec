package entity

import "time"

// Loan is an employee loan request: manager approval, finance approval, then
// disbursement. The EMI schedule is fixed by flat amortization at sanction.
type Loan struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id"`

	Amount             float64 `json:"amount"`
	TermMonths         int     `json:"term_months"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	Purpose            string  `json:"purpose"`

	Status string `json:"status"`

	Level1  ApprovalSlot `json:"level1"`
	Finance ApprovalSlot `json:"finance"`

	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	DisbursedAt     *time.Time `json:"disbursed_at,omitempty"`
	DisbursementRef string     `json:"disbursement_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotFor returns the approval slot for the given level; loans carry only a
// manager and a finance slot
func (l *Loan) SlotFor(level ApprovalLevel) *ApprovalSlot {
	switch level {
	case LevelOne:
		return &l.Level1
	case LevelFinance:
		return &l.Finance
	default:
		return nil
	}
}

// PendingLevel returns the approval level waiting to act given the loan's
// current status. Used to route rejection comments into the right slot.
// Returns empty for draft and terminal statuses.
func (l *Loan) PendingLevel() ApprovalLevel {
	switch l.Status {
	case StatusSubmitted:
		return LevelOne
	case StatusLevel1Approved, StatusFinanceApproved:
		return LevelFinance
	default:
		return ""
	}
}
