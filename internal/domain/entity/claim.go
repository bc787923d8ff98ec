package entity

import "time"

// ApprovalSlot records one level's decision on a workflow-backed record
type ApprovalSlot struct {
	ApproverID string     `json:"approver_id,omitempty"`
	ActedAt    *time.Time `json:"acted_at,omitempty"`
	Comments   string     `json:"comments,omitempty"`
}

// ExpenseLine is a single expense item on a travel claim
type ExpenseLine struct {
	Class       string    `json:"class"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
}

// PolicyViolation is one advisory finding from policy validation. Violations
// are informational: they are recorded on the claim but never block a
// transition.
type PolicyViolation struct {
	Rule    string  `json:"rule"`
	Class   string  `json:"class,omitempty"`
	Limit   float64 `json:"limit"`
	Actual  float64 `json:"actual"`
	Message string  `json:"message"`
}

// TravelClaim is a post-trip expense claim routed through the multi-level
// approval chain. It is the most elaborate instance of the shared workflow;
// TravelRequest, Goal and PIP reuse the same status vocabulary.
type TravelClaim struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenant_id"`
	EmployeeID      string `json:"employee_id"`
	TravelRequestID string `json:"travel_request_id,omitempty"`
	AdvanceID       string `json:"advance_id,omitempty"`

	Purpose       string    `json:"purpose"`
	TripStartDate time.Time `json:"trip_start_date"`
	TripEndDate   time.Time `json:"trip_end_date"`

	Status   string        `json:"status"`
	Currency string        `json:"currency"`
	Expenses []ExpenseLine `json:"expenses"`

	TotalAmount    float64 `json:"total_amount"`
	ApprovedAmount float64 `json:"approved_amount"`
	AdvancePaid    float64 `json:"advance_paid"`
	NetPayable     float64 `json:"net_payable"`
	NetRecoverable float64 `json:"net_recoverable"`

	PolicyViolations []PolicyViolation `json:"policy_violations,omitempty"`

	Level1  ApprovalSlot `json:"level1"`
	Level2  ApprovalSlot `json:"level2"`
	Level3  ApprovalSlot `json:"level3"`
	Finance ApprovalSlot `json:"finance"`

	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	SettledAt        *time.Time `json:"settled_at,omitempty"`
	PaymentReference string     `json:"payment_reference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotFor returns the approval slot for the given level
func (c *TravelClaim) SlotFor(level ApprovalLevel) *ApprovalSlot {
	switch level {
	case LevelOne:
		return &c.Level1
	case LevelTwo:
		return &c.Level2
	case LevelThree:
		return &c.Level3
	case LevelFinance:
		return &c.Finance
	default:
		return nil
	}
}

// PendingLevel returns the approval level that is waiting to act given the
// claim's current status. Used to route rejection comments into the right
// slot. Returns empty for draft and terminal statuses.
func (c *TravelClaim) PendingLevel(escalationThreshold float64) ApprovalLevel {
	switch c.Status {
	case StatusSubmitted:
		return LevelOne
	case StatusLevel1Approved:
		if c.TotalAmount > escalationThreshold {
			return LevelTwo
		}
		return LevelThree
	case StatusLevel2Approved:
		return LevelThree
	case StatusLevel3Approved, StatusFinanceApproved:
		return LevelFinance
	default:
		return ""
	}
}

// RecomputeNet derives net payable / net recoverable from the approved
// amount versus the advance already paid. At most one of the two is
// positive.
func (c *TravelClaim) RecomputeNet() {
	diff := c.ApprovedAmount - c.AdvancePaid
	if diff >= 0 {
		c.NetPayable = diff
		c.NetRecoverable = 0
	} else {
		c.NetPayable = 0
		c.NetRecoverable = -diff
	}
}

// SumExpenses returns the total of all expense lines
func (c *TravelClaim) SumExpenses() float64 {
	var total float64
	for _, line := range c.Expenses {
		total += line.Amount
	}
	return total
}
