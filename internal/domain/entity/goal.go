package entity

import "time"

// Goal is a performance goal agreed between an employee and their manager.
// It uses the single-level slice of the shared workflow: draft, submit,
// manager approval or rejection, then completion.
type Goal struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id"`

	Title       string    `json:"title"`
	Description string    `json:"description"`
	Weight      int       `json:"weight"`
	TargetDate  time.Time `json:"target_date"`

	Status      string `json:"status"`
	ProgressPct int    `json:"progress_pct"`

	Manager ApprovalSlot `json:"manager"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
