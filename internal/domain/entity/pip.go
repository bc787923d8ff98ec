package entity

import "time"

// PIP is a performance improvement plan. Like Goal it uses the single-level
// workflow slice, with an HR review closing the plan.
type PIP struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id"`

	Reason    string    `json:"reason"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Status      string `json:"status"`
	Outcome     string `json:"outcome,omitempty"`
	ReviewNotes string `json:"review_notes,omitempty"`

	Manager ApprovalSlot `json:"manager"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
