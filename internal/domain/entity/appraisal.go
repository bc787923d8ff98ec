package entity

import "time"

// Appraisal is one employee's record in an appraisal cycle. Self and manager
// ratings are captured directly; the 360 aggregate is derived from feedback
// entries.
type Appraisal struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id"`
	Cycle      string `json:"cycle"`

	SelfRating    float64 `json:"self_rating"`
	ManagerRating float64 `json:"manager_rating"`
	FeedbackScore float64 `json:"feedback_score"`
	FinalScore    float64 `json:"final_score"`

	Status string `json:"status"`

	Manager ApprovalSlot `json:"manager"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feedback360 is one reviewer's entry against an appraisal
type Feedback360 struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	AppraisalID string `json:"appraisal_id"`
	ReviewerID  string `json:"reviewer_id"`

	Relationship string  `json:"relationship"`
	Rating       float64 `json:"rating"`
	Comments     string  `json:"comments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
