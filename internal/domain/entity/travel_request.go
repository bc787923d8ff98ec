package entity

import "time"

// TravelRequest is a pre-trip authorization routed through the same approval
// chain as claims, minus the finance/settlement tail
type TravelRequest struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id"`

	Purpose     string    `json:"purpose"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`

	EstimatedCost float64 `json:"estimated_cost"`
	Status        string  `json:"status"`

	Level1 ApprovalSlot `json:"level1"`
	Level2 ApprovalSlot `json:"level2"`
	Level3 ApprovalSlot `json:"level3"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotFor returns the approval slot for the given level; travel requests
// carry no finance slot
func (r *TravelRequest) SlotFor(level ApprovalLevel) *ApprovalSlot {
	switch level {
	case LevelOne:
		return &r.Level1
	case LevelTwo:
		return &r.Level2
	case LevelThree:
		return &r.Level3
	default:
		return nil
	}
}

// PendingLevel returns the approval level waiting to act given the request's
// current status. Used to route rejection comments into the right slot.
// Returns empty for draft and terminal statuses.
func (r *TravelRequest) PendingLevel(escalationThreshold float64) ApprovalLevel {
	switch r.Status {
	case StatusSubmitted:
		return LevelOne
	case StatusLevel1Approved:
		if r.EstimatedCost > escalationThreshold {
			return LevelTwo
		}
		return LevelThree
	case StatusLevel2Approved:
		return LevelThree
	default:
		return ""
	}
}
