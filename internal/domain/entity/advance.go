package entity

import "time"

// TravelAdvance is a pre-paid amount issued before a trip, reconciled
// against the final claim at settlement
type TravelAdvance struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenant_id"`
	EmployeeID      string `json:"employee_id"`
	TravelRequestID string `json:"travel_request_id,omitempty"`

	Amount float64 `json:"amount"`
	Status string  `json:"status"`

	// Set at settlement: the claim's final total and, when the advance
	// exceeded it, the balance owed back by the employee.
	SettledAmount     float64 `json:"settled_amount"`
	RecoverableAmount float64 `json:"recoverable_amount"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	SettledAt *time.Time `json:"settled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
