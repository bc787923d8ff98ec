package entity

import "time"

// Notification is an outbound message queued in the outbox table. Delivery
// is best-effort: the state transition that produced it never waits on it.
type Notification struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	ActorID  string `json:"actor_id"`

	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Module    string `json:"module"`
	Action    string `json:"action"`

	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
