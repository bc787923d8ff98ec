package entity

import "time"

// AuditEntry is one append-only record of a mutating action
type AuditEntry struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ActorID     string    `json:"actor_id"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Description string    `json:"description"`
	Changes     string    `json:"changes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
