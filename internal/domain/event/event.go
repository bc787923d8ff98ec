package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/clearhr/claimflow/internal/domain/entity"
)

// Event is emitted after a workflow transition has been durably committed.
// Audit and notification handlers consume events asynchronously; they can
// fail without affecting the transition that produced them.
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	TenantID      string                 `json:"tenant_id"`
	EntityType    string                 `json:"entity_type"`
	EntityID      string                 `json:"entity_id"`
	Actor         entity.Actor           `json:"actor"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// New creates a domain event with a fresh ID and correlation ID
func New(eventType Type, actor entity.Actor, entityType, entityID string, payload map[string]interface{}) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		TenantID:      actor.TenantID,
		EntityType:    entityType,
		EntityID:      entityID,
		Actor:         actor,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// WithCorrelation links the event to an existing correlation chain
func (e *Event) WithCorrelation(correlationID string) *Event {
	e.CorrelationID = correlationID
	return e
}

// PayloadString retrieves a string value from the payload
func (e *Event) PayloadString(key string) string {
	if v, ok := e.Payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PayloadFloat retrieves a float64 value from the payload
func (e *Event) PayloadFloat(key string) float64 {
	if v, ok := e.Payload[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return 0
}
