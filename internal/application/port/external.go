package port

import (
	"context"

	"github.com/clearhr/claimflow/internal/domain/entity"
)

// Notifier delivers an outbound message. Implementations are best-effort:
// callers log failures and move on, they never roll back a committed
// transition because delivery failed.
type Notifier interface {
	Send(ctx context.Context, notification *entity.Notification) error
}
