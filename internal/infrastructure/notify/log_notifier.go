// Package notify carries Notifier implementations. The default sink writes
// structured log lines; a mail or chat gateway drops in behind the same
// port without touching the outbox.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send implements port.Notifier
func (n *LogNotifier) Send(ctx context.Context, notification *entity.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.logger.Info("Notification delivered",
		zap.String("notification_id", notification.ID),
		zap.String("tenant_id", notification.TenantID),
		zap.String("recipient", notification.Recipient),
		zap.String("subject", notification.Subject),
		zap.String("module", notification.Module),
		zap.String("action", notification.Action),
	)
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*LogNotifier)(nil)
