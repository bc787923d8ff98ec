package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Enqueue adds a notification to the outbox
func (r *NotificationRepository) Enqueue(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			id, tenant_id, actor_id, recipient, subject, message,
			module, action, status, attempts, last_error, created_at, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		notification.ID, notification.TenantID, notification.ActorID,
		notification.Recipient, notification.Subject, notification.Message,
		notification.Module, notification.Action, notification.Status,
		notification.Attempts, notification.LastError, notification.CreatedAt, notification.SentAt,
	)
	if err != nil {
		r.logger.Error("Failed to enqueue notification", zap.Error(err))
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// GetPending retrieves queued notifications, oldest first
func (r *NotificationRepository) GetPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, tenant_id, actor_id, recipient, subject, message,
			module, action, status, attempts, last_error, created_at, sent_at
		FROM notifications
		WHERE status = ?
		ORDER BY created_at
		LIMIT ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, entity.NotificationStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var lastError sql.NullString
		var sentAt sql.NullTime
		err := rows.Scan(
			&n.ID, &n.TenantID, &n.ActorID, &n.Recipient, &n.Subject, &n.Message,
			&n.Module, &n.Action, &n.Status, &n.Attempts, &lastError, &n.CreatedAt, &sentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.LastError = lastError.String
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkSent marks a notification as delivered
func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	query := `UPDATE notifications SET status = ?, attempts = attempts + 1, sent_at = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusSent, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// RecordAttempt bumps the attempt counter and keeps the row pending
func (r *NotificationRepository) RecordAttempt(ctx context.Context, id, lastError string) error {
	query := `UPDATE notifications SET attempts = attempts + 1, last_error = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, lastError, id)
	if err != nil {
		r.logger.Error("Failed to record notification attempt", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to record notification attempt: %w", err)
	}
	return nil
}

// MarkFailed parks a notification permanently
func (r *NotificationRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	query := `UPDATE notifications SET status = ?, attempts = attempts + 1, last_error = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusFailed, lastError, id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
