package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// AuditLogRepository implements port.AuditLogRepository
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) port.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends one audit entry
func (r *AuditLogRepository) Record(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_log (
			id, tenant_id, actor_id, action,
			entity_type, entity_id, description, changes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.ActorID, entry.Action,
		entry.EntityType, entry.EntityID, entry.Description, entry.Changes, entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record audit entry", zap.Error(err))
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByEntity retrieves the audit trail of a record, oldest first
func (r *AuditLogRepository) ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, tenant_id, actor_id, action,
			entity_type, entity_id, description, changes, created_at
		FROM audit_log
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var entry entity.AuditEntry
		var changes sql.NullString
		err := rows.Scan(
			&entry.ID, &entry.TenantID, &entry.ActorID, &entry.Action,
			&entry.EntityType, &entry.EntityID, &entry.Description, &changes, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Changes = changes.String
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
