package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// PIPRepository implements port.PIPRepository
type PIPRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPIPRepository creates a new PIP repository
func NewPIPRepository(db *sql.DB, logger *zap.Logger) port.PIPRepository {
	return &PIPRepository{
		db:     db,
		logger: logger,
	}
}

const pipColumns = `
	id, tenant_id, employee_id,
	reason, start_date, end_date,
	status, outcome, review_notes, manager_slot,
	submitted_at, closed_at, created_at, updated_at
`

// Create creates a new PIP
func (r *PIPRepository) Create(ctx context.Context, pip *entity.PIP) error {
	manager, err := marshalJSON(pip.Manager)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO pips (` + pipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		pip.ID, pip.TenantID, pip.EmployeeID,
		pip.Reason, pip.StartDate, pip.EndDate,
		pip.Status, pip.Outcome, pip.ReviewNotes, manager,
		pip.SubmittedAt, pip.ClosedAt, pip.CreatedAt, pip.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create PIP", zap.Error(err))
		return fmt.Errorf("failed to create pip: %w", err)
	}
	return nil
}

// GetByID retrieves a PIP by ID within a tenant
func (r *PIPRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.PIP, error) {
	query := `SELECT ` + pipColumns + ` FROM pips WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	pip, err := scanPIP(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get PIP", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get pip: %w", err)
	}
	return pip, nil
}

// ListByEmployee retrieves an employee's PIPs
func (r *PIPRepository) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]*entity.PIP, error) {
	query := `SELECT ` + pipColumns + ` FROM pips
		WHERE tenant_id = ? AND employee_id = ?
		ORDER BY created_at DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, employeeID)
	if err != nil {
		r.logger.Error("Failed to list PIPs", zap.Error(err))
		return nil, fmt.Errorf("failed to list pips: %w", err)
	}
	defer rows.Close()

	var pips []*entity.PIP
	for rows.Next() {
		pip, err := scanPIP(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pip: %w", err)
		}
		pips = append(pips, pip)
	}
	return pips, rows.Err()
}

// Update persists the PIP only while its stored status still matches
// expectedStatus
func (r *PIPRepository) Update(ctx context.Context, pip *entity.PIP, expectedStatus string) error {
	manager, err := marshalJSON(pip.Manager)
	if err != nil {
		return err
	}

	query := `
		UPDATE pips SET
			reason = ?, start_date = ?, end_date = ?,
			status = ?, outcome = ?, review_notes = ?, manager_slot = ?,
			submitted_at = ?, closed_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		pip.Reason, pip.StartDate, pip.EndDate,
		pip.Status, pip.Outcome, pip.ReviewNotes, manager,
		pip.SubmittedAt, pip.ClosedAt, pip.UpdatedAt,
		pip.TenantID, pip.ID, expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update PIP", zap.String("id", pip.ID), zap.Error(err))
		return fmt.Errorf("failed to update pip: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return port.ErrStaleStatus
	}
	return nil
}

func scanPIP(s scanner) (*entity.PIP, error) {
	var pip entity.PIP
	var outcome, reviewNotes sql.NullString
	var managerJSON string
	var submittedAt, closedAt sql.NullTime

	err := s.Scan(
		&pip.ID, &pip.TenantID, &pip.EmployeeID,
		&pip.Reason, &pip.StartDate, &pip.EndDate,
		&pip.Status, &outcome, &reviewNotes, &managerJSON,
		&submittedAt, &closedAt, &pip.CreatedAt, &pip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	pip.Outcome = outcome.String
	pip.ReviewNotes = reviewNotes.String
	if submittedAt.Valid {
		pip.SubmittedAt = &submittedAt.Time
	}
	if closedAt.Valid {
		pip.ClosedAt = &closedAt.Time
	}
	if err := unmarshalJSON(managerJSON, &pip.Manager); err != nil {
		return nil, err
	}
	return &pip, nil
}

// Verify interface compliance
var _ port.PIPRepository = (*PIPRepository)(nil)
