package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// AppraisalRepository implements port.AppraisalRepository
type AppraisalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAppraisalRepository creates a new appraisal repository
func NewAppraisalRepository(db *sql.DB, logger *zap.Logger) port.AppraisalRepository {
	return &AppraisalRepository{
		db:     db,
		logger: logger,
	}
}

const appraisalColumns = `
	id, tenant_id, employee_id, cycle,
	self_rating, manager_rating, feedback_score, final_score,
	status, manager_slot,
	submitted_at, closed_at, created_at, updated_at
`

// Create creates a new appraisal
func (r *AppraisalRepository) Create(ctx context.Context, appraisal *entity.Appraisal) error {
	manager, err := marshalJSON(appraisal.Manager)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO appraisals (` + appraisalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		appraisal.ID, appraisal.TenantID, appraisal.EmployeeID, appraisal.Cycle,
		appraisal.SelfRating, appraisal.ManagerRating, appraisal.FeedbackScore, appraisal.FinalScore,
		appraisal.Status, manager,
		appraisal.SubmittedAt, appraisal.ClosedAt, appraisal.CreatedAt, appraisal.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create appraisal", zap.Error(err))
		return fmt.Errorf("failed to create appraisal: %w", err)
	}
	return nil
}

// GetByID retrieves an appraisal by ID within a tenant
func (r *AppraisalRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Appraisal, error) {
	query := `SELECT ` + appraisalColumns + ` FROM appraisals WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	appraisal, err := scanAppraisal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get appraisal", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get appraisal: %w", err)
	}
	return appraisal, nil
}

// ListByCycle retrieves appraisals in a cycle with pagination
func (r *AppraisalRepository) ListByCycle(ctx context.Context, tenantID, cycle string, limit, offset int) ([]*entity.Appraisal, error) {
	query := `SELECT ` + appraisalColumns + ` FROM appraisals
		WHERE tenant_id = ? AND cycle = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, cycle, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list appraisals", zap.Error(err))
		return nil, fmt.Errorf("failed to list appraisals: %w", err)
	}
	defer rows.Close()

	var appraisals []*entity.Appraisal
	for rows.Next() {
		appraisal, err := scanAppraisal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appraisal: %w", err)
		}
		appraisals = append(appraisals, appraisal)
	}
	return appraisals, rows.Err()
}

// Update persists the appraisal only while its stored status still matches
// expectedStatus
func (r *AppraisalRepository) Update(ctx context.Context, appraisal *entity.Appraisal, expectedStatus string) error {
	manager, err := marshalJSON(appraisal.Manager)
	if err != nil {
		return err
	}

	query := `
		UPDATE appraisals SET
			self_rating = ?, manager_rating = ?, feedback_score = ?, final_score = ?,
			status = ?, manager_slot = ?,
			submitted_at = ?, closed_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		appraisal.SelfRating, appraisal.ManagerRating, appraisal.FeedbackScore, appraisal.FinalScore,
		appraisal.Status, manager,
		appraisal.SubmittedAt, appraisal.ClosedAt, appraisal.UpdatedAt,
		appraisal.TenantID, appraisal.ID, expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update appraisal", zap.String("id", appraisal.ID), zap.Error(err))
		return fmt.Errorf("failed to update appraisal: %w", err)
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

func scanAppraisal(s scanner) (*entity.Appraisal, error) {
	var appraisal entity.Appraisal
	var managerJSON string
	var submittedAt, closedAt sql.NullTime

	err := s.Scan(
		&appraisal.ID, &appraisal.TenantID, &appraisal.EmployeeID, &appraisal.Cycle,
		&appraisal.SelfRating, &appraisal.ManagerRating, &appraisal.FeedbackScore, &appraisal.FinalScore,
		&appraisal.Status, &managerJSON,
		&submittedAt, &closedAt, &appraisal.CreatedAt, &appraisal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if submittedAt.Valid {
		appraisal.SubmittedAt = &submittedAt.Time
	}
	if closedAt.Valid {
		appraisal.ClosedAt = &closedAt.Time
	}
	if err := unmarshalJSON(managerJSON, &appraisal.Manager); err != nil {
		return nil, err
	}
	return &appraisal, nil
}

// Verify interface compliance
var _ port.AppraisalRepository = (*AppraisalRepository)(nil)
