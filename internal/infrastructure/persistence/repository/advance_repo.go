package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// AdvanceRepository implements port.AdvanceRepository
type AdvanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdvanceRepository creates a new advance repository
func NewAdvanceRepository(db *sql.DB, logger *zap.Logger) port.AdvanceRepository {
	return &AdvanceRepository{
		db:     db,
		logger: logger,
	}
}

const advanceColumns = `
	id, tenant_id, employee_id, travel_request_id,
	amount, status, settled_amount, recoverable_amount,
	paid_at, settled_at, created_at, updated_at
`

// Create creates a new travel advance
func (r *AdvanceRepository) Create(ctx context.Context, advance *entity.TravelAdvance) error {
	query := `
		INSERT INTO travel_advances (` + advanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		advance.ID, advance.TenantID, advance.EmployeeID, advance.TravelRequestID,
		advance.Amount, advance.Status, advance.SettledAmount, advance.RecoverableAmount,
		advance.PaidAt, advance.SettledAt, advance.CreatedAt, advance.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create advance", zap.Error(err))
		return fmt.Errorf("failed to create advance: %w", err)
	}
	return nil
}

// GetByID retrieves an advance by ID within a tenant
func (r *AdvanceRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.TravelAdvance, error) {
	query := `SELECT ` + advanceColumns + ` FROM travel_advances WHERE tenant_id = ? AND id = ?`
	return r.get(ctx, query, tenantID, id)
}

// GetByTravelRequestID retrieves the advance linked to a travel request
func (r *AdvanceRepository) GetByTravelRequestID(ctx context.Context, tenantID, travelRequestID string) (*entity.TravelAdvance, error) {
	query := `SELECT ` + advanceColumns + ` FROM travel_advances WHERE tenant_id = ? AND travel_request_id = ?`
	return r.get(ctx, query, tenantID, travelRequestID)
}

// Update persists an advance
func (r *AdvanceRepository) Update(ctx context.Context, advance *entity.TravelAdvance) error {
	query := `
		UPDATE travel_advances SET
			amount = ?, status = ?, settled_amount = ?, recoverable_amount = ?,
			paid_at = ?, settled_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		advance.Amount, advance.Status, advance.SettledAmount, advance.RecoverableAmount,
		advance.PaidAt, advance.SettledAt, advance.UpdatedAt,
		advance.TenantID, advance.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update advance", zap.String("id", advance.ID), zap.Error(err))
		return fmt.Errorf("failed to update advance: %w", err)
	}
	return nil
}

func (r *AdvanceRepository) get(ctx context.Context, query string, args ...interface{}) (*entity.TravelAdvance, error) {
	var advance entity.TravelAdvance
	var travelRequestID sql.NullString
	var paidAt, settledAt sql.NullTime

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&advance.ID, &advance.TenantID, &advance.EmployeeID, &travelRequestID,
		&advance.Amount, &advance.Status, &advance.SettledAmount, &advance.RecoverableAmount,
		&paidAt, &settledAt, &advance.CreatedAt, &advance.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get advance", zap.Error(err))
		return nil, fmt.Errorf("failed to get advance: %w", err)
	}

	advance.TravelRequestID = travelRequestID.String
	if paidAt.Valid {
		advance.PaidAt = &paidAt.Time
	}
	if settledAt.Valid {
		advance.SettledAt = &settledAt.Time
	}
	return &advance, nil
}

// Verify interface compliance
var _ port.AdvanceRepository = (*AdvanceRepository)(nil)
