package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// TravelRequestRepository implements port.TravelRequestRepository
type TravelRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTravelRequestRepository creates a new travel request repository
func NewTravelRequestRepository(db *sql.DB, logger *zap.Logger) port.TravelRequestRepository {
	return &TravelRequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, tenant_id, employee_id,
	purpose, origin, destination, start_date, end_date,
	estimated_cost, status, approval_slots,
	submitted_at, created_at, updated_at
`

type requestSlots struct {
	Level1 entity.ApprovalSlot `json:"level1"`
	Level2 entity.ApprovalSlot `json:"level2"`
	Level3 entity.ApprovalSlot `json:"level3"`
}

// Create creates a new travel request
func (r *TravelRequestRepository) Create(ctx context.Context, request *entity.TravelRequest) error {
	slots, err := marshalJSON(requestSlots{request.Level1, request.Level2, request.Level3})
	if err != nil {
		return err
	}

	query := `
		INSERT INTO travel_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		request.ID, request.TenantID, request.EmployeeID,
		request.Purpose, request.Origin, request.Destination, request.StartDate, request.EndDate,
		request.EstimatedCost, request.Status, slots,
		request.SubmittedAt, request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create travel request", zap.Error(err))
		return fmt.Errorf("failed to create travel request: %w", err)
	}
	return nil
}

// GetByID retrieves a travel request by ID within a tenant
func (r *TravelRequestRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM travel_requests WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	request, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get travel request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get travel request: %w", err)
	}
	return request, nil
}

// ListByTenant retrieves travel requests with optional status filter
func (r *TravelRequestRepository) ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM travel_requests WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list travel requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list travel requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.TravelRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan travel request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// Update persists the request only while its stored status still matches
// expectedStatus
func (r *TravelRequestRepository) Update(ctx context.Context, request *entity.TravelRequest, expectedStatus string) error {
	slots, err := marshalJSON(requestSlots{request.Level1, request.Level2, request.Level3})
	if err != nil {
		return err
	}

	query := `
		UPDATE travel_requests SET
			purpose = ?, origin = ?, destination = ?, start_date = ?, end_date = ?,
			estimated_cost = ?, status = ?, approval_slots = ?,
			submitted_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		request.Purpose, request.Origin, request.Destination, request.StartDate, request.EndDate,
		request.EstimatedCost, request.Status, slots,
		request.SubmittedAt, request.UpdatedAt,
		request.TenantID, request.ID, expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update travel request", zap.String("id", request.ID), zap.Error(err))
		return fmt.Errorf("failed to update travel request: %w", err)
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

// Delete removes a travel request
func (r *TravelRequestRepository) Delete(ctx context.Context, tenantID, id string) error {
	query := `DELETE FROM travel_requests WHERE tenant_id = ? AND id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, tenantID, id)
	if err != nil {
		r.logger.Error("Failed to delete travel request", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete travel request: %w", err)
	}
	return nil
}

func scanRequest(s scanner) (*entity.TravelRequest, error) {
	var request entity.TravelRequest
	var slotsJSON string
	var submittedAt sql.NullTime

	err := s.Scan(
		&request.ID, &request.TenantID, &request.EmployeeID,
		&request.Purpose, &request.Origin, &request.Destination, &request.StartDate, &request.EndDate,
		&request.EstimatedCost, &request.Status, &slotsJSON,
		&submittedAt, &request.CreatedAt, &request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if submittedAt.Valid {
		request.SubmittedAt = &submittedAt.Time
	}

	var slots requestSlots
	if err := unmarshalJSON(slotsJSON, &slots); err != nil {
		return nil, err
	}
	request.Level1, request.Level2, request.Level3 = slots.Level1, slots.Level2, slots.Level3

	return &request, nil
}

// Verify interface compliance
var _ port.TravelRequestRepository = (*TravelRequestRepository)(nil)
