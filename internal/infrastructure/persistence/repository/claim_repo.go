package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

const claimColumns = `
	id, tenant_id, employee_id, travel_request_id, advance_id,
	purpose, trip_start_date, trip_end_date,
	status, currency, expenses,
	total_amount, approved_amount, advance_paid, net_payable, net_recoverable,
	policy_violations, approval_slots,
	submitted_at, settled_at, payment_reference,
	created_at, updated_at
`

// claimSlots groups the four approval slots for the JSON column
type claimSlots struct {
	Level1  entity.ApprovalSlot `json:"level1"`
	Level2  entity.ApprovalSlot `json:"level2"`
	Level3  entity.ApprovalSlot `json:"level3"`
	Finance entity.ApprovalSlot `json:"finance"`
}

// Create creates a new travel claim
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.TravelClaim) error {
	expenses, err := marshalJSON(claim.Expenses)
	if err != nil {
		return err
	}
	violations, err := marshalJSON(claim.PolicyViolations)
	if err != nil {
		return err
	}
	slots, err := marshalJSON(claimSlots{claim.Level1, claim.Level2, claim.Level3, claim.Finance})
	if err != nil {
		return err
	}

	query := `
		INSERT INTO travel_claims (` + claimColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		claim.ID, claim.TenantID, claim.EmployeeID, claim.TravelRequestID, claim.AdvanceID,
		claim.Purpose, claim.TripStartDate, claim.TripEndDate,
		claim.Status, claim.Currency, expenses,
		claim.TotalAmount, claim.ApprovedAmount, claim.AdvancePaid, claim.NetPayable, claim.NetRecoverable,
		violations, slots,
		claim.SubmittedAt, claim.SettledAt, claim.PaymentReference,
		claim.CreatedAt, claim.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

// GetByID retrieves a claim by ID within a tenant
func (r *ClaimRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.TravelClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM travel_claims WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	claim, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// ListByTenant retrieves claims for a tenant with optional status filter
func (r *ClaimRepository) ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.TravelClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM travel_claims WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return r.list(ctx, query, args...)
}

// ListByEmployee retrieves an employee's claims
func (r *ClaimRepository) ListByEmployee(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]*entity.TravelClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM travel_claims
		WHERE tenant_id = ? AND employee_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, tenantID, employeeID, limit, offset)
}

// Update persists the claim only while its stored status still matches
// expectedStatus
func (r *ClaimRepository) Update(ctx context.Context, claim *entity.TravelClaim, expectedStatus string) error {
	expenses, err := marshalJSON(claim.Expenses)
	if err != nil {
		return err
	}
	violations, err := marshalJSON(claim.PolicyViolations)
	if err != nil {
		return err
	}
	slots, err := marshalJSON(claimSlots{claim.Level1, claim.Level2, claim.Level3, claim.Finance})
	if err != nil {
		return err
	}

	query := `
		UPDATE travel_claims SET
			status = ?, currency = ?, expenses = ?,
			total_amount = ?, approved_amount = ?, advance_paid = ?,
			net_payable = ?, net_recoverable = ?,
			policy_violations = ?, approval_slots = ?,
			submitted_at = ?, settled_at = ?, payment_reference = ?,
			updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		claim.Status, claim.Currency, expenses,
		claim.TotalAmount, claim.ApprovedAmount, claim.AdvancePaid,
		claim.NetPayable, claim.NetRecoverable,
		violations, slots,
		claim.SubmittedAt, claim.SettledAt, claim.PaymentReference,
		claim.UpdatedAt,
		claim.TenantID, claim.ID, expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update claim", zap.String("id", claim.ID), zap.Error(err))
		return fmt.Errorf("failed to update claim: %w", err)
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

// Delete removes a claim
func (r *ClaimRepository) Delete(ctx context.Context, tenantID, id string) error {
	query := `DELETE FROM travel_claims WHERE tenant_id = ? AND id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, tenantID, id)
	if err != nil {
		r.logger.Error("Failed to delete claim", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	return nil
}

func (r *ClaimRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.TravelClaim, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*entity.TravelClaim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(s scanner) (*entity.TravelClaim, error) {
	var claim entity.TravelClaim
	var travelRequestID, advanceID, paymentReference sql.NullString
	var expenses, violations, slotsJSON string
	var submittedAt, settledAt sql.NullTime

	err := s.Scan(
		&claim.ID, &claim.TenantID, &claim.EmployeeID, &travelRequestID, &advanceID,
		&claim.Purpose, &claim.TripStartDate, &claim.TripEndDate,
		&claim.Status, &claim.Currency, &expenses,
		&claim.TotalAmount, &claim.ApprovedAmount, &claim.AdvancePaid, &claim.NetPayable, &claim.NetRecoverable,
		&violations, &slotsJSON,
		&submittedAt, &settledAt, &paymentReference,
		&claim.CreatedAt, &claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	claim.TravelRequestID = travelRequestID.String
	claim.AdvanceID = advanceID.String
	claim.PaymentReference = paymentReference.String
	if submittedAt.Valid {
		claim.SubmittedAt = &submittedAt.Time
	}
	if settledAt.Valid {
		claim.SettledAt = &settledAt.Time
	}

	if err := unmarshalJSON(expenses, &claim.Expenses); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(violations, &claim.PolicyViolations); err != nil {
		return nil, err
	}
	var slots claimSlots
	if err := unmarshalJSON(slotsJSON, &slots); err != nil {
		return nil, err
	}
	claim.Level1, claim.Level2, claim.Level3, claim.Finance = slots.Level1, slots.Level2, slots.Level3, slots.Finance

	return &claim, nil
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
