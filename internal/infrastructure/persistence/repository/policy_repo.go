package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// PolicyRepository implements port.PolicyRepository
type PolicyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *sql.DB, logger *zap.Logger) port.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

const policyColumns = `
	id, tenant_id, grade,
	claim_submission_deadline_days, escalation_threshold, max_claim_amount,
	class_daily_limits, active, effective_from,
	created_at, updated_at
`

// Create creates a new travel policy
func (r *PolicyRepository) Create(ctx context.Context, policy *entity.TravelPolicy) error {
	limits, err := marshalJSON(policy.ClassDailyLimits)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO travel_policies (` + policyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		policy.ID, policy.TenantID, policy.Grade,
		policy.ClaimSubmissionDeadlineDays, policy.EscalationThreshold, policy.MaxClaimAmount,
		limits, policy.Active, policy.EffectiveFrom,
		policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create policy", zap.Error(err))
		return fmt.Errorf("failed to create policy: %w", err)
	}
	return nil
}

// GetByID retrieves a policy by ID within a tenant
func (r *PolicyRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.TravelPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM travel_policies WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	policy, err := scanPolicy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get policy", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return policy, nil
}

// FindActive returns the active policy for a grade, or nil when no policy
// is configured
func (r *PolicyRepository) FindActive(ctx context.Context, tenantID, grade string) (*entity.TravelPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM travel_policies
		WHERE tenant_id = ? AND grade = ? AND active = 1
		ORDER BY effective_from DESC LIMIT 1`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, grade)
	policy, err := scanPolicy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find active policy", zap.String("grade", grade), zap.Error(err))
		return nil, fmt.Errorf("failed to find active policy: %w", err)
	}
	return policy, nil
}

// ListByTenant retrieves all policies for a tenant
func (r *PolicyRepository) ListByTenant(ctx context.Context, tenantID string) ([]*entity.TravelPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM travel_policies
		WHERE tenant_id = ?
		ORDER BY grade, effective_from DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tenantID)
	if err != nil {
		r.logger.Error("Failed to list policies", zap.Error(err))
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []*entity.TravelPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}

// Update persists a policy
func (r *PolicyRepository) Update(ctx context.Context, policy *entity.TravelPolicy) error {
	limits, err := marshalJSON(policy.ClassDailyLimits)
	if err != nil {
		return err
	}

	query := `
		UPDATE travel_policies SET
			claim_submission_deadline_days = ?, escalation_threshold = ?, max_claim_amount = ?,
			class_daily_limits = ?, active = ?, effective_from = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		policy.ClaimSubmissionDeadlineDays, policy.EscalationThreshold, policy.MaxClaimAmount,
		limits, policy.Active, policy.EffectiveFrom, policy.UpdatedAt,
		policy.TenantID, policy.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update policy", zap.String("id", policy.ID), zap.Error(err))
		return fmt.Errorf("failed to update policy: %w", err)
	}
	return nil
}

func scanPolicy(s scanner) (*entity.TravelPolicy, error) {
	var policy entity.TravelPolicy
	var limitsJSON string

	err := s.Scan(
		&policy.ID, &policy.TenantID, &policy.Grade,
		&policy.ClaimSubmissionDeadlineDays, &policy.EscalationThreshold, &policy.MaxClaimAmount,
		&limitsJSON, &policy.Active, &policy.EffectiveFrom,
		&policy.CreatedAt, &policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSON(limitsJSON, &policy.ClassDailyLimits); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Verify interface compliance
var _ port.PolicyRepository = (*PolicyRepository)(nil)
