package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// GoalRepository implements port.GoalRepository
type GoalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *sql.DB, logger *zap.Logger) port.GoalRepository {
	return &GoalRepository{
		db:     db,
		logger: logger,
	}
}

const goalColumns = `
	id, tenant_id, employee_id,
	title, description, weight, target_date,
	status, progress_pct, manager_slot,
	submitted_at, completed_at, created_at, updated_at
`

// Create creates a new goal
func (r *GoalRepository) Create(ctx context.Context, goal *entity.Goal) error {
	manager, err := marshalJSON(goal.Manager)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		goal.ID, goal.TenantID, goal.EmployeeID,
		goal.Title, goal.Description, goal.Weight, goal.TargetDate,
		goal.Status, goal.ProgressPct, manager,
		goal.SubmittedAt, goal.CompletedAt, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create goal", zap.Error(err))
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// GetByID retrieves a goal by ID within a tenant
func (r *GoalRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get goal", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// ListByEmployee retrieves an employee's goals
func (r *GoalRepository) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]*entity.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals
		WHERE tenant_id = ? AND employee_id = ?
		ORDER BY created_at DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, employeeID)
	if err != nil {
		r.logger.Error("Failed to list goals", zap.Error(err))
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*entity.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// Update persists the goal only while its stored status still matches
// expectedStatus
func (r *GoalRepository) Update(ctx context.Context, goal *entity.Goal, expectedStatus string) error {
	manager, err := marshalJSON(goal.Manager)
	if err != nil {
		return err
	}

	query := `
		UPDATE goals SET
			title = ?, description = ?, weight = ?, target_date = ?,
			status = ?, progress_pct = ?, manager_slot = ?,
			submitted_at = ?, completed_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		goal.Title, goal.Description, goal.Weight, goal.TargetDate,
		goal.Status, goal.ProgressPct, manager,
		goal.SubmittedAt, goal.CompletedAt, goal.UpdatedAt,
		goal.TenantID, goal.ID, expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update goal", zap.String("id", goal.ID), zap.Error(err))
		return fmt.Errorf("failed to update goal: %w", err)
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

// Delete removes a goal
func (r *GoalRepository) Delete(ctx context.Context, tenantID, id string) error {
	query := `DELETE FROM goals WHERE tenant_id = ? AND id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, tenantID, id)
	if err != nil {
		r.logger.Error("Failed to delete goal", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func scanGoal(s scanner) (*entity.Goal, error) {
	var goal entity.Goal
	var managerJSON string
	var submittedAt, completedAt sql.NullTime

	err := s.Scan(
		&goal.ID, &goal.TenantID, &goal.EmployeeID,
		&goal.Title, &goal.Description, &goal.Weight, &goal.TargetDate,
		&goal.Status, &goal.ProgressPct, &managerJSON,
		&submittedAt, &completedAt, &goal.CreatedAt, &goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if submittedAt.Valid {
		goal.SubmittedAt = &submittedAt.Time
	}
	if completedAt.Valid {
		goal.CompletedAt = &completedAt.Time
	}
	if err := unmarshalJSON(managerJSON, &goal.Manager); err != nil {
		return nil, err
	}
	return &goal, nil
}

// Verify interface compliance
var _ port.GoalRepository = (*GoalRepository)(nil)
