package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// EmployeeRepository implements port.EmployeeRepository
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) port.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

const employeeColumns = `
	id, tenant_id, code, first_name, last_name, email,
	grade, department, designation, manager_id,
	active, joined_at, left_at, created_at, updated_at
`

// Create creates a new employee
func (r *EmployeeRepository) Create(ctx context.Context, employee *entity.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		employee.ID, employee.TenantID, employee.Code, employee.FirstName, employee.LastName, employee.Email,
		employee.Grade, employee.Department, employee.Designation, employee.ManagerID,
		employee.Active, employee.JoinedAt, employee.LeftAt, employee.CreatedAt, employee.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create employee", zap.Error(err))
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// GetByID retrieves an employee by ID within a tenant
func (r *EmployeeRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = ? AND id = ?`
	return r.get(ctx, query, tenantID, id)
}

// GetByCode retrieves an employee by code within a tenant
func (r *EmployeeRepository) GetByCode(ctx context.Context, tenantID, code string) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = ? AND code = ?`
	return r.get(ctx, query, tenantID, code)
}

// ListByTenant retrieves employees with pagination
func (r *EmployeeRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE tenant_id = ?
		ORDER BY code LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list employees", zap.Error(err))
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*entity.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

// Update persists an employee
func (r *EmployeeRepository) Update(ctx context.Context, employee *entity.Employee) error {
	query := `
		UPDATE employees SET
			first_name = ?, last_name = ?, email = ?,
			grade = ?, department = ?, designation = ?, manager_id = ?,
			active = ?, joined_at = ?, left_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		employee.FirstName, employee.LastName, employee.Email,
		employee.Grade, employee.Department, employee.Designation, employee.ManagerID,
		employee.Active, employee.JoinedAt, employee.LeftAt, employee.UpdatedAt,
		employee.TenantID, employee.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update employee", zap.String("id", employee.ID), zap.Error(err))
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) get(ctx context.Context, query string, args ...interface{}) (*entity.Employee, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, args...)
	employee, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get employee", zap.Error(err))
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

func scanEmployee(s scanner) (*entity.Employee, error) {
	var employee entity.Employee
	var managerID sql.NullString
	var leftAt sql.NullTime

	err := s.Scan(
		&employee.ID, &employee.TenantID, &employee.Code, &employee.FirstName, &employee.LastName, &employee.Email,
		&employee.Grade, &employee.Department, &employee.Designation, &managerID,
		&employee.Active, &employee.JoinedAt, &leftAt, &employee.CreatedAt, &employee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	employee.ManagerID = managerID.String
	if leftAt.Valid {
		employee.LeftAt = &leftAt.Time
	}
	return &employee, nil
}

// Verify interface compliance
var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
