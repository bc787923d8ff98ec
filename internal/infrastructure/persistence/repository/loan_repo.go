package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// LoanRepository implements port.LoanRepository
type LoanRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *sql.DB, logger *zap.Logger) port.LoanRepository {
	return &LoanRepository{
		db:     db,
		logger: logger,
	}
}

const loanColumns = `
	id, tenant_id, employee_id,
	amount, term_months, annual_interest_rate, monthly_installment, purpose,
	status, approval_slots,
	submitted_at, disbursed_at, disbursement_ref,
	created_at, updated_at
`

type loanSlots struct {
	Level1  entity.ApprovalSlot `json:"level1"`
	Finance entity.ApprovalSlot `json:"finance"`
}

// Create creates a new loan
func (r *LoanRepository) Create(ctx context.Context, loan *entity.Loan) error {
	slots, err := marshalJSON(loanSlots{loan.Level1, loan.Finance})
	if err != nil {
		return err
	}

	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		loan.ID, loan.TenantID, loan.EmployeeID,
		loan.Amount, loan.TermMonths, loan.AnnualInterestRate, loan.MonthlyInstallment, loan.Purpose,
		loan.Status, slots,
		loan.SubmittedAt, loan.DisbursedAt, loan.DisbursementRef,
		loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create loan", zap.Error(err))
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetByID retrieves a loan by ID within a tenant
func (r *LoanRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get loan", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// ListByTenant retrieves loans with optional status filter
func (r *LoanRepository) ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return r.list(ctx, query, args...)
}

// ListByEmployee retrieves an employee's loans
func (r *LoanRepository) ListByEmployee(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
		WHERE tenant_id = ? AND employee_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, tenantID, employeeID, limit, offset)
}

func (r *LoanRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Loan, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list loans", zap.Error(err))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*entity.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// Update persists the loan only while its stored status still matches
// expectedStatus
func (r *LoanRepository) Update(ctx context.Context, loan *entity.Loan, expectedStatus string) error {
	slots, err := marshalJSON(loanSlots{loan.Level1, loan.Finance})
	if err != nil {
		return err
	}

	query := `
		UPDATE loans SET
			amount = ?, term_months = ?, annual_interest_rate = ?,
			monthly_installment = ?, purpose = ?,
			status = ?, approval_slots = ?,
			submitted_at = ?, disbursed_at = ?, disbursement_ref = ?,
			updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		loan.Amount, loan.TermMonths, loan.AnnualInterestRate,
		loan.MonthlyInstallment, loan.Purpose,
		loan.Status, slots,
		loan.SubmittedAt, loan.DisbursedAt, loan.DisbursementRef,
		loan.UpdatedAt,
		loan.TenantID, loan.ID, expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update loan", zap.String("id", loan.ID), zap.Error(err))
		return fmt.Errorf("failed to update loan: %w", err)
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

func scanLoan(s scanner) (*entity.Loan, error) {
	var loan entity.Loan
	var disbursementRef sql.NullString
	var slotsJSON string
	var submittedAt, disbursedAt sql.NullTime

	err := s.Scan(
		&loan.ID, &loan.TenantID, &loan.EmployeeID,
		&loan.Amount, &loan.TermMonths, &loan.AnnualInterestRate, &loan.MonthlyInstallment, &loan.Purpose,
		&loan.Status, &slotsJSON,
		&submittedAt, &disbursedAt, &disbursementRef,
		&loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.DisbursementRef = disbursementRef.String
	if submittedAt.Valid {
		loan.SubmittedAt = &submittedAt.Time
	}
	if disbursedAt.Valid {
		loan.DisbursedAt = &disbursedAt.Time
	}

	var slots loanSlots
	if err := unmarshalJSON(slotsJSON, &slots); err != nil {
		return nil, err
	}
	loan.Level1, loan.Finance = slots.Level1, slots.Finance

	return &loan, nil
}

// Verify interface compliance
var _ port.LoanRepository = (*LoanRepository)(nil)
