package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

type fakeLoanRepo struct {
	loans map[string]*entity.Loan
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[string]*entity.Loan)}
}

func (r *fakeLoanRepo) Create(_ context.Context, loan *entity.Loan) error {
	copied := *loan
	r.loans[loan.ID] = &copied
	return nil
}

func (r *fakeLoanRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Loan, error) {
	loan, ok := r.loans[id]
	if !ok || loan.TenantID != tenantID {
		return nil, nil
	}
	copied := *loan
	return &copied, nil
}

func (r *fakeLoanRepo) ListByTenant(_ context.Context, tenantID, status string, _, _ int) ([]*entity.Loan, error) {
	var out []*entity.Loan
	for _, l := range r.loans {
		if l.TenantID == tenantID && (status == "" || l.Status == status) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) ListByEmployee(_ context.Context, tenantID, employeeID string, _, _ int) ([]*entity.Loan, error) {
	var out []*entity.Loan
	for _, l := range r.loans {
		if l.TenantID == tenantID && l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) Update(_ context.Context, loan *entity.Loan, expectedStatus string) error {
	stored, ok := r.loans[loan.ID]
	if !ok || stored.Status != expectedStatus {
		return port.ErrStaleStatus
	}
	copied := *loan
	r.loans[loan.ID] = &copied
	return nil
}

func newLoanService(t *testing.T) *loanServiceImpl {
	t.Helper()

	employees := newFakeEmployeeRepo()
	employees.employees[testEmployee] = &entity.Employee{
		ID: testEmployee, TenantID: testTenant, Code: "EMP001",
		Grade: "G5", ManagerID: testManager, Active: true,
	}

	svc := NewLoanService(newFakeLoanRepo(), employees, stubTxManager{}, nil, noopLogger{})
	impl := svc.(*loanServiceImpl)
	impl.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return impl
}

func TestLoanService_List(t *testing.T) {
	employees := newFakeEmployeeRepo()
	employees.employees[testEmployee] = &entity.Employee{
		ID: testEmployee, TenantID: testTenant, Code: "EMP001",
		Grade: "G5", ManagerID: testManager, Active: true,
	}
	employees.employees["emp-2"] = &entity.Employee{
		ID: "emp-2", TenantID: testTenant, Code: "EMP002",
		Grade: "G5", ManagerID: testManager, Active: true,
	}

	svc := NewLoanService(newFakeLoanRepo(), employees, stubTxManager{}, nil, noopLogger{}).(*loanServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

	for _, employeeID := range []string{testEmployee, "emp-2"} {
		_, err := svc.Create(context.Background(), hrActor, CreateLoanInput{
			EmployeeID: employeeID, Amount: 10000, TermMonths: 10, Purpose: "festival",
		})
		require.NoError(t, err)
	}

	t.Run("employees see only their own loans", func(t *testing.T) {
		loans, err := svc.List(context.Background(), employeeActor, "", 50, 0)
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, testEmployee, loans[0].EmployeeID)
	})

	t.Run("hr sees the whole tenant", func(t *testing.T) {
		loans, err := svc.List(context.Background(), hrActor, "", 50, 0)
		require.NoError(t, err)
		assert.Len(t, loans, 2)
	})
}

func TestFlatInstallment(t *testing.T) {
	tests := []struct {
		name       string
		principal  float64
		annualRate float64
		termMonths int
		want       float64
	}{
		{
			// interest 120000*0.10*2 = 24000; (120000+24000)/24 = 6000
			name: "two year loan at ten percent", principal: 120000, annualRate: 10, termMonths: 24, want: 6000,
		},
		{
			// interest free: principal split evenly
			name: "zero interest", principal: 60000, annualRate: 0, termMonths: 12, want: 5000,
		},
		{
			// interest 50000*0.08*0.5 = 2000; 52000/6 = 8666.666...
			name: "rounding to two decimals", principal: 50000, annualRate: 8, termMonths: 6, want: 8666.67,
		},
		{
			name: "zero term", principal: 50000, annualRate: 8, termMonths: 0, want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlatInstallment(tt.principal, tt.annualRate, tt.termMonths))
		})
	}
}

func TestLoanService_Create(t *testing.T) {
	t.Run("fixes the installment at creation", func(t *testing.T) {
		svc := newLoanService(t)
		loan, err := svc.Create(context.Background(), employeeActor, CreateLoanInput{
			EmployeeID: testEmployee, Amount: 120000, TermMonths: 24, AnnualInterestRate: 10, Purpose: "home repair",
		})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusDraft, loan.Status)
		assert.Equal(t, 6000.0, loan.MonthlyInstallment)
	})

	t.Run("validates the term", func(t *testing.T) {
		svc := newLoanService(t)
		_, err := svc.Create(context.Background(), employeeActor, CreateLoanInput{
			EmployeeID: testEmployee, Amount: 1000, TermMonths: 121, Purpose: "x",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestLoanService_Lifecycle(t *testing.T) {
	create := func(t *testing.T, svc *loanServiceImpl) *entity.Loan {
		t.Helper()
		loan, err := svc.Create(context.Background(), employeeActor, CreateLoanInput{
			EmployeeID: testEmployee, Amount: 60000, TermMonths: 12, AnnualInterestRate: 6, Purpose: "education",
		})
		require.NoError(t, err)
		return loan
	}

	t.Run("manager then finance then disbursement", func(t *testing.T) {
		svc := newLoanService(t)
		loan := create(t, svc)

		loan, err := svc.Submit(context.Background(), employeeActor, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, testManager, loan.Level1.ApproverID)

		loan, err = svc.Approve(context.Background(), managerActor, loan.ID, "LEVEL1", "ok")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusLevel1Approved, loan.Status)

		loan, err = svc.Approve(context.Background(), financeActor, loan.ID, "FINANCE", "budgeted")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFinanceApproved, loan.Status)

		loan, err = svc.Disburse(context.Background(), financeActor, loan.ID, "NEFT-789")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusSettled, loan.Status)
		assert.Equal(t, "NEFT-789", loan.DisbursementRef)
		require.NotNil(t, loan.DisbursedAt)
	})

	t.Run("loans have no level2 or level3", func(t *testing.T) {
		svc := newLoanService(t)
		loan := create(t, svc)
		_, err := svc.Submit(context.Background(), employeeActor, loan.ID)
		require.NoError(t, err)

		_, err = svc.Approve(context.Background(), hrActor, loan.ID, "LEVEL2", "")
		assert.ErrorIs(t, err, ErrInvalidLevel)
		_, err = svc.Approve(context.Background(), hrActor, loan.ID, "LEVEL3", "")
		assert.ErrorIs(t, err, ErrInvalidLevel)
	})

	t.Run("finance cannot act before the manager", func(t *testing.T) {
		svc := newLoanService(t)
		loan := create(t, svc)
		_, err := svc.Submit(context.Background(), employeeActor, loan.ID)
		require.NoError(t, err)

		_, err = svc.Approve(context.Background(), financeActor, loan.ID, "FINANCE", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("disbursement needs finance approval", func(t *testing.T) {
		svc := newLoanService(t)
		loan := create(t, svc)
		_, err := svc.Submit(context.Background(), employeeActor, loan.ID)
		require.NoError(t, err)

		_, err = svc.Disburse(context.Background(), financeActor, loan.ID, "NEFT-1")
		assert.ErrorIs(t, err, ErrNotApproved)
	})

	t.Run("rejection while pending finance lands on the finance slot", func(t *testing.T) {
		svc := newLoanService(t)
		loan := create(t, svc)
		_, err := svc.Submit(context.Background(), employeeActor, loan.ID)
		require.NoError(t, err)
		_, err = svc.Approve(context.Background(), managerActor, loan.ID, "LEVEL1", "ok")
		require.NoError(t, err)

		loan, err = svc.Reject(context.Background(), financeActor, loan.ID, "insufficient budget")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRejected, loan.Status)
		assert.Equal(t, "insufficient budget", loan.Finance.Comments)
		assert.Equal(t, financeActor.UserID, loan.Finance.ApproverID)
		require.NotNil(t, loan.Finance.ActedAt)
		assert.Equal(t, "ok", loan.Level1.Comments)
	})

	t.Run("rejected loan stays rejected", func(t *testing.T) {
		svc := newLoanService(t)
		loan := create(t, svc)
		_, err := svc.Submit(context.Background(), employeeActor, loan.ID)
		require.NoError(t, err)
		_, err = svc.Reject(context.Background(), managerActor, loan.ID, "over-extended")
		require.NoError(t, err)

		_, err = svc.Approve(context.Background(), managerActor, loan.ID, "LEVEL1", "")
		assert.ErrorIs(t, err, ErrAlreadyRejected)
	})
}
