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

type fakeClaimRepo struct {
	claims    map[string]*entity.TravelClaim
	updateErr error
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[string]*entity.TravelClaim)}
}

func (r *fakeClaimRepo) Create(_ context.Context, claim *entity.TravelClaim) error {
	copied := *claim
	r.claims[claim.ID] = &copied
	return nil
}

func (r *fakeClaimRepo) GetByID(_ context.Context, tenantID, id string) (*entity.TravelClaim, error) {
	claim, ok := r.claims[id]
	if !ok || claim.TenantID != tenantID {
		return nil, nil
	}
	copied := *claim
	return &copied, nil
}

func (r *fakeClaimRepo) ListByTenant(_ context.Context, tenantID, status string, _, _ int) ([]*entity.TravelClaim, error) {
	var out []*entity.TravelClaim
	for _, c := range r.claims {
		if c.TenantID == tenantID && (status == "" || c.Status == status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClaimRepo) ListByEmployee(_ context.Context, tenantID, employeeID string, _, _ int) ([]*entity.TravelClaim, error) {
	var out []*entity.TravelClaim
	for _, c := range r.claims {
		if c.TenantID == tenantID && c.EmployeeID == employeeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClaimRepo) Update(_ context.Context, claim *entity.TravelClaim, expectedStatus string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.claims[claim.ID]
	if !ok || stored.Status != expectedStatus {
		return port.ErrStaleStatus
	}
	copied := *claim
	r.claims[claim.ID] = &copied
	return nil
}

func (r *fakeClaimRepo) Delete(_ context.Context, _, id string) error {
	delete(r.claims, id)
	return nil
}

type fakeAdvanceRepo struct {
	advances map[string]*entity.TravelAdvance
}

func newFakeAdvanceRepo() *fakeAdvanceRepo {
	return &fakeAdvanceRepo{advances: make(map[string]*entity.TravelAdvance)}
}

func (r *fakeAdvanceRepo) Create(_ context.Context, advance *entity.TravelAdvance) error {
	copied := *advance
	r.advances[advance.ID] = &copied
	return nil
}

func (r *fakeAdvanceRepo) GetByID(_ context.Context, tenantID, id string) (*entity.TravelAdvance, error) {
	advance, ok := r.advances[id]
	if !ok || advance.TenantID != tenantID {
		return nil, nil
	}
	copied := *advance
	return &copied, nil
}

func (r *fakeAdvanceRepo) GetByTravelRequestID(_ context.Context, tenantID, travelRequestID string) (*entity.TravelAdvance, error) {
	for _, a := range r.advances {
		if a.TenantID == tenantID && a.TravelRequestID == travelRequestID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeAdvanceRepo) Update(_ context.Context, advance *entity.TravelAdvance) error {
	copied := *advance
	r.advances[advance.ID] = &copied
	return nil
}

type fakeEmployeeRepo struct {
	employees map[string]*entity.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[string]*entity.Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, employee *entity.Employee) error {
	copied := *employee
	r.employees[employee.ID] = &copied
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Employee, error) {
	employee, ok := r.employees[id]
	if !ok || employee.TenantID != tenantID {
		return nil, nil
	}
	copied := *employee
	return &copied, nil
}

func (r *fakeEmployeeRepo) GetByCode(_ context.Context, tenantID, code string) (*entity.Employee, error) {
	for _, e := range r.employees {
		if e.TenantID == tenantID && e.Code == code {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEmployeeRepo) ListByTenant(_ context.Context, tenantID string, _, _ int) ([]*entity.Employee, error) {
	var out []*entity.Employee
	for _, e := range r.employees {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, employee *entity.Employee) error {
	copied := *employee
	r.employees[employee.ID] = &copied
	return nil
}

type fakePolicyRepo struct {
	active map[string]*entity.TravelPolicy // keyed by grade
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{active: make(map[string]*entity.TravelPolicy)}
}

func (r *fakePolicyRepo) Create(_ context.Context, policy *entity.TravelPolicy) error {
	r.active[policy.Grade] = policy
	return nil
}

func (r *fakePolicyRepo) GetByID(_ context.Context, _, id string) (*entity.TravelPolicy, error) {
	for _, p := range r.active {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePolicyRepo) FindActive(_ context.Context, _, grade string) (*entity.TravelPolicy, error) {
	return r.active[grade], nil
}

func (r *fakePolicyRepo) ListByTenant(_ context.Context, _ string) ([]*entity.TravelPolicy, error) {
	var out []*entity.TravelPolicy
	for _, p := range r.active {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePolicyRepo) Update(_ context.Context, policy *entity.TravelPolicy) error {
	r.active[policy.Grade] = policy
	return nil
}

type stubTxManager struct{}

func (stubTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type claimFixture struct {
	svc       *claimServiceImpl
	claims    *fakeClaimRepo
	advances  *fakeAdvanceRepo
	employees *fakeEmployeeRepo
	policies  *fakePolicyRepo
	now       time.Time
}

const (
	testTenant    = "tenant-1"
	testEmployee  = "emp-1"
	testManager   = "mgr-1"
	testThreshold = 25000.0
)

var (
	employeeActor = entity.Actor{TenantID: testTenant, UserID: testEmployee, Role: entity.RoleEmployee}
	managerActor  = entity.Actor{TenantID: testTenant, UserID: testManager, Role: entity.RoleManager}
	hrActor       = entity.Actor{TenantID: testTenant, UserID: "hr-1", Role: entity.RoleHR}
	financeActor  = entity.Actor{TenantID: testTenant, UserID: "fin-1", Role: entity.RoleFinance}
)

func newClaimFixture(t *testing.T) *claimFixture {
	t.Helper()

	f := &claimFixture{
		claims:    newFakeClaimRepo(),
		advances:  newFakeAdvanceRepo(),
		employees: newFakeEmployeeRepo(),
		policies:  newFakePolicyRepo(),
		now:       time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}

	f.employees.employees[testEmployee] = &entity.Employee{
		ID: testEmployee, TenantID: testTenant, Code: "EMP001",
		Grade: "G5", ManagerID: testManager, Active: true,
	}
	f.policies.active["G5"] = &entity.TravelPolicy{
		ID: "pol-1", TenantID: testTenant, Grade: "G5",
		ClaimSubmissionDeadlineDays: 30,
		EscalationThreshold:         testThreshold,
		Active:                      true,
	}

	svc := NewClaimService(f.claims, f.advances, f.employees, f.policies, stubTxManager{}, nil, noopLogger{})
	f.svc = svc.(*claimServiceImpl)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *claimFixture) createInput(amount float64) CreateClaimInput {
	return CreateClaimInput{
		EmployeeID:    testEmployee,
		Purpose:       "client visit",
		Currency:      "INR",
		TripStartDate: f.now.AddDate(0, 0, -10),
		TripEndDate:   f.now.AddDate(0, 0, -5),
		Expenses: []entity.ExpenseLine{
			{Class: entity.ExpenseClassLodging, Date: f.now.AddDate(0, 0, -7), Amount: amount},
		},
	}
}

func (f *claimFixture) mustCreate(t *testing.T, amount float64) *entity.TravelClaim {
	t.Helper()
	claim, err := f.svc.Create(context.Background(), employeeActor, f.createInput(amount))
	require.NoError(t, err)
	return claim
}

func TestClaimService_Create(t *testing.T) {
	t.Run("creates draft with computed total", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1200)

		assert.Equal(t, entity.StatusDraft, claim.Status)
		assert.Equal(t, 1200.0, claim.TotalAmount)
		assert.Equal(t, testTenant, claim.TenantID)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		f := newClaimFixture(t)
		_, err := f.svc.Create(context.Background(), employeeActor, CreateClaimInput{EmployeeID: testEmployee})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects negative expense line", func(t *testing.T) {
		f := newClaimFixture(t)
		input := f.createInput(100)
		input.Expenses[0].Amount = -1
		_, err := f.svc.Create(context.Background(), employeeActor, input)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("defaults the currency", func(t *testing.T) {
		f := newClaimFixture(t)
		input := f.createInput(100)
		input.Currency = ""
		claim, err := f.svc.Create(context.Background(), employeeActor, input)
		require.NoError(t, err)
		assert.Equal(t, entity.DefaultCurrency, claim.Currency)
	})

	t.Run("rejects a malformed currency code", func(t *testing.T) {
		f := newClaimFixture(t)
		input := f.createInput(100)
		input.Currency = "rupees"
		_, err := f.svc.Create(context.Background(), employeeActor, input)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("employee cannot file for someone else", func(t *testing.T) {
		f := newClaimFixture(t)
		other := entity.Actor{TenantID: testTenant, UserID: "emp-2", Role: entity.RoleEmployee}
		_, err := f.svc.Create(context.Background(), other, f.createInput(100))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("records advisory violations without blocking", func(t *testing.T) {
		f := newClaimFixture(t)
		f.policies.active["G5"].MaxClaimAmount = 500

		claim := f.mustCreate(t, 1200)
		require.Len(t, claim.PolicyViolations, 1)
		assert.Equal(t, entity.StatusDraft, claim.Status)
	})
}

func TestClaimService_CreateDeadline(t *testing.T) {
	tests := []struct {
		name        string
		daysAgo     int
		wantAllowed bool
	}{
		{name: "well within window", daysAgo: 5, wantAllowed: true},
		{name: "exactly at the deadline", daysAgo: 30, wantAllowed: true},
		{name: "one day past the deadline", daysAgo: 31, wantAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newClaimFixture(t)
			input := f.createInput(100)
			input.TripStartDate = f.now.AddDate(0, 0, -tt.daysAgo-2)
			input.TripEndDate = f.now.Add(-time.Duration(tt.daysAgo) * 24 * time.Hour)

			_, err := f.svc.Create(context.Background(), employeeActor, input)
			if tt.wantAllowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrDeadlineExceeded)
			}
		})
	}

	t.Run("default window applies without a policy", func(t *testing.T) {
		f := newClaimFixture(t)
		delete(f.policies.active, "G5")

		input := f.createInput(100)
		input.TripStartDate = f.now.Add(-33 * 24 * time.Hour)
		input.TripEndDate = f.now.Add(-31 * 24 * time.Hour)
		_, err := f.svc.Create(context.Background(), employeeActor, input)
		assert.ErrorIs(t, err, ErrDeadlineExceeded)
	})
}

func TestClaimService_Submit(t *testing.T) {
	t.Run("assigns the level1 approver from the reporting line", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)

		submitted, err := f.svc.Submit(context.Background(), employeeActor, claim.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusSubmitted, submitted.Status)
		assert.Equal(t, testManager, submitted.Level1.ApproverID)
		require.NotNil(t, submitted.SubmittedAt)
	})

	t.Run("double submit is rejected", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)

		_, err := f.svc.Submit(context.Background(), employeeActor, claim.ID)
		require.NoError(t, err)
		_, err = f.svc.Submit(context.Background(), employeeActor, claim.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

// submitAndApprove walks a claim to the given point in the chain.
func submitAndApprove(t *testing.T, f *claimFixture, claimID string, levels ...string) *entity.TravelClaim {
	t.Helper()

	claim, err := f.svc.Submit(context.Background(), employeeActor, claimID)
	require.NoError(t, err)

	for _, level := range levels {
		actor := hrActor
		switch level {
		case "LEVEL1":
			actor = managerActor
		case "FINANCE":
			actor = financeActor
		}
		claim, err = f.svc.Approve(context.Background(), actor, claimID, level, "", nil)
		require.NoError(t, err)
	}
	return claim
}

func TestClaimService_Approve(t *testing.T) {
	t.Run("large claim walks the full chain through level2", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 30000)

		claim = submitAndApprove(t, f, claim.ID, "LEVEL1", "LEVEL2", "LEVEL3", "FINANCE")
		assert.Equal(t, entity.StatusFinanceApproved, claim.Status)
		assert.Equal(t, 30000.0, claim.ApprovedAmount)
	})

	t.Run("small claim skips level2", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 10000)

		claim = submitAndApprove(t, f, claim.ID, "LEVEL1", "LEVEL3", "FINANCE")
		assert.Equal(t, entity.StatusFinanceApproved, claim.Status)
	})

	t.Run("small claim cannot take the level2 step", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 10000)
		submitAndApprove(t, f, claim.ID, "LEVEL1")

		_, err := f.svc.Approve(context.Background(), hrActor, claim.ID, "LEVEL2", "", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("large claim cannot skip level2", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 30000)
		submitAndApprove(t, f, claim.ID, "LEVEL1")

		_, err := f.svc.Approve(context.Background(), hrActor, claim.ID, "LEVEL3", "", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("level must come in order", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 30000)
		_, err := f.svc.Submit(context.Background(), employeeActor, claim.ID)
		require.NoError(t, err)

		_, err = f.svc.Approve(context.Background(), financeActor, claim.ID, "FINANCE", "", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("employee role cannot approve", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)
		_, err := f.svc.Submit(context.Background(), employeeActor, claim.ID)
		require.NoError(t, err)

		_, err = f.svc.Approve(context.Background(), employeeActor, claim.ID, "LEVEL1", "", nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown level token", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)

		_, err := f.svc.Approve(context.Background(), managerActor, claim.ID, "LEVEL9", "", nil)
		assert.ErrorIs(t, err, ErrInvalidLevel)
	})

	t.Run("finance partial approval rewrites the total", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 10000)
		submitAndApprove(t, f, claim.ID, "LEVEL1", "LEVEL3")

		reduced := 8000.0
		claim, err := f.svc.Approve(context.Background(), financeActor, claim.ID, "FINANCE", "trimmed per receipts", &reduced)
		require.NoError(t, err)
		assert.Equal(t, 8000.0, claim.ApprovedAmount)
		assert.Equal(t, 8000.0, claim.TotalAmount)
	})

	t.Run("finance approval above total is ignored", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 10000)
		submitAndApprove(t, f, claim.ID, "LEVEL1", "LEVEL3")

		raised := 12000.0
		claim, err := f.svc.Approve(context.Background(), financeActor, claim.ID, "FINANCE", "", &raised)
		require.NoError(t, err)
		assert.Equal(t, 10000.0, claim.ApprovedAmount)
		assert.Equal(t, 10000.0, claim.TotalAmount)
	})
}

func TestClaimService_Reject(t *testing.T) {
	t.Run("rejection routes the comment to the pending level", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 30000)
		submitAndApprove(t, f, claim.ID, "LEVEL1")

		rejected, err := f.svc.Reject(context.Background(), hrActor, claim.ID, "no receipts")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRejected, rejected.Status)
		assert.Equal(t, "no receipts", rejected.Level2.Comments)
	})

	t.Run("already rejected", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)
		_, err := f.svc.Reject(context.Background(), managerActor, claim.ID, "first")
		require.NoError(t, err)

		_, err = f.svc.Reject(context.Background(), managerActor, claim.ID, "second")
		assert.ErrorIs(t, err, ErrAlreadyRejected)
	})

	t.Run("approval after rejection", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)
		_, err := f.svc.Reject(context.Background(), managerActor, claim.ID, "")
		require.NoError(t, err)

		_, err = f.svc.Approve(context.Background(), managerActor, claim.ID, "LEVEL1", "", nil)
		assert.ErrorIs(t, err, ErrAlreadyRejected)
	})
}

func TestClaimService_Settle(t *testing.T) {
	setup := func(t *testing.T, claimAmount, advanceAmount float64, approved *float64) (*claimFixture, *entity.TravelClaim) {
		f := newClaimFixture(t)
		f.advances.advances["adv-1"] = &entity.TravelAdvance{
			ID: "adv-1", TenantID: testTenant, EmployeeID: testEmployee,
			Status: entity.AdvanceStatusPaid, Amount: advanceAmount,
		}

		input := f.createInput(claimAmount)
		input.AdvanceID = "adv-1"
		claim, err := f.svc.Create(context.Background(), employeeActor, input)
		require.NoError(t, err)

		submitAndApprove(t, f, claim.ID, "LEVEL1", "LEVEL3")
		claim, err = f.svc.Approve(context.Background(), financeActor, claim.ID, "FINANCE", "", approved)
		require.NoError(t, err)
		return f, claim
	}

	t.Run("approved above advance yields net payable", func(t *testing.T) {
		f, claim := setup(t, 8000, 5000, nil)

		settled, err := f.svc.Settle(context.Background(), financeActor, claim.ID, "PAY-123")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusSettled, settled.Status)
		assert.Equal(t, 3000.0, settled.NetPayable)
		assert.Equal(t, 0.0, settled.NetRecoverable)

		advance := f.advances.advances["adv-1"]
		assert.Equal(t, entity.AdvanceStatusSettled, advance.Status)
		assert.Equal(t, 8000.0, advance.SettledAmount)
	})

	t.Run("approved below advance yields net recoverable", func(t *testing.T) {
		approved := 3000.0
		f, claim := setup(t, 5000, 5000, &approved)

		settled, err := f.svc.Settle(context.Background(), financeActor, claim.ID, "PAY-456")
		require.NoError(t, err)
		assert.Equal(t, 0.0, settled.NetPayable)
		assert.Equal(t, 2000.0, settled.NetRecoverable)

		advance := f.advances.advances["adv-1"]
		assert.Equal(t, 2000.0, advance.RecoverableAmount)
	})

	t.Run("only finance or admin may settle", func(t *testing.T) {
		f, claim := setup(t, 8000, 5000, nil)
		_, err := f.svc.Settle(context.Background(), managerActor, claim.ID, "PAY-1")
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = f.svc.Settle(context.Background(), employeeActor, claim.ID, "PAY-1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("payment reference is required", func(t *testing.T) {
		f, claim := setup(t, 8000, 5000, nil)
		_, err := f.svc.Settle(context.Background(), financeActor, claim.ID, "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("settlement needs finance approval first", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)
		submitAndApprove(t, f, claim.ID, "LEVEL1", "LEVEL3")

		_, err := f.svc.Settle(context.Background(), financeActor, claim.ID, "PAY-1")
		assert.ErrorIs(t, err, ErrNotApproved)
	})

	t.Run("double settlement", func(t *testing.T) {
		f, claim := setup(t, 8000, 5000, nil)
		_, err := f.svc.Settle(context.Background(), financeActor, claim.ID, "PAY-1")
		require.NoError(t, err)

		_, err = f.svc.Settle(context.Background(), financeActor, claim.ID, "PAY-2")
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})
}

func TestClaimService_ConcurrentStatusChange(t *testing.T) {
	f := newClaimFixture(t)
	claim := f.mustCreate(t, 1000)
	f.claims.updateErr = port.ErrStaleStatus

	_, err := f.svc.Submit(context.Background(), employeeActor, claim.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClaimService_DeleteDraft(t *testing.T) {
	t.Run("deletes a draft", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)

		require.NoError(t, f.svc.DeleteDraft(context.Background(), employeeActor, claim.ID))
		_, err := f.svc.Get(context.Background(), employeeActor, claim.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("refuses once submitted", func(t *testing.T) {
		f := newClaimFixture(t)
		claim := f.mustCreate(t, 1000)
		_, err := f.svc.Submit(context.Background(), employeeActor, claim.ID)
		require.NoError(t, err)

		err = f.svc.DeleteDraft(context.Background(), employeeActor, claim.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestClaimService_TenantIsolation(t *testing.T) {
	f := newClaimFixture(t)
	claim := f.mustCreate(t, 1000)

	foreign := entity.Actor{TenantID: "tenant-2", UserID: "admin-2", Role: entity.RoleAdmin}
	_, err := f.svc.Get(context.Background(), foreign, claim.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimService_Revalidate(t *testing.T) {
	f := newClaimFixture(t)
	claim := f.mustCreate(t, 1000)
	require.Empty(t, claim.PolicyViolations)

	// Tighten the policy after creation; revalidation picks it up
	f.policies.active["G5"].MaxClaimAmount = 500

	violations, err := f.svc.Revalidate(context.Background(), employeeActor, claim.ID)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, 500.0, violations[0].Limit)
}
