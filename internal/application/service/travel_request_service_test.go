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

type fakeRequestRepo struct {
	requests map[string]*entity.TravelRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*entity.TravelRequest)}
}

func (r *fakeRequestRepo) Create(_ context.Context, request *entity.TravelRequest) error {
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, tenantID, id string) (*entity.TravelRequest, error) {
	request, ok := r.requests[id]
	if !ok || request.TenantID != tenantID {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (r *fakeRequestRepo) ListByTenant(_ context.Context, tenantID, status string, _, _ int) ([]*entity.TravelRequest, error) {
	var out []*entity.TravelRequest
	for _, req := range r.requests {
		if req.TenantID == tenantID && (status == "" || req.Status == status) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) Update(_ context.Context, request *entity.TravelRequest, expectedStatus string) error {
	stored, ok := r.requests[request.ID]
	if !ok || stored.Status != expectedStatus {
		return port.ErrStaleStatus
	}
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) Delete(_ context.Context, tenantID, id string) error {
	if stored, ok := r.requests[id]; ok && stored.TenantID == tenantID {
		delete(r.requests, id)
	}
	return nil
}

func newTravelRequestService(t *testing.T) *travelRequestServiceImpl {
	t.Helper()

	employees := newFakeEmployeeRepo()
	employees.employees[testEmployee] = &entity.Employee{
		ID: testEmployee, TenantID: testTenant, Code: "EMP001",
		Grade: "G5", ManagerID: testManager, Active: true,
	}
	policies := newFakePolicyRepo()
	policies.active["G5"] = &entity.TravelPolicy{
		ID: "pol-1", TenantID: testTenant, Grade: "G5",
		ClaimSubmissionDeadlineDays: 30,
		EscalationThreshold:         testThreshold,
	}

	svc := NewTravelRequestService(newFakeRequestRepo(), employees, policies, stubTxManager{}, nil, noopLogger{})
	impl := svc.(*travelRequestServiceImpl)
	impl.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return impl
}

func createRequest(t *testing.T, svc *travelRequestServiceImpl, estimatedCost float64) *entity.TravelRequest {
	t.Helper()
	request, err := svc.Create(context.Background(), employeeActor, CreateTravelRequestInput{
		EmployeeID:    testEmployee,
		Purpose:       "client onboarding",
		Origin:        "Pune",
		Destination:   "Chennai",
		StartDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		EstimatedCost: estimatedCost,
	})
	require.NoError(t, err)
	return request
}

func TestTravelRequestService_Create(t *testing.T) {
	t.Run("creates a draft", func(t *testing.T) {
		svc := newTravelRequestService(t)
		request := createRequest(t, svc, 18000)
		assert.Equal(t, entity.StatusDraft, request.Status)
	})

	t.Run("end date cannot precede start date", func(t *testing.T) {
		svc := newTravelRequestService(t)
		_, err := svc.Create(context.Background(), employeeActor, CreateTravelRequestInput{
			EmployeeID:  testEmployee,
			Purpose:     "x",
			Destination: "Chennai",
			StartDate:   time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTravelRequestService_ApprovalChain(t *testing.T) {
	t.Run("level3 approval is terminal success", func(t *testing.T) {
		svc := newTravelRequestService(t)
		request := createRequest(t, svc, 30000)

		request, err := svc.Submit(context.Background(), employeeActor, request.ID)
		require.NoError(t, err)
		assert.Equal(t, testManager, request.Level1.ApproverID)

		request, err = svc.Approve(context.Background(), managerActor, request.ID, "LEVEL1", "")
		require.NoError(t, err)
		request, err = svc.Approve(context.Background(), hrActor, request.ID, "LEVEL2", "")
		require.NoError(t, err)
		request, err = svc.Approve(context.Background(), hrActor, request.ID, "LEVEL3", "go ahead")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusLevel3Approved, request.Status)

		// no finance leg on pre-trip authorizations
		_, err = svc.Approve(context.Background(), financeActor, request.ID, "FINANCE", "")
		assert.ErrorIs(t, err, ErrInvalidLevel)
	})

	t.Run("small requests skip level2", func(t *testing.T) {
		svc := newTravelRequestService(t)
		request := createRequest(t, svc, 12000)

		_, err := svc.Submit(context.Background(), employeeActor, request.ID)
		require.NoError(t, err)
		_, err = svc.Approve(context.Background(), managerActor, request.ID, "LEVEL1", "")
		require.NoError(t, err)

		_, err = svc.Approve(context.Background(), hrActor, request.ID, "LEVEL2", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)

		request, err = svc.Approve(context.Background(), hrActor, request.ID, "LEVEL3", "")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusLevel3Approved, request.Status)
	})

	t.Run("rejection comment lands on the pending slot", func(t *testing.T) {
		svc := newTravelRequestService(t)
		request := createRequest(t, svc, 12000)
		_, err := svc.Submit(context.Background(), employeeActor, request.ID)
		require.NoError(t, err)

		request, err = svc.Reject(context.Background(), managerActor, request.ID, "no budget this quarter")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRejected, request.Status)
		assert.Equal(t, "no budget this quarter", request.Level1.Comments)
		assert.Equal(t, managerActor.UserID, request.Level1.ApproverID)
		require.NotNil(t, request.Level1.ActedAt)

		_, err = svc.Reject(context.Background(), managerActor, request.ID, "again")
		assert.ErrorIs(t, err, ErrAlreadyRejected)
	})

	t.Run("rejection while pending level2 lands on the level2 slot", func(t *testing.T) {
		svc := newTravelRequestService(t)
		request := createRequest(t, svc, 30000)
		_, err := svc.Submit(context.Background(), employeeActor, request.ID)
		require.NoError(t, err)
		_, err = svc.Approve(context.Background(), managerActor, request.ID, "LEVEL1", "")
		require.NoError(t, err)

		request, err = svc.Reject(context.Background(), hrActor, request.ID, "over budget")
		require.NoError(t, err)
		assert.Equal(t, "over budget", request.Level2.Comments)
		assert.Equal(t, hrActor.UserID, request.Level2.ApproverID)
		require.NotNil(t, request.Level2.ActedAt)
		assert.Empty(t, request.Level1.Comments)
	})
}

func TestTravelRequestService_DeleteDraft(t *testing.T) {
	svc := newTravelRequestService(t)
	request := createRequest(t, svc, 9000)

	require.NoError(t, svc.DeleteDraft(context.Background(), employeeActor, request.ID))
	_, err := svc.Get(context.Background(), employeeActor, request.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	request = createRequest(t, svc, 9000)
	_, err = svc.Submit(context.Background(), employeeActor, request.ID)
	require.NoError(t, err)
	err = svc.DeleteDraft(context.Background(), employeeActor, request.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
