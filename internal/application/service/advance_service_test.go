package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhr/claimflow/internal/application/dispatcher"
	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/internal/domain/event"
)

type advanceFixture struct {
	svc      *advanceServiceImpl
	requests *fakeRequestRepo
}

func newAdvanceFixture(t *testing.T) *advanceFixture {
	t.Helper()

	requests := newFakeRequestRepo()
	svc := NewAdvanceService(newFakeAdvanceRepo(), requests, stubTxManager{}, nil, noopLogger{})
	impl := svc.(*advanceServiceImpl)
	impl.now = func() time.Time { return time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC) }
	return &advanceFixture{svc: impl, requests: requests}
}

func (f *advanceFixture) seedRequest(t *testing.T, status string) string {
	t.Helper()
	request := &entity.TravelRequest{
		ID: "req-1", TenantID: testTenant, EmployeeID: testEmployee,
		Purpose: "client onboarding", Destination: "Chennai",
		EstimatedCost: 20000, Status: status,
	}
	require.NoError(t, f.requests.Create(context.Background(), request))
	return request.ID
}

func TestAdvanceService_Create(t *testing.T) {
	t.Run("issues an advance against an approved request", func(t *testing.T) {
		f := newAdvanceFixture(t)
		requestID := f.seedRequest(t, entity.StatusLevel3Approved)

		advance, err := f.svc.Create(context.Background(), financeActor, requestID, 5000)
		require.NoError(t, err)
		assert.Equal(t, entity.AdvanceStatusRequested, advance.Status)
		assert.Equal(t, testEmployee, advance.EmployeeID)
	})

	t.Run("request must be fully approved", func(t *testing.T) {
		f := newAdvanceFixture(t)
		requestID := f.seedRequest(t, entity.StatusLevel1Approved)

		_, err := f.svc.Create(context.Background(), financeActor, requestID, 5000)
		assert.ErrorIs(t, err, ErrNotApproved)
	})

	t.Run("one advance per travel request", func(t *testing.T) {
		f := newAdvanceFixture(t)
		requestID := f.seedRequest(t, entity.StatusLevel3Approved)
		_, err := f.svc.Create(context.Background(), financeActor, requestID, 5000)
		require.NoError(t, err)

		_, err = f.svc.Create(context.Background(), financeActor, requestID, 3000)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only finance can issue advances", func(t *testing.T) {
		f := newAdvanceFixture(t)
		requestID := f.seedRequest(t, entity.StatusLevel3Approved)

		_, err := f.svc.Create(context.Background(), managerActor, requestID, 5000)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestAdvanceService_MarkPaid(t *testing.T) {
	t.Run("records the payout", func(t *testing.T) {
		f := newAdvanceFixture(t)
		requestID := f.seedRequest(t, entity.StatusLevel3Approved)
		advance, err := f.svc.Create(context.Background(), financeActor, requestID, 5000)
		require.NoError(t, err)

		paid, err := f.svc.MarkPaid(context.Background(), financeActor, advance.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.AdvanceStatusPaid, paid.Status)
		require.NotNil(t, paid.PaidAt)

		_, err = f.svc.MarkPaid(context.Background(), financeActor, advance.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestAdvanceService_AuditTrail(t *testing.T) {
	auditRepo := &fakeAuditRepo{}
	events := dispatcher.New(noopLogger{})
	NewAuditService(auditRepo, noopLogger{}).RegisterHandlers(events)

	f := newAdvanceFixture(t)
	f.svc.events = events
	requestID := f.seedRequest(t, entity.StatusLevel3Approved)

	advance, err := f.svc.Create(context.Background(), financeActor, requestID, 5000)
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), financeActor, advance.ID)
	require.NoError(t, err)
	require.NoError(t, events.Close())

	actions := make(map[string]int)
	for _, entry := range auditRepo.entries {
		require.Equal(t, entity.ModuleTravelAdvance, entry.EntityType)
		require.Equal(t, advance.ID, entry.EntityID)
		actions[entry.Action]++
	}
	assert.Equal(t, 1, actions[event.TypeAdvanceCreated.String()])
	assert.Equal(t, 1, actions[event.TypeAdvancePaid.String()])
}
