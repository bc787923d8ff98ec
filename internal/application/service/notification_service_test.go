package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/internal/domain/event"
)

type fakeNotificationRepo struct {
	rows map[string]*entity.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[string]*entity.Notification)}
}

func (r *fakeNotificationRepo) Enqueue(_ context.Context, n *entity.Notification) error {
	copied := *n
	r.rows[n.ID] = &copied
	return nil
}

func (r *fakeNotificationRepo) GetPending(_ context.Context, limit int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range r.rows {
		if n.Status == entity.NotificationStatusPending {
			copied := *n
			out = append(out, &copied)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkSent(_ context.Context, id string) error {
	r.rows[id].Status = entity.NotificationStatusSent
	return nil
}

func (r *fakeNotificationRepo) RecordAttempt(_ context.Context, id, lastError string) error {
	r.rows[id].Attempts++
	r.rows[id].LastError = lastError
	return nil
}

func (r *fakeNotificationRepo) MarkFailed(_ context.Context, id, lastError string) error {
	r.rows[id].Status = entity.NotificationStatusFailed
	r.rows[id].LastError = lastError
	return nil
}

type fakeNotifier struct {
	sent    []*entity.Notification
	sendErr error
}

func (n *fakeNotifier) Send(_ context.Context, notification *entity.Notification) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, notification)
	return nil
}

func TestNotificationService_HandleEvent(t *testing.T) {
	t.Run("resolves the recipient through the employee directory", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		employees := newFakeEmployeeRepo()
		employees.employees[testEmployee] = &entity.Employee{
			ID: testEmployee, TenantID: testTenant, Code: "EMP001",
			Email: "priya@example.com", Active: true,
		}
		svc := NewNotificationService(repo, employees, &fakeNotifier{}, noopLogger{})

		evt := event.New(event.TypeClaimRejected, managerActor, "travel_claim", "claim-1", map[string]interface{}{
			"employee_id": testEmployee,
			"status":      entity.StatusRejected,
			"comments":    "missing receipts",
		})
		require.NoError(t, svc.HandleEvent(context.Background(), evt))

		require.Len(t, repo.rows, 1)
		for _, n := range repo.rows {
			assert.Equal(t, "priya@example.com", n.Recipient)
			assert.Equal(t, entity.NotificationStatusPending, n.Status)
			assert.Equal(t, "Travel claim rejected", n.Subject)
			assert.Contains(t, n.Message, "missing receipts")
		}
	})

	t.Run("falls back to the acting user when the payload has no owner", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		svc := NewNotificationService(repo, newFakeEmployeeRepo(), &fakeNotifier{}, noopLogger{})

		evt := event.New(event.TypeClaimSubmitted, employeeActor, "travel_claim", "claim-2", nil)
		require.NoError(t, svc.HandleEvent(context.Background(), evt))

		for _, n := range repo.rows {
			assert.Equal(t, employeeActor.UserID, n.Recipient)
		}
	})
}

func TestNotificationService_DispatchPending(t *testing.T) {
	enqueue := func(t *testing.T, svc NotificationService) {
		t.Helper()
		evt := event.New(event.TypeLoanDisbursed, financeActor, "loan", "loan-1", map[string]interface{}{
			"employee_id": testEmployee,
			"status":      entity.StatusSettled,
		})
		require.NoError(t, svc.HandleEvent(context.Background(), evt))
	}

	t.Run("delivers and marks sent", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		notifier := &fakeNotifier{}
		svc := NewNotificationService(repo, newFakeEmployeeRepo(), notifier, noopLogger{})
		enqueue(t, svc)

		sent, err := svc.DispatchPending(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Len(t, notifier.sent, 1)
		for _, n := range repo.rows {
			assert.Equal(t, entity.NotificationStatusSent, n.Status)
		}

		// a drained outbox delivers nothing
		sent, err = svc.DispatchPending(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
	})

	t.Run("failures stay pending until the retry budget is spent", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		notifier := &fakeNotifier{sendErr: errors.New("smtp unreachable")}
		svc := NewNotificationService(repo, newFakeEmployeeRepo(), notifier, noopLogger{})
		enqueue(t, svc)

		for attempt := 1; attempt < maxDeliveryAttempts; attempt++ {
			sent, err := svc.DispatchPending(context.Background(), 10)
			require.NoError(t, err)
			assert.Equal(t, 0, sent)
			for _, n := range repo.rows {
				assert.Equal(t, entity.NotificationStatusPending, n.Status)
				assert.Equal(t, attempt, n.Attempts)
				assert.Equal(t, "smtp unreachable", n.LastError)
			}
		}

		sent, err := svc.DispatchPending(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		for _, n := range repo.rows {
			assert.Equal(t, entity.NotificationStatusFailed, n.Status)
		}
	})

	t.Run("recovery after a transient failure", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		notifier := &fakeNotifier{sendErr: errors.New("timeout")}
		svc := NewNotificationService(repo, newFakeEmployeeRepo(), notifier, noopLogger{})
		enqueue(t, svc)

		_, err := svc.DispatchPending(context.Background(), 10)
		require.NoError(t, err)

		notifier.sendErr = nil
		sent, err := svc.DispatchPending(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		svc := NewNotificationService(repo, newFakeEmployeeRepo(), &fakeNotifier{}, noopLogger{})
		enqueue(t, svc)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.DispatchPending(ctx, 10)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
