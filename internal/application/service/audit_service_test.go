package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/internal/domain/event"
)

// fakeAuditRepo is shared with the dispatcher-backed service tests, whose
// handlers record entries from background goroutines
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*entity.AuditEntry
}

func (r *fakeAuditRepo) Record(_ context.Context, entry *entity.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, tenantID, entityType, entityID string) ([]*entity.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.AuditEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestAuditService_HandleEvent(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, noopLogger{})

	evt := event.New(event.TypeClaimApproved, managerActor, entity.ModuleTravelClaim, "claim-1", map[string]interface{}{
		"level":  "LEVEL1",
		"status": entity.StatusLevel1Approved,
	})
	require.NoError(t, svc.HandleEvent(context.Background(), evt))

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, testTenant, entry.TenantID)
	assert.Equal(t, managerActor.UserID, entry.ActorID)
	assert.Equal(t, event.TypeClaimApproved.String(), entry.Action)
	assert.Equal(t, entity.ModuleTravelClaim, entry.EntityType)
	assert.Equal(t, "claim-1", entry.EntityID)
	assert.Contains(t, entry.Changes, "LEVEL1")
	assert.Equal(t, evt.Timestamp, entry.CreatedAt)
}

func TestAuditService_ListByEntity(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, noopLogger{})

	for _, id := range []string{"claim-1", "claim-1", "claim-2"} {
		evt := event.New(event.TypeClaimSubmitted, employeeActor, entity.ModuleTravelClaim, id, nil)
		require.NoError(t, svc.HandleEvent(context.Background(), evt))
	}

	t.Run("scopes the trail to one entity", func(t *testing.T) {
		entries, err := svc.ListByEntity(context.Background(), hrActor, entity.ModuleTravelClaim, "claim-1")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("employees cannot read the trail", func(t *testing.T) {
		_, err := svc.ListByEntity(context.Background(), employeeActor, entity.ModuleTravelClaim, "claim-1")
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
