package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/clearhr/claimflow/internal/application/dispatcher"
	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/internal/domain/event"
)

// AuditService turns committed domain events into append-only audit rows.
// It runs on the async dispatcher, after the transition that produced the
// event has been durably stored, so an audit failure can never roll back a
// workflow decision.
type AuditService interface {
	RegisterHandlers(d dispatcher.Dispatcher)
	HandleEvent(ctx context.Context, evt *event.Event) error
	ListByEntity(ctx context.Context, actor entity.Actor, entityType, entityID string) ([]*entity.AuditEntry, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditLogRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditLogRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// RegisterHandlers subscribes the audit trail to every event type
func (s *auditServiceImpl) RegisterHandlers(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeClaimCreated, event.TypeClaimSubmitted, event.TypeClaimApproved,
		event.TypeClaimRejected, event.TypeClaimSettled,
		event.TypeRequestSubmitted, event.TypeRequestApproved, event.TypeRequestRejected,
		event.TypeGoalSubmitted, event.TypeGoalApproved, event.TypeGoalRejected,
		event.TypePIPSubmitted, event.TypePIPApproved, event.TypePIPRejected, event.TypePIPClosed,
		event.TypeAdvanceCreated, event.TypeAdvancePaid,
		event.TypeLoanSubmitted, event.TypeLoanApproved, event.TypeLoanRejected, event.TypeLoanDisbursed,
		event.TypeAppraisalSubmitted, event.TypeAppraisalReviewed, event.TypeAppraisalClosed,
	} {
		d.Subscribe(t, "audit-trail", s.HandleEvent)
	}
}

func (s *auditServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	changes, err := json.Marshal(evt.Payload)
	if err != nil {
		changes = nil
	}

	entry := &entity.AuditEntry{
		ID:          uuid.NewString(),
		TenantID:    evt.TenantID,
		ActorID:     evt.Actor.UserID,
		Action:      evt.Type.String(),
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		Description: fmt.Sprintf("%s on %s %s", evt.Type, evt.EntityType, evt.EntityID),
		Changes:     string(changes),
		CreatedAt:   evt.Timestamp,
	}

	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record audit entry",
			"error", err,
			"event_type", evt.Type.String(),
			"entity_id", evt.EntityID,
		)
		return err
	}
	return nil
}

func (s *auditServiceImpl) ListByEntity(ctx context.Context, actor entity.Actor, entityType, entityID string) ([]*entity.AuditEntry, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.auditRepo.ListByEntity(ctx, actor.TenantID, entityType, entityID)
}
