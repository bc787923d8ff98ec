package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearhr/claimflow/internal/application/dispatcher"
	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/internal/domain/event"
)

// Retry budget for outbox deliveries before a notification is parked as
// failed
const maxDeliveryAttempts = 5

// NotificationService bridges domain events to the notification outbox.
// HandleEvent enqueues; DispatchPending drains the outbox and is driven by
// the background worker, so delivery retries never block a workflow
// transition.
type NotificationService interface {
	RegisterHandlers(d dispatcher.Dispatcher)
	HandleEvent(ctx context.Context, evt *event.Event) error
	DispatchPending(ctx context.Context, batchSize int) (int, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	employeeRepo     port.EmployeeRepository
	notifier         port.Notifier
	logger           Logger

	now func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	employeeRepo port.EmployeeRepository,
	notifier port.Notifier,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		employeeRepo:     employeeRepo,
		notifier:         notifier,
		logger:           logger,
		now:              time.Now,
	}
}

// RegisterHandlers subscribes the outbox to the events that notify the
// record's owner
func (s *notificationServiceImpl) RegisterHandlers(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeClaimSubmitted, event.TypeClaimApproved,
		event.TypeClaimRejected, event.TypeClaimSettled,
		event.TypeRequestApproved, event.TypeRequestRejected,
		event.TypeGoalApproved, event.TypeGoalRejected,
		event.TypePIPApproved, event.TypePIPRejected, event.TypePIPClosed,
		event.TypeAdvancePaid,
		event.TypeLoanApproved, event.TypeLoanRejected, event.TypeLoanDisbursed,
		event.TypeAppraisalReviewed, event.TypeAppraisalClosed,
	} {
		d.Subscribe(t, "notification-outbox", s.HandleEvent)
	}
}

func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	recipient := evt.PayloadString("employee_id")
	if recipient == "" {
		recipient = evt.Actor.UserID
	}

	if s.employeeRepo != nil {
		employee, err := s.employeeRepo.GetByID(ctx, evt.TenantID, recipient)
		if err == nil && employee != nil && employee.Email != "" {
			recipient = employee.Email
		}
	}

	notification := &entity.Notification{
		ID:        uuid.NewString(),
		TenantID:  evt.TenantID,
		ActorID:   evt.Actor.UserID,
		Recipient: recipient,
		Subject:   subjectFor(evt),
		Message:   messageFor(evt),
		Module:    evt.EntityType,
		Action:    evt.Type.String(),
		Status:    entity.NotificationStatusPending,
		CreatedAt: s.now(),
	}

	if err := s.notificationRepo.Enqueue(ctx, notification); err != nil {
		s.logger.Error("Failed to enqueue notification",
			"error", err,
			"event_type", evt.Type.String(),
			"entity_id", evt.EntityID,
		)
		return err
	}
	return nil
}

// DispatchPending delivers up to batchSize queued notifications and returns
// how many went out. Failures increment the attempt counter; the row is
// parked as failed once the retry budget is spent.
func (s *notificationServiceImpl) DispatchPending(ctx context.Context, batchSize int) (int, error) {
	pending, err := s.notificationRepo.GetPending(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending notifications: %w", err)
	}

	var sent int
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.Error("Notification delivery failed",
				"notification_id", n.ID,
				"attempts", n.Attempts+1,
				"error", err,
			)
			if n.Attempts+1 >= maxDeliveryAttempts {
				if markErr := s.notificationRepo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
					s.logger.Error("Failed to park notification", "notification_id", n.ID, "error", markErr)
				}
			} else if markErr := s.notificationRepo.RecordAttempt(ctx, n.ID, err.Error()); markErr != nil {
				s.logger.Error("Failed to record delivery error", "notification_id", n.ID, "error", markErr)
			}
			continue
		}

		if err := s.notificationRepo.MarkSent(ctx, n.ID); err != nil {
			s.logger.Error("Failed to mark notification sent", "notification_id", n.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func subjectFor(evt *event.Event) string {
	switch evt.Type {
	case event.TypeClaimSubmitted:
		return "Travel claim submitted"
	case event.TypeClaimApproved:
		return fmt.Sprintf("Travel claim approved at %s", evt.PayloadString("level"))
	case event.TypeClaimRejected:
		return "Travel claim rejected"
	case event.TypeClaimSettled:
		return "Travel claim settled"
	case event.TypeRequestApproved:
		return "Travel request approved"
	case event.TypeRequestRejected:
		return "Travel request rejected"
	case event.TypeGoalApproved:
		return "Goal approved"
	case event.TypeGoalRejected:
		return "Goal rejected"
	case event.TypePIPApproved:
		return "Improvement plan activated"
	case event.TypePIPRejected:
		return "Improvement plan rejected"
	case event.TypePIPClosed:
		return "Improvement plan closed"
	case event.TypeAdvancePaid:
		return "Travel advance paid"
	case event.TypeLoanApproved:
		return "Loan request approved"
	case event.TypeLoanRejected:
		return "Loan request rejected"
	case event.TypeLoanDisbursed:
		return "Loan disbursed"
	case event.TypeAppraisalReviewed:
		return "Appraisal reviewed"
	case event.TypeAppraisalClosed:
		return "Appraisal closed"
	default:
		return evt.Type.String()
	}
}

func messageFor(evt *event.Event) string {
	msg := fmt.Sprintf("%s %s is now %s.", evt.EntityType, evt.EntityID, evt.PayloadString("status"))
	if comments := evt.PayloadString("comments"); comments != "" {
		msg += " Comments: " + comments
	}
	return msg
}
