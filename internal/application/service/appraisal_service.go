package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/clearhr/claimflow/internal/application/dispatcher"
	"github.com/clearhr/claimflow/internal/application/port"
	appwf "github.com/clearhr/claimflow/internal/application/workflow"
	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/internal/domain/event"
	domainwf "github.com/clearhr/claimflow/internal/domain/workflow"
)

// AddFeedbackInput carries one 360-degree feedback entry
type AddFeedbackInput struct {
	AppraisalID  string
	Relationship string
	Rating       float64
	Comments     string
}

// AppraisalService owns the appraisal cycle: self rating, 360 feedback,
// manager review and final close-out. Status follows the single-level
// workflow: drafts are submitted, the manager review approves them, and
// closing the appraisal completes it.
type AppraisalService interface {
	Create(ctx context.Context, actor entity.Actor, employeeID, cycle string) (*entity.Appraisal, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.Appraisal, error)
	ListByCycle(ctx context.Context, actor entity.Actor, cycle string, limit, offset int) ([]*entity.Appraisal, error)
	SubmitSelf(ctx context.Context, actor entity.Actor, id string, selfRating float64) (*entity.Appraisal, error)
	AddFeedback(ctx context.Context, actor entity.Actor, input AddFeedbackInput) (*entity.Feedback360, error)
	ListFeedback(ctx context.Context, actor entity.Actor, appraisalID string) ([]*entity.Feedback360, error)
	ManagerReview(ctx context.Context, actor entity.Actor, id string, managerRating float64, comments string) (*entity.Appraisal, error)
	Close(ctx context.Context, actor entity.Actor, id string) (*entity.Appraisal, error)
}

type appraisalServiceImpl struct {
	appraisalRepo port.AppraisalRepository
	feedbackRepo  port.FeedbackRepository
	employeeRepo  port.EmployeeRepository
	txManager     port.TransactionManager
	events        dispatcher.Dispatcher
	logger        Logger

	now func() time.Time
}

// NewAppraisalService creates a new AppraisalService
func NewAppraisalService(
	appraisalRepo port.AppraisalRepository,
	feedbackRepo port.FeedbackRepository,
	employeeRepo port.EmployeeRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) AppraisalService {
	return &appraisalServiceImpl{
		appraisalRepo: appraisalRepo,
		feedbackRepo:  feedbackRepo,
		employeeRepo:  employeeRepo,
		txManager:     txManager,
		events:        events,
		logger:        logger,
		now:           time.Now,
	}
}

// Weights for the final score blend. Manager rating dominates; the 360
// aggregate and self rating temper it.
const (
	weightManager  = 0.5
	weightFeedback = 0.3
	weightSelf     = 0.2
)

const maxRating = 5.0

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *appraisalServiceImpl) Create(ctx context.Context, actor entity.Actor, employeeID, cycle string) (*entity.Appraisal, error) {
	if actor.Role != entity.RoleHR && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}
	if employeeID == "" || cycle == "" {
		return nil, fmt.Errorf("%w: employee_id and cycle are required", ErrValidation)
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, employeeID)
	}

	now := s.now()
	appraisal := &entity.Appraisal{
		ID:         uuid.NewString(),
		TenantID:   actor.TenantID,
		EmployeeID: employeeID,
		Cycle:      cycle,
		Status:     entity.StatusDraft,
		Manager:    entity.ApprovalSlot{ApproverID: employee.ManagerID},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.appraisalRepo.Create(txCtx, appraisal)
	}); err != nil {
		s.logger.Error("Failed to create appraisal", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return appraisal, nil
}

func (s *appraisalServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Appraisal, error) {
	appraisal, err := s.appraisalRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if appraisal == nil {
		return nil, fmt.Errorf("%w: appraisal %s", ErrNotFound, id)
	}
	if appraisal.EmployeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return appraisal, nil
}

func (s *appraisalServiceImpl) ListByCycle(ctx context.Context, actor entity.Actor, cycle string, limit, offset int) ([]*entity.Appraisal, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.appraisalRepo.ListByCycle(ctx, actor.TenantID, cycle, limit, offset)
}

// SubmitSelf records the employee's own rating and moves the appraisal out
// of draft
func (s *appraisalServiceImpl) SubmitSelf(ctx context.Context, actor entity.Actor, id string, selfRating float64) (*entity.Appraisal, error) {
	if selfRating < 0 || selfRating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between 0 and %.0f", ErrValidation, maxRating)
	}

	appraisal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if appraisal.EmployeeID != actor.UserID && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(appraisal.Status))
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, appraisal.Status)
	}

	prevStatus := appraisal.Status
	now := s.now()
	appraisal.Status = machine.State().String()
	appraisal.SelfRating = selfRating
	appraisal.SubmittedAt = &now
	appraisal.UpdatedAt = now

	if err := s.update(ctx, appraisal, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeAppraisalSubmitted, actor, appraisal, nil)
	return appraisal, nil
}

// AddFeedback records one reviewer's 360 entry. Feedback is accepted only
// while the appraisal awaits manager review.
func (s *appraisalServiceImpl) AddFeedback(ctx context.Context, actor entity.Actor, input AddFeedbackInput) (*entity.Feedback360, error) {
	switch input.Relationship {
	case entity.FeedbackRelationshipSelf, entity.FeedbackRelationshipPeer,
		entity.FeedbackRelationshipManager, entity.FeedbackRelationshipSubordinate:
	default:
		return nil, fmt.Errorf("%w: unknown relationship %q", ErrValidation, input.Relationship)
	}
	if input.Rating < 0 || input.Rating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between 0 and %.0f", ErrValidation, maxRating)
	}

	appraisal, err := s.appraisalRepo.GetByID(ctx, actor.TenantID, input.AppraisalID)
	if err != nil {
		return nil, err
	}
	if appraisal == nil {
		return nil, fmt.Errorf("%w: appraisal %s", ErrNotFound, input.AppraisalID)
	}
	if appraisal.Status != entity.StatusSubmitted {
		return nil, fmt.Errorf("%w: feedback from %s", ErrInvalidTransition, appraisal.Status)
	}

	feedback := &entity.Feedback360{
		ID:           uuid.NewString(),
		TenantID:     actor.TenantID,
		AppraisalID:  input.AppraisalID,
		ReviewerID:   actor.UserID,
		Relationship: input.Relationship,
		Rating:       input.Rating,
		Comments:     input.Comments,
		CreatedAt:    s.now(),
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.feedbackRepo.Create(txCtx, feedback)
	}); err != nil {
		s.logger.Error("Failed to record feedback", "error", err, "appraisal_id", input.AppraisalID)
		return nil, err
	}
	return feedback, nil
}

func (s *appraisalServiceImpl) ListFeedback(ctx context.Context, actor entity.Actor, appraisalID string) ([]*entity.Feedback360, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.feedbackRepo.ListByAppraisal(ctx, actor.TenantID, appraisalID)
}

// ManagerReview records the manager rating and approves the appraisal
func (s *appraisalServiceImpl) ManagerReview(ctx context.Context, actor entity.Actor, id string, managerRating float64, comments string) (*entity.Appraisal, error) {
	if !actor.CanApprove(entity.LevelOne) {
		return nil, ErrForbidden
	}
	if managerRating < 0 || managerRating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between 0 and %.0f", ErrValidation, maxRating)
	}

	appraisal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if appraisal.Status == entity.StatusRejected {
		return nil, ErrAlreadyRejected
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(appraisal.Status))
	if err := machine.Fire(ctx, domainwf.TriggerApproveLevel1); err != nil {
		return nil, fmt.Errorf("%w: manager review from %s", ErrInvalidTransition, appraisal.Status)
	}

	prevStatus := appraisal.Status
	now := s.now()
	appraisal.Status = machine.State().String()
	appraisal.ManagerRating = managerRating
	appraisal.Manager.ApproverID = actor.UserID
	appraisal.Manager.ActedAt = &now
	appraisal.Manager.Comments = comments
	appraisal.UpdatedAt = now

	if err := s.update(ctx, appraisal, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeAppraisalReviewed, actor, appraisal, map[string]interface{}{"manager_rating": managerRating})
	return appraisal, nil
}

// Close aggregates the 360 feedback, blends the final score and completes
// the appraisal
func (s *appraisalServiceImpl) Close(ctx context.Context, actor entity.Actor, id string) (*entity.Appraisal, error) {
	if actor.Role != entity.RoleHR && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	appraisal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(appraisal.Status))
	if err := machine.Fire(ctx, domainwf.TriggerComplete); err != nil {
		return nil, fmt.Errorf("%w: close from %s", ErrInvalidTransition, appraisal.Status)
	}

	entries, err := s.feedbackRepo.ListByAppraisal(ctx, actor.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	prevStatus := appraisal.Status
	now := s.now()
	appraisal.Status = machine.State().String()
	appraisal.FeedbackScore = averageFeedback(entries)
	appraisal.FinalScore = round2(
		weightManager*appraisal.ManagerRating +
			weightFeedback*appraisal.FeedbackScore +
			weightSelf*appraisal.SelfRating)
	appraisal.ClosedAt = &now
	appraisal.UpdatedAt = now

	if err := s.update(ctx, appraisal, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeAppraisalClosed, actor, appraisal, map[string]interface{}{"final_score": appraisal.FinalScore})
	s.logger.Info("Appraisal closed", "appraisal_id", appraisal.ID, "final_score", appraisal.FinalScore)
	return appraisal, nil
}

// averageFeedback is the mean rating of non-self entries. With no external
// feedback the aggregate falls back to zero and only the direct ratings
// carry weight.
func averageFeedback(entries []*entity.Feedback360) float64 {
	var sum float64
	var n int
	for _, f := range entries {
		if f.Relationship == entity.FeedbackRelationshipSelf {
			continue
		}
		sum += f.Rating
		n++
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func (s *appraisalServiceImpl) update(ctx context.Context, appraisal *entity.Appraisal, expectedStatus string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.appraisalRepo.Update(txCtx, appraisal, expectedStatus)
	})
	if errors.Is(err, port.ErrStaleStatus) {
		return ErrConflict
	}
	return err
}

func (s *appraisalServiceImpl) emit(ctx context.Context, t event.Type, actor entity.Actor, appraisal *entity.Appraisal, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = appraisal.Status
	payload["employee_id"] = appraisal.EmployeeID
	payload["cycle"] = appraisal.Cycle
	s.events.DispatchAsync(context.WithoutCancel(ctx), event.New(t, actor, entity.ModuleAppraisal, appraisal.ID, payload))
}
