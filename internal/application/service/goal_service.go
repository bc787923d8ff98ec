package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearhr/claimflow/internal/application/dispatcher"
	"github.com/clearhr/claimflow/internal/application/port"
	appwf "github.com/clearhr/claimflow/internal/application/workflow"
	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/internal/domain/event"
	domainwf "github.com/clearhr/claimflow/internal/domain/workflow"
)

// CreateGoalInput carries the fields accepted at goal creation
type CreateGoalInput struct {
	EmployeeID  string
	Title       string
	Description string
	Weight      int
	TargetDate  time.Time
}

// GoalService owns performance goals: draft, submit, manager approval or
// rejection, progress tracking, completion
type GoalService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateGoalInput) (*entity.Goal, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.Goal, error)
	ListByEmployee(ctx context.Context, actor entity.Actor, employeeID string) ([]*entity.Goal, error)
	Submit(ctx context.Context, actor entity.Actor, id string) (*entity.Goal, error)
	Approve(ctx context.Context, actor entity.Actor, id, comments string) (*entity.Goal, error)
	Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.Goal, error)
	UpdateProgress(ctx context.Context, actor entity.Actor, id string, progressPct int) (*entity.Goal, error)
	Complete(ctx context.Context, actor entity.Actor, id string) (*entity.Goal, error)
	DeleteDraft(ctx context.Context, actor entity.Actor, id string) error
}

type goalServiceImpl struct {
	goalRepo     port.GoalRepository
	employeeRepo port.EmployeeRepository
	txManager    port.TransactionManager
	events       dispatcher.Dispatcher
	logger       Logger

	now func() time.Time
}

// NewGoalService creates a new GoalService
func NewGoalService(
	goalRepo port.GoalRepository,
	employeeRepo port.EmployeeRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) GoalService {
	return &goalServiceImpl{
		goalRepo:     goalRepo,
		employeeRepo: employeeRepo,
		txManager:    txManager,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *goalServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateGoalInput) (*entity.Goal, error) {
	if input.EmployeeID == "" || input.Title == "" {
		return nil, fmt.Errorf("%w: employee_id and title are required", ErrValidation)
	}
	if input.Weight < 0 || input.Weight > 100 {
		return nil, fmt.Errorf("%w: weight must be between 0 and 100", ErrValidation)
	}
	if actor.UserID != input.EmployeeID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, input.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, input.EmployeeID)
	}

	now := s.now()
	goal := &entity.Goal{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		EmployeeID:  input.EmployeeID,
		Title:       input.Title,
		Description: input.Description,
		Weight:      input.Weight,
		TargetDate:  input.TargetDate,
		Status:      entity.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.goalRepo.Create(txCtx, goal)
	}); err != nil {
		s.logger.Error("Failed to create goal", "error", err, "tenant_id", actor.TenantID)
		return nil, err
	}
	return goal, nil
}

func (s *goalServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, fmt.Errorf("%w: goal %s", ErrNotFound, id)
	}
	if goal.EmployeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return goal, nil
}

func (s *goalServiceImpl) ListByEmployee(ctx context.Context, actor entity.Actor, employeeID string) ([]*entity.Goal, error) {
	if employeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.goalRepo.ListByEmployee(ctx, actor.TenantID, employeeID)
}

func (s *goalServiceImpl) Submit(ctx context.Context, actor entity.Actor, id string) (*entity.Goal, error) {
	goal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(goal.Status))
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, goal.Status)
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, goal.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, goal.EmployeeID)
	}

	prevStatus := goal.Status
	now := s.now()
	goal.Status = machine.State().String()
	goal.Manager.ApproverID = employee.ManagerID
	goal.SubmittedAt = &now
	goal.UpdatedAt = now

	if err := s.update(ctx, goal, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeGoalSubmitted, actor, goal, nil)
	return goal, nil
}

func (s *goalServiceImpl) Approve(ctx context.Context, actor entity.Actor, id, comments string) (*entity.Goal, error) {
	if !actor.CanApprove(entity.LevelOne) {
		return nil, ErrForbidden
	}
	return s.decide(ctx, actor, id, comments, domainwf.TriggerApproveLevel1, event.TypeGoalApproved)
}

func (s *goalServiceImpl) Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.Goal, error) {
	goal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if goal.Status == entity.StatusRejected {
		return nil, ErrAlreadyRejected
	}
	return s.decide(ctx, actor, id, comments, domainwf.TriggerReject, event.TypeGoalRejected)
}

// UpdateProgress records progress on an approved goal
func (s *goalServiceImpl) UpdateProgress(ctx context.Context, actor entity.Actor, id string, progressPct int) (*entity.Goal, error) {
	if progressPct < 0 || progressPct > 100 {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)
	}

	goal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if goal.Status != entity.StatusLevel1Approved {
		return nil, fmt.Errorf("%w: progress update from %s", ErrInvalidTransition, goal.Status)
	}

	goal.ProgressPct = progressPct
	goal.UpdatedAt = s.now()
	if err := s.update(ctx, goal, goal.Status); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *goalServiceImpl) Complete(ctx context.Context, actor entity.Actor, id string) (*entity.Goal, error) {
	goal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(goal.Status))
	if err := machine.Fire(ctx, domainwf.TriggerComplete); err != nil {
		return nil, fmt.Errorf("%w: complete from %s", ErrInvalidTransition, goal.Status)
	}

	prevStatus := goal.Status
	now := s.now()
	goal.Status = machine.State().String()
	goal.ProgressPct = 100
	goal.CompletedAt = &now
	goal.UpdatedAt = now

	if err := s.update(ctx, goal, prevStatus); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *goalServiceImpl) DeleteDraft(ctx context.Context, actor entity.Actor, id string) error {
	goal, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if goal.Status != entity.StatusDraft {
		return fmt.Errorf("%w: delete from %s", ErrInvalidTransition, goal.Status)
	}
	return s.goalRepo.Delete(ctx, actor.TenantID, id)
}

func (s *goalServiceImpl) decide(ctx context.Context, actor entity.Actor, id, comments string, trigger domainwf.Trigger, eventType event.Type) (*entity.Goal, error) {
	goal, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(goal.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, goal.Status)
	}

	prevStatus := goal.Status
	now := s.now()
	goal.Status = machine.State().String()
	goal.Manager.ApproverID = actor.UserID
	goal.Manager.ActedAt = &now
	goal.Manager.Comments = comments
	goal.UpdatedAt = now

	if err := s.update(ctx, goal, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, eventType, actor, goal, map[string]interface{}{"comments": comments})
	return goal, nil
}

func (s *goalServiceImpl) update(ctx context.Context, goal *entity.Goal, expectedStatus string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.goalRepo.Update(txCtx, goal, expectedStatus)
	})
	if errors.Is(err, port.ErrStaleStatus) {
		return ErrConflict
	}
	return err
}

func (s *goalServiceImpl) emit(ctx context.Context, t event.Type, actor entity.Actor, goal *entity.Goal, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = goal.Status
	payload["employee_id"] = goal.EmployeeID
	s.events.DispatchAsync(context.WithoutCancel(ctx), event.New(t, actor, entity.ModuleGoal, goal.ID, payload))
}
