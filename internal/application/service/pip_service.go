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

// PIP outcome constants
const (
	PIPOutcomeCleared    = "CLEARED"
	PIPOutcomeNotCleared = "NOT_CLEARED"
)

// CreatePIPInput carries the fields accepted at plan creation
type CreatePIPInput struct {
	EmployeeID string
	Reason     string
	StartDate  time.Time
	EndDate    time.Time
}

// PIPService owns performance improvement plans. Plans are raised by HR or
// a manager, approved into an active state, and closed with a review
// outcome.
type PIPService interface {
	Create(ctx context.Context, actor entity.Actor, input CreatePIPInput) (*entity.PIP, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.PIP, error)
	ListByEmployee(ctx context.Context, actor entity.Actor, employeeID string) ([]*entity.PIP, error)
	Submit(ctx context.Context, actor entity.Actor, id string) (*entity.PIP, error)
	Approve(ctx context.Context, actor entity.Actor, id, comments string) (*entity.PIP, error)
	Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.PIP, error)
	Close(ctx context.Context, actor entity.Actor, id, outcome, reviewNotes string) (*entity.PIP, error)
}

type pipServiceImpl struct {
	pipRepo      port.PIPRepository
	employeeRepo port.EmployeeRepository
	txManager    port.TransactionManager
	events       dispatcher.Dispatcher
	logger       Logger

	now func() time.Time
}

// NewPIPService creates a new PIPService
func NewPIPService(
	pipRepo port.PIPRepository,
	employeeRepo port.EmployeeRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) PIPService {
	return &pipServiceImpl{
		pipRepo:      pipRepo,
		employeeRepo: employeeRepo,
		txManager:    txManager,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *pipServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreatePIPInput) (*entity.PIP, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	if input.EmployeeID == "" || input.Reason == "" {
		return nil, fmt.Errorf("%w: employee_id and reason are required", ErrValidation)
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrValidation)
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, input.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, input.EmployeeID)
	}

	now := s.now()
	pip := &entity.PIP{
		ID:         uuid.NewString(),
		TenantID:   actor.TenantID,
		EmployeeID: input.EmployeeID,
		Reason:     input.Reason,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Status:     entity.StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.pipRepo.Create(txCtx, pip)
	}); err != nil {
		s.logger.Error("Failed to create PIP", "error", err, "tenant_id", actor.TenantID)
		return nil, err
	}
	return pip, nil
}

func (s *pipServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.PIP, error) {
	pip, err := s.pipRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if pip == nil {
		return nil, fmt.Errorf("%w: pip %s", ErrNotFound, id)
	}
	if pip.EmployeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return pip, nil
}

func (s *pipServiceImpl) ListByEmployee(ctx context.Context, actor entity.Actor, employeeID string) ([]*entity.PIP, error) {
	if employeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.pipRepo.ListByEmployee(ctx, actor.TenantID, employeeID)
}

func (s *pipServiceImpl) Submit(ctx context.Context, actor entity.Actor, id string) (*entity.PIP, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	pip, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(pip.Status))
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, pip.Status)
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, pip.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, pip.EmployeeID)
	}

	prevStatus := pip.Status
	now := s.now()
	pip.Status = machine.State().String()
	pip.Manager.ApproverID = employee.ManagerID
	pip.SubmittedAt = &now
	pip.UpdatedAt = now

	if err := s.update(ctx, pip, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypePIPSubmitted, actor, pip, nil)
	return pip, nil
}

func (s *pipServiceImpl) Approve(ctx context.Context, actor entity.Actor, id, comments string) (*entity.PIP, error) {
	if !actor.CanApprove(entity.LevelOne) {
		return nil, ErrForbidden
	}
	return s.decide(ctx, actor, id, comments, domainwf.TriggerApproveLevel1, event.TypePIPApproved)
}

func (s *pipServiceImpl) Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.PIP, error) {
	pip, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if pip.Status == entity.StatusRejected {
		return nil, ErrAlreadyRejected
	}
	return s.decide(ctx, actor, id, comments, domainwf.TriggerReject, event.TypePIPRejected)
}

// Close completes an active plan with a review outcome
func (s *pipServiceImpl) Close(ctx context.Context, actor entity.Actor, id, outcome, reviewNotes string) (*entity.PIP, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	if outcome != PIPOutcomeCleared && outcome != PIPOutcomeNotCleared {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrValidation, outcome)
	}

	pip, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(pip.Status))
	if err := machine.Fire(ctx, domainwf.TriggerComplete); err != nil {
		return nil, fmt.Errorf("%w: close from %s", ErrInvalidTransition, pip.Status)
	}

	prevStatus := pip.Status
	now := s.now()
	pip.Status = machine.State().String()
	pip.Outcome = outcome
	pip.ReviewNotes = reviewNotes
	pip.ClosedAt = &now
	pip.UpdatedAt = now

	if err := s.update(ctx, pip, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypePIPClosed, actor, pip, map[string]interface{}{"outcome": outcome})
	return pip, nil
}

func (s *pipServiceImpl) decide(ctx context.Context, actor entity.Actor, id, comments string, trigger domainwf.Trigger, eventType event.Type) (*entity.PIP, error) {
	pip, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildSingleLevelMachine(domainwf.State(pip.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, pip.Status)
	}

	prevStatus := pip.Status
	now := s.now()
	pip.Status = machine.State().String()
	pip.Manager.ApproverID = actor.UserID
	pip.Manager.ActedAt = &now
	pip.Manager.Comments = comments
	pip.UpdatedAt = now

	if err := s.update(ctx, pip, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, eventType, actor, pip, map[string]interface{}{"comments": comments})
	return pip, nil
}

func (s *pipServiceImpl) update(ctx context.Context, pip *entity.PIP, expectedStatus string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.pipRepo.Update(txCtx, pip, expectedStatus)
	})
	if errors.Is(err, port.ErrStaleStatus) {
		return ErrConflict
	}
	return err
}

func (s *pipServiceImpl) emit(ctx context.Context, t event.Type, actor entity.Actor, pip *entity.PIP, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = pip.Status
	payload["employee_id"] = pip.EmployeeID
	s.events.DispatchAsync(context.WithoutCancel(ctx), event.New(t, actor, entity.ModulePIP, pip.ID, payload))
}
