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

// CreateTravelRequestInput carries the fields accepted at request creation
type CreateTravelRequestInput struct {
	EmployeeID    string
	Purpose       string
	Origin        string
	Destination   string
	StartDate     time.Time
	EndDate       time.Time
	EstimatedCost float64
}

// TravelRequestService owns pre-trip authorizations. They run the same
// approval chain as claims up to Level3; approval there is the terminal
// success state.
type TravelRequestService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateTravelRequestInput) (*entity.TravelRequest, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelRequest, error)
	List(ctx context.Context, actor entity.Actor, status string, limit, offset int) ([]*entity.TravelRequest, error)
	Submit(ctx context.Context, actor entity.Actor, id string) (*entity.TravelRequest, error)
	Approve(ctx context.Context, actor entity.Actor, id, levelToken, comments string) (*entity.TravelRequest, error)
	Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.TravelRequest, error)
	DeleteDraft(ctx context.Context, actor entity.Actor, id string) error
}

type travelRequestServiceImpl struct {
	requestRepo  port.TravelRequestRepository
	employeeRepo port.EmployeeRepository
	policyRepo   port.PolicyRepository
	txManager    port.TransactionManager
	events       dispatcher.Dispatcher
	logger       Logger

	now func() time.Time
}

// NewTravelRequestService creates a new TravelRequestService
func NewTravelRequestService(
	requestRepo port.TravelRequestRepository,
	employeeRepo port.EmployeeRepository,
	policyRepo port.PolicyRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) TravelRequestService {
	return &travelRequestServiceImpl{
		requestRepo:  requestRepo,
		employeeRepo: employeeRepo,
		policyRepo:   policyRepo,
		txManager:    txManager,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *travelRequestServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateTravelRequestInput) (*entity.TravelRequest, error) {
	if input.EmployeeID == "" || input.Purpose == "" || input.Destination == "" {
		return nil, fmt.Errorf("%w: employee_id, purpose and destination are required", ErrValidation)
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrValidation)
	}
	if input.EstimatedCost < 0 {
		return nil, fmt.Errorf("%w: estimated cost is negative", ErrValidation)
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
	request := &entity.TravelRequest{
		ID:            uuid.NewString(),
		TenantID:      actor.TenantID,
		EmployeeID:    input.EmployeeID,
		Purpose:       input.Purpose,
		Origin:        input.Origin,
		Destination:   input.Destination,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		EstimatedCost: input.EstimatedCost,
		Status:        entity.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.requestRepo.Create(txCtx, request)
	}); err != nil {
		s.logger.Error("Failed to create travel request", "error", err, "tenant_id", actor.TenantID)
		return nil, err
	}

	s.logger.Info("Travel request created", "request_id", request.ID, "tenant_id", actor.TenantID)
	return request, nil
}

func (s *travelRequestServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: travel request %s", ErrNotFound, id)
	}
	if request.EmployeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return request, nil
}

func (s *travelRequestServiceImpl) List(ctx context.Context, actor entity.Actor, status string, limit, offset int) ([]*entity.TravelRequest, error) {
	return s.requestRepo.ListByTenant(ctx, actor.TenantID, status, limit, offset)
}

func (s *travelRequestServiceImpl) Submit(ctx context.Context, actor entity.Actor, id string) (*entity.TravelRequest, error) {
	request, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	threshold, err := s.escalationThreshold(ctx, request)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildTravelRequestMachine(domainwf.State(request.Status), request.EstimatedCost, threshold)
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, request.Status)
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, request.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, request.EmployeeID)
	}

	prevStatus := request.Status
	now := s.now()
	request.Status = machine.State().String()
	request.Level1.ApproverID = employee.ManagerID
	request.SubmittedAt = &now
	request.UpdatedAt = now

	if err := s.update(ctx, request, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeRequestSubmitted, actor, request, map[string]interface{}{
		"approver_id": employee.ManagerID,
	})
	return request, nil
}

func (s *travelRequestServiceImpl) Approve(ctx context.Context, actor entity.Actor, id, levelToken, comments string) (*entity.TravelRequest, error) {
	level, err := entity.ParseApprovalLevel(levelToken)
	if err != nil || level == entity.LevelFinance {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, levelToken)
	}
	if !actor.CanApprove(level) {
		return nil, ErrForbidden
	}

	request, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if request.Status == entity.StatusRejected {
		return nil, ErrAlreadyRejected
	}

	threshold, err := s.escalationThreshold(ctx, request)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildTravelRequestMachine(domainwf.State(request.Status), request.EstimatedCost, threshold)
	if err := machine.Fire(ctx, appwf.TriggerForLevel(level)); err != nil {
		return nil, fmt.Errorf("%w: %s approval from %s", ErrInvalidTransition, level, request.Status)
	}

	prevStatus := request.Status
	now := s.now()
	request.Status = machine.State().String()

	slot := request.SlotFor(level)
	slot.ApproverID = actor.UserID
	slot.ActedAt = &now
	slot.Comments = comments
	request.UpdatedAt = now

	if err := s.update(ctx, request, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeRequestApproved, actor, request, map[string]interface{}{
		"level": level.String(),
	})
	return request, nil
}

func (s *travelRequestServiceImpl) Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.TravelRequest, error) {
	request, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if request.Status == entity.StatusRejected {
		return nil, ErrAlreadyRejected
	}

	threshold, err := s.escalationThreshold(ctx, request)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildTravelRequestMachine(domainwf.State(request.Status), request.EstimatedCost, threshold)
	if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return nil, fmt.Errorf("%w: reject from %s", ErrInvalidTransition, request.Status)
	}

	pending := request.PendingLevel(threshold)
	slot := request.SlotFor(pending)
	if slot == nil {
		slot = &request.Level1
	}

	prevStatus := request.Status
	now := s.now()
	request.Status = machine.State().String()
	slot.ApproverID = actor.UserID
	slot.ActedAt = &now
	slot.Comments = comments
	request.UpdatedAt = now

	if err := s.update(ctx, request, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeRequestRejected, actor, request, map[string]interface{}{
		"pending_level": pending.String(),
		"comments":      comments,
	})
	return request, nil
}

func (s *travelRequestServiceImpl) DeleteDraft(ctx context.Context, actor entity.Actor, id string) error {
	request, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if request.Status != entity.StatusDraft {
		return fmt.Errorf("%w: delete from %s", ErrInvalidTransition, request.Status)
	}
	return s.requestRepo.Delete(ctx, actor.TenantID, id)
}

func (s *travelRequestServiceImpl) escalationThreshold(ctx context.Context, request *entity.TravelRequest) (float64, error) {
	employee, err := s.employeeRepo.GetByID(ctx, request.TenantID, request.EmployeeID)
	if err != nil {
		return 0, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return 0, fmt.Errorf("%w: employee %s", ErrNotFound, request.EmployeeID)
	}
	pol, err := s.policyRepo.FindActive(ctx, request.TenantID, employee.Grade)
	if err != nil {
		return 0, err
	}
	if pol == nil || pol.EscalationThreshold <= 0 {
		return 0, nil
	}
	return pol.EscalationThreshold, nil
}

func (s *travelRequestServiceImpl) update(ctx context.Context, request *entity.TravelRequest, expectedStatus string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.requestRepo.Update(txCtx, request, expectedStatus)
	})
	if errors.Is(err, port.ErrStaleStatus) {
		return ErrConflict
	}
	return err
}

func (s *travelRequestServiceImpl) emit(ctx context.Context, t event.Type, actor entity.Actor, request *entity.TravelRequest, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = request.Status
	payload["employee_id"] = request.EmployeeID
	evt := event.New(t, actor, entity.ModuleTravelRequest, request.ID, payload)
	s.events.DispatchAsync(context.WithoutCancel(ctx), evt)
}
