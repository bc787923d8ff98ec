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

// AdvanceService issues travel advances against approved travel requests and
// records their payout. Reconciliation against the final claim happens at
// claim settlement.
type AdvanceService interface {
	Create(ctx context.Context, actor entity.Actor, travelRequestID string, amount float64) (*entity.TravelAdvance, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelAdvance, error)
	MarkPaid(ctx context.Context, actor entity.Actor, id string) (*entity.TravelAdvance, error)
}

type advanceServiceImpl struct {
	advanceRepo port.AdvanceRepository
	requestRepo port.TravelRequestRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger

	now func() time.Time
}

// NewAdvanceService creates a new AdvanceService
func NewAdvanceService(
	advanceRepo port.AdvanceRepository,
	requestRepo port.TravelRequestRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) AdvanceService {
	return &advanceServiceImpl{
		advanceRepo: advanceRepo,
		requestRepo: requestRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *advanceServiceImpl) Create(ctx context.Context, actor entity.Actor, travelRequestID string, amount float64) (*entity.TravelAdvance, error) {
	if actor.Role != entity.RoleFinance && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}
	if travelRequestID == "" {
		return nil, fmt.Errorf("%w: travel_request_id is required", ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	request, err := s.requestRepo.GetByID(ctx, actor.TenantID, travelRequestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: travel request %s", ErrNotFound, travelRequestID)
	}
	if request.Status != entity.StatusLevel3Approved {
		return nil, fmt.Errorf("%w: travel request status is %s", ErrNotApproved, request.Status)
	}

	existing, err := s.advanceRepo.GetByTravelRequestID(ctx, actor.TenantID, travelRequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: travel request %s already has an advance", ErrValidation, travelRequestID)
	}

	now := s.now()
	advance := &entity.TravelAdvance{
		ID:              uuid.NewString(),
		TenantID:        actor.TenantID,
		EmployeeID:      request.EmployeeID,
		TravelRequestID: travelRequestID,
		Amount:          amount,
		Status:          entity.AdvanceStatusRequested,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.advanceRepo.Create(txCtx, advance)
	}); err != nil {
		s.logger.Error("Failed to create advance", "error", err, "travel_request_id", travelRequestID)
		return nil, err
	}

	s.logger.Info("Advance created", "advance_id", advance.ID, "amount", amount)
	s.emit(ctx, event.TypeAdvanceCreated, actor, advance, map[string]interface{}{"amount": amount})
	return advance, nil
}

func (s *advanceServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelAdvance, error) {
	advance, err := s.advanceRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if advance == nil {
		return nil, fmt.Errorf("%w: advance %s", ErrNotFound, id)
	}
	if advance.EmployeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return advance, nil
}

// MarkPaid records the payout of a requested advance
func (s *advanceServiceImpl) MarkPaid(ctx context.Context, actor entity.Actor, id string) (*entity.TravelAdvance, error) {
	if actor.Role != entity.RoleFinance && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	advance, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if advance.Status == entity.AdvanceStatusSettled {
		return nil, ErrAlreadySettled
	}
	if advance.Status != entity.AdvanceStatusRequested {
		return nil, fmt.Errorf("%w: pay from %s", ErrInvalidTransition, advance.Status)
	}

	now := s.now()
	advance.Status = entity.AdvanceStatusPaid
	advance.PaidAt = &now
	advance.UpdatedAt = now

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.advanceRepo.Update(txCtx, advance)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Advance paid", "advance_id", advance.ID)
	s.emit(ctx, event.TypeAdvancePaid, actor, advance, map[string]interface{}{"amount": advance.Amount})
	return advance, nil
}

func (s *advanceServiceImpl) emit(ctx context.Context, t event.Type, actor entity.Actor, advance *entity.TravelAdvance, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = advance.Status
	payload["employee_id"] = advance.EmployeeID
	s.events.DispatchAsync(context.WithoutCancel(ctx), event.New(t, actor, entity.ModuleTravelAdvance, advance.ID, payload))
}
