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
	"github.com/clearhr/claimflow/internal/domain/policy"
	domainwf "github.com/clearhr/claimflow/internal/domain/workflow"
	"github.com/clearhr/claimflow/pkg/utils"
)

// CreateClaimInput carries the fields accepted at claim creation
type CreateClaimInput struct {
	EmployeeID      string
	TravelRequestID string
	AdvanceID       string
	Purpose         string
	Currency        string
	TripStartDate   time.Time
	TripEndDate     time.Time
	Expenses        []entity.ExpenseLine
}

// ClaimService owns the travel claim lifecycle: creation behind the policy
// deadline guard, the multi-level approval progression, rejection, and
// settlement with advance reconciliation.
type ClaimService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateClaimInput) (*entity.TravelClaim, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelClaim, error)
	List(ctx context.Context, actor entity.Actor, status string, limit, offset int) ([]*entity.TravelClaim, error)
	Submit(ctx context.Context, actor entity.Actor, id string) (*entity.TravelClaim, error)
	Approve(ctx context.Context, actor entity.Actor, id, levelToken, comments string, approvedAmount *float64) (*entity.TravelClaim, error)
	Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.TravelClaim, error)
	Settle(ctx context.Context, actor entity.Actor, id, paymentReference string) (*entity.TravelClaim, error)
	DeleteDraft(ctx context.Context, actor entity.Actor, id string) error
	Revalidate(ctx context.Context, actor entity.Actor, id string) ([]entity.PolicyViolation, error)
}

type claimServiceImpl struct {
	claimRepo    port.ClaimRepository
	advanceRepo  port.AdvanceRepository
	employeeRepo port.EmployeeRepository
	policyRepo   port.PolicyRepository
	txManager    port.TransactionManager
	events       dispatcher.Dispatcher
	logger       Logger

	// injectable for deadline-boundary tests
	now func() time.Time
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claimRepo port.ClaimRepository,
	advanceRepo port.AdvanceRepository,
	employeeRepo port.EmployeeRepository,
	policyRepo port.PolicyRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		claimRepo:    claimRepo,
		advanceRepo:  advanceRepo,
		employeeRepo: employeeRepo,
		policyRepo:   policyRepo,
		txManager:    txManager,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

// Create creates a claim in DRAFT. Fails with ErrDeadlineExceeded when the
// trip ended longer ago than the policy submission window allows; exactly at
// the boundary is accepted. Policy violations are computed here and stored
// on the claim as advisory findings only.
func (s *claimServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateClaimInput) (*entity.TravelClaim, error) {
	if input.EmployeeID == "" || input.Purpose == "" || len(input.Expenses) == 0 {
		return nil, fmt.Errorf("%w: employee_id, purpose and expenses are required", ErrValidation)
	}
	if input.TripEndDate.Before(input.TripStartDate) {
		return nil, fmt.Errorf("%w: trip end date precedes start date", ErrValidation)
	}
	for i, line := range input.Expenses {
		if line.Amount < 0 {
			return nil, fmt.Errorf("%w: expense line %d has a negative amount", ErrValidation, i)
		}
	}
	if input.Currency == "" {
		input.Currency = entity.DefaultCurrency
	}
	if err := utils.ValidateCurrency(input.Currency); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
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

	pol, err := s.policyRepo.FindActive(ctx, actor.TenantID, employee.Grade)
	if err != nil {
		return nil, fmt.Errorf("find policy: %w", err)
	}

	if !policy.WithinSubmissionWindow(input.TripEndDate, s.now(), pol.DeadlineDays()) {
		return nil, fmt.Errorf("%w: trip ended %s, window is %d days",
			ErrDeadlineExceeded, input.TripEndDate.Format("2006-01-02"), pol.DeadlineDays())
	}

	now := s.now()
	claim := &entity.TravelClaim{
		ID:              uuid.NewString(),
		TenantID:        actor.TenantID,
		EmployeeID:      input.EmployeeID,
		TravelRequestID: input.TravelRequestID,
		AdvanceID:       input.AdvanceID,
		Purpose:         utils.SanitizeString(input.Purpose),
		Currency:        input.Currency,
		TripStartDate:   input.TripStartDate,
		TripEndDate:     input.TripEndDate,
		Status:          entity.StatusDraft,
		Expenses:        input.Expenses,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	claim.TotalAmount = claim.SumExpenses()

	if input.AdvanceID != "" {
		advance, err := s.advanceRepo.GetByID(ctx, actor.TenantID, input.AdvanceID)
		if err != nil {
			return nil, fmt.Errorf("get advance: %w", err)
		}
		if advance == nil {
			return nil, fmt.Errorf("%w: advance %s", ErrNotFound, input.AdvanceID)
		}
		if advance.Status == entity.AdvanceStatusSettled {
			return nil, fmt.Errorf("%w: advance %s is already settled", ErrValidation, input.AdvanceID)
		}
		claim.AdvancePaid = advance.Amount
	}

	claim.PolicyViolations = policy.Validate(claim, pol)

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.claimRepo.Create(txCtx, claim)
	}); err != nil {
		s.logger.Error("Failed to create claim", "error", err, "tenant_id", actor.TenantID)
		return nil, err
	}

	s.emit(ctx, event.TypeClaimCreated, actor, claim, map[string]interface{}{
		"total_amount": claim.TotalAmount,
		"violations":   len(claim.PolicyViolations),
	})

	s.logger.Info("Claim created",
		"claim_id", claim.ID,
		"tenant_id", actor.TenantID,
		"total_amount", claim.TotalAmount,
		"violations", len(claim.PolicyViolations),
	)
	return claim, nil
}

// Get retrieves a claim within the actor's tenant
func (s *claimServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelClaim, error) {
	claim, err := s.claimRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %s", ErrNotFound, id)
	}
	if claim.EmployeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return claim, nil
}

// List retrieves claims for the tenant, optionally filtered by status.
// Unprivileged actors only see their own claims.
func (s *claimServiceImpl) List(ctx context.Context, actor entity.Actor, status string, limit, offset int) ([]*entity.TravelClaim, error) {
	if !actor.IsPrivileged() {
		return s.claimRepo.ListByEmployee(ctx, actor.TenantID, actor.UserID, limit, offset)
	}
	return s.claimRepo.ListByTenant(ctx, actor.TenantID, status, limit, offset)
}

// Submit moves a draft claim into the approval chain and assigns the Level1
// approver from the employee's reporting line
func (s *claimServiceImpl) Submit(ctx context.Context, actor entity.Actor, id string) (*entity.TravelClaim, error) {
	claim, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	threshold, err := s.escalationThreshold(ctx, claim)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildClaimMachine(domainwf.State(claim.Status), claim.TotalAmount, threshold)
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, claim.Status)
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, claim.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, claim.EmployeeID)
	}

	prevStatus := claim.Status
	now := s.now()
	claim.Status = machine.State().String()
	claim.Level1.ApproverID = employee.ManagerID
	claim.SubmittedAt = &now
	claim.UpdatedAt = now

	if err := s.update(ctx, claim, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeClaimSubmitted, actor, claim, map[string]interface{}{
		"approver_id":  employee.ManagerID,
		"total_amount": claim.TotalAmount,
	})

	s.logger.Info("Claim submitted", "claim_id", claim.ID, "approver_id", employee.ManagerID)
	return claim, nil
}

// Approve records one level's decision. The level must match the next
// expected level for the claim's status: Level2 only exists above the
// escalation threshold, smaller claims go from Level1 straight to Level3.
// A finance-step partial approval rewrites the claim total and recomputes
// net payable / net recoverable against the advance already paid.
func (s *claimServiceImpl) Approve(ctx context.Context, actor entity.Actor, id, levelToken, comments string, approvedAmount *float64) (*entity.TravelClaim, error) {
	level, err := entity.ParseApprovalLevel(levelToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, levelToken)
	}
	if !actor.CanApprove(level) {
		return nil, ErrForbidden
	}

	claim, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	switch claim.Status {
	case entity.StatusRejected:
		return nil, ErrAlreadyRejected
	case entity.StatusSettled:
		return nil, ErrAlreadySettled
	}

	threshold, err := s.escalationThreshold(ctx, claim)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildClaimMachine(domainwf.State(claim.Status), claim.TotalAmount, threshold)
	if err := machine.Fire(ctx, appwf.TriggerForLevel(level)); err != nil {
		return nil, fmt.Errorf("%w: %s approval from %s", ErrInvalidTransition, level, claim.Status)
	}

	prevStatus := claim.Status
	now := s.now()
	claim.Status = machine.State().String()

	slot := claim.SlotFor(level)
	slot.ApproverID = actor.UserID
	slot.ActedAt = &now
	slot.Comments = comments

	if level == entity.LevelFinance {
		claim.ApprovedAmount = claim.TotalAmount
		if approvedAmount != nil {
			if *approvedAmount < 0 {
				return nil, fmt.Errorf("%w: approved amount is negative", ErrValidation)
			}
			if *approvedAmount < claim.TotalAmount {
				claim.ApprovedAmount = *approvedAmount
				claim.TotalAmount = *approvedAmount
			}
		}
		claim.RecomputeNet()
	}
	claim.UpdatedAt = now

	if err := s.update(ctx, claim, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeClaimApproved, actor, claim, map[string]interface{}{
		"level":           level.String(),
		"approved_amount": claim.ApprovedAmount,
	})

	s.logger.Info("Claim approved", "claim_id", claim.ID, "level", level.String(), "status", claim.Status)
	return claim, nil
}

// Reject terminates the workflow from any non-terminal status, routing the
// comment into the slot of the level that was pending
func (s *claimServiceImpl) Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.TravelClaim, error) {
	claim, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	switch claim.Status {
	case entity.StatusRejected:
		return nil, ErrAlreadyRejected
	case entity.StatusSettled:
		return nil, ErrAlreadySettled
	}

	threshold, err := s.escalationThreshold(ctx, claim)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildClaimMachine(domainwf.State(claim.Status), claim.TotalAmount, threshold)
	if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return nil, fmt.Errorf("%w: reject from %s", ErrInvalidTransition, claim.Status)
	}

	pending := claim.PendingLevel(threshold)
	slot := claim.SlotFor(pending)
	if slot == nil {
		slot = &claim.Level1
	}

	prevStatus := claim.Status
	now := s.now()
	claim.Status = machine.State().String()
	slot.ApproverID = actor.UserID
	slot.ActedAt = &now
	slot.Comments = comments
	claim.UpdatedAt = now

	if err := s.update(ctx, claim, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeClaimRejected, actor, claim, map[string]interface{}{
		"pending_level": pending.String(),
		"comments":      comments,
	})

	s.logger.Info("Claim rejected", "claim_id", claim.ID, "pending_level", pending.String())
	return claim, nil
}

// Settle closes a finance-approved claim and reconciles the linked advance:
// the advance is marked settled with the claim's final total, and any
// recoverable balance is recorded on it
func (s *claimServiceImpl) Settle(ctx context.Context, actor entity.Actor, id, paymentReference string) (*entity.TravelClaim, error) {
	if actor.Role != entity.RoleFinance && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}
	if paymentReference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrValidation)
	}

	claim, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if claim.Status == entity.StatusSettled {
		return nil, ErrAlreadySettled
	}
	if claim.Status != entity.StatusFinanceApproved {
		return nil, fmt.Errorf("%w: status is %s", ErrNotApproved, claim.Status)
	}

	prevStatus := claim.Status
	now := s.now()
	claim.Status = entity.StatusSettled
	claim.SettledAt = &now
	claim.PaymentReference = paymentReference
	claim.UpdatedAt = now

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.Update(txCtx, claim, prevStatus); err != nil {
			return err
		}

		if claim.AdvanceID == "" {
			return nil
		}
		advance, err := s.advanceRepo.GetByID(txCtx, actor.TenantID, claim.AdvanceID)
		if err != nil {
			return fmt.Errorf("get advance: %w", err)
		}
		if advance == nil {
			return fmt.Errorf("%w: advance %s", ErrNotFound, claim.AdvanceID)
		}

		advance.Status = entity.AdvanceStatusSettled
		advance.SettledAmount = claim.TotalAmount
		advance.RecoverableAmount = claim.NetRecoverable
		advance.SettledAt = &now
		advance.UpdatedAt = now
		return s.advanceRepo.Update(txCtx, advance)
	})
	if err != nil {
		if errors.Is(err, port.ErrStaleStatus) {
			return nil, ErrConflict
		}
		s.logger.Error("Failed to settle claim", "error", err, "claim_id", claim.ID)
		return nil, err
	}

	s.emit(ctx, event.TypeClaimSettled, actor, claim, map[string]interface{}{
		"payment_reference": paymentReference,
		"net_payable":       claim.NetPayable,
		"net_recoverable":   claim.NetRecoverable,
	})

	s.logger.Info("Claim settled",
		"claim_id", claim.ID,
		"payment_reference", paymentReference,
		"net_payable", claim.NetPayable,
		"net_recoverable", claim.NetRecoverable,
	)
	return claim, nil
}

// DeleteDraft removes a claim that never left DRAFT
func (s *claimServiceImpl) DeleteDraft(ctx context.Context, actor entity.Actor, id string) error {
	claim, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if claim.Status != entity.StatusDraft {
		return fmt.Errorf("%w: delete from %s", ErrInvalidTransition, claim.Status)
	}
	return s.claimRepo.Delete(ctx, actor.TenantID, id)
}

// Revalidate recomputes the advisory violation list against the current
// active policy and stores it on the claim. This is the only mutation of
// violations after creation.
func (s *claimServiceImpl) Revalidate(ctx context.Context, actor entity.Actor, id string) ([]entity.PolicyViolation, error) {
	claim, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	pol, err := s.activePolicy(ctx, claim)
	if err != nil {
		return nil, err
	}

	claim.PolicyViolations = policy.Validate(claim, pol)
	claim.UpdatedAt = s.now()
	if err := s.update(ctx, claim, claim.Status); err != nil {
		return nil, err
	}
	return claim.PolicyViolations, nil
}

func (s *claimServiceImpl) activePolicy(ctx context.Context, claim *entity.TravelClaim) (*entity.TravelPolicy, error) {
	employee, err := s.employeeRepo.GetByID(ctx, claim.TenantID, claim.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, claim.EmployeeID)
	}
	return s.policyRepo.FindActive(ctx, claim.TenantID, employee.Grade)
}

// escalationThreshold resolves the amount above which Level2 review is
// required. Without a configured policy every claim escalates.
func (s *claimServiceImpl) escalationThreshold(ctx context.Context, claim *entity.TravelClaim) (float64, error) {
	pol, err := s.activePolicy(ctx, claim)
	if err != nil {
		return 0, err
	}
	if pol == nil || pol.EscalationThreshold <= 0 {
		return 0, nil
	}
	return pol.EscalationThreshold, nil
}

func (s *claimServiceImpl) update(ctx context.Context, claim *entity.TravelClaim, expectedStatus string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.claimRepo.Update(txCtx, claim, expectedStatus)
	})
	if errors.Is(err, port.ErrStaleStatus) {
		return ErrConflict
	}
	return err
}

// emit publishes a domain event after the transition committed. Handlers
// (audit, notification) run detached from the request so their failure
// cannot surface here.
func (s *claimServiceImpl) emit(ctx context.Context, t event.Type, actor entity.Actor, claim *entity.TravelClaim, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = claim.Status
	payload["employee_id"] = claim.EmployeeID
	evt := event.New(t, actor, entity.ModuleTravelClaim, claim.ID, payload)
	s.events.DispatchAsync(context.WithoutCancel(ctx), evt)
}
