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

// CreateLoanInput carries the fields accepted at loan request creation
type CreateLoanInput struct {
	EmployeeID         string
	Amount             float64
	TermMonths         int
	AnnualInterestRate float64
	Purpose            string
}

// LoanService owns employee loans: manager approval, finance approval, then
// disbursement. The flat-rate installment is fixed at creation.
type LoanService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateLoanInput) (*entity.Loan, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.Loan, error)
	List(ctx context.Context, actor entity.Actor, status string, limit, offset int) ([]*entity.Loan, error)
	Submit(ctx context.Context, actor entity.Actor, id string) (*entity.Loan, error)
	Approve(ctx context.Context, actor entity.Actor, id, levelToken, comments string) (*entity.Loan, error)
	Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.Loan, error)
	Disburse(ctx context.Context, actor entity.Actor, id, reference string) (*entity.Loan, error)
}

type loanServiceImpl struct {
	loanRepo     port.LoanRepository
	employeeRepo port.EmployeeRepository
	txManager    port.TransactionManager
	events       dispatcher.Dispatcher
	logger       Logger

	now func() time.Time
}

// NewLoanService creates a new LoanService
func NewLoanService(
	loanRepo port.LoanRepository,
	employeeRepo port.EmployeeRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) LoanService {
	return &loanServiceImpl{
		loanRepo:     loanRepo,
		employeeRepo: employeeRepo,
		txManager:    txManager,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

// FlatInstallment computes the equal monthly installment under flat-rate
// amortization: total interest accrues on the principal for the whole term,
// and principal plus interest is split evenly across months. Rounded to two
// decimals.
func FlatInstallment(principal, annualRatePct float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	years := float64(termMonths) / 12.0
	interest := principal * annualRatePct / 100.0 * years
	emi := (principal + interest) / float64(termMonths)
	return math.Round(emi*100) / 100
}

func (s *loanServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateLoanInput) (*entity.Loan, error) {
	if input.EmployeeID == "" {
		return nil, fmt.Errorf("%w: employee_id is required", ErrValidation)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if input.TermMonths <= 0 || input.TermMonths > 120 {
		return nil, fmt.Errorf("%w: term must be between 1 and 120 months", ErrValidation)
	}
	if input.AnnualInterestRate < 0 {
		return nil, fmt.Errorf("%w: interest rate is negative", ErrValidation)
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
	loan := &entity.Loan{
		ID:                 uuid.NewString(),
		TenantID:           actor.TenantID,
		EmployeeID:         input.EmployeeID,
		Amount:             input.Amount,
		TermMonths:         input.TermMonths,
		AnnualInterestRate: input.AnnualInterestRate,
		MonthlyInstallment: FlatInstallment(input.Amount, input.AnnualInterestRate, input.TermMonths),
		Purpose:            input.Purpose,
		Status:             entity.StatusDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.loanRepo.Create(txCtx, loan)
	}); err != nil {
		s.logger.Error("Failed to create loan", "error", err, "tenant_id", actor.TenantID)
		return nil, err
	}
	return loan, nil
}

func (s *loanServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: loan %s", ErrNotFound, id)
	}
	if loan.EmployeeID != actor.UserID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return loan, nil
}

func (s *loanServiceImpl) List(ctx context.Context, actor entity.Actor, status string, limit, offset int) ([]*entity.Loan, error) {
	if !actor.IsPrivileged() {
		return s.loanRepo.ListByEmployee(ctx, actor.TenantID, actor.UserID, limit, offset)
	}
	return s.loanRepo.ListByTenant(ctx, actor.TenantID, status, limit, offset)
}

func (s *loanServiceImpl) Submit(ctx context.Context, actor entity.Actor, id string) (*entity.Loan, error) {
	loan, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildLoanMachine(domainwf.State(loan.Status))
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, loan.Status)
	}

	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, loan.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, loan.EmployeeID)
	}

	prevStatus := loan.Status
	now := s.now()
	loan.Status = machine.State().String()
	loan.Level1.ApproverID = employee.ManagerID
	loan.SubmittedAt = &now
	loan.UpdatedAt = now

	if err := s.update(ctx, loan, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeLoanSubmitted, actor, loan, nil)
	return loan, nil
}

func (s *loanServiceImpl) Approve(ctx context.Context, actor entity.Actor, id, levelToken, comments string) (*entity.Loan, error) {
	level, err := entity.ParseApprovalLevel(levelToken)
	if err != nil || (level != entity.LevelOne && level != entity.LevelFinance) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, levelToken)
	}
	if !actor.CanApprove(level) {
		return nil, ErrForbidden
	}

	loan, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch loan.Status {
	case entity.StatusRejected:
		return nil, ErrAlreadyRejected
	case entity.StatusSettled:
		return nil, ErrAlreadySettled
	}

	machine := appwf.BuildLoanMachine(domainwf.State(loan.Status))
	if err := machine.Fire(ctx, appwf.TriggerForLevel(level)); err != nil {
		return nil, fmt.Errorf("%w: %s approval from %s", ErrInvalidTransition, level, loan.Status)
	}

	prevStatus := loan.Status
	now := s.now()
	loan.Status = machine.State().String()

	slot := loan.SlotFor(level)
	slot.ApproverID = actor.UserID
	slot.ActedAt = &now
	slot.Comments = comments
	loan.UpdatedAt = now

	if err := s.update(ctx, loan, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeLoanApproved, actor, loan, map[string]interface{}{"level": level.String()})
	return loan, nil
}

func (s *loanServiceImpl) Reject(ctx context.Context, actor entity.Actor, id, comments string) (*entity.Loan, error) {
	loan, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch loan.Status {
	case entity.StatusRejected:
		return nil, ErrAlreadyRejected
	case entity.StatusSettled:
		return nil, ErrAlreadySettled
	}

	machine := appwf.BuildLoanMachine(domainwf.State(loan.Status))
	if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return nil, fmt.Errorf("%w: reject from %s", ErrInvalidTransition, loan.Status)
	}

	pending := loan.PendingLevel()
	slot := loan.SlotFor(pending)
	if slot == nil {
		slot = &loan.Level1
	}

	prevStatus := loan.Status
	now := s.now()
	loan.Status = machine.State().String()
	slot.ApproverID = actor.UserID
	slot.ActedAt = &now
	slot.Comments = comments
	loan.UpdatedAt = now

	if err := s.update(ctx, loan, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeLoanRejected, actor, loan, map[string]interface{}{
		"pending_level": pending.String(),
		"comments":      comments,
	})
	return loan, nil
}

// Disburse records the payout of a finance-approved loan
func (s *loanServiceImpl) Disburse(ctx context.Context, actor entity.Actor, id, reference string) (*entity.Loan, error) {
	if actor.Role != entity.RoleFinance && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}
	if reference == "" {
		return nil, fmt.Errorf("%w: disbursement reference is required", ErrValidation)
	}

	loan, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if loan.Status == entity.StatusSettled {
		return nil, ErrAlreadySettled
	}
	if loan.Status != entity.StatusFinanceApproved {
		return nil, fmt.Errorf("%w: status is %s", ErrNotApproved, loan.Status)
	}

	prevStatus := loan.Status
	now := s.now()
	loan.Status = entity.StatusSettled
	loan.DisbursedAt = &now
	loan.DisbursementRef = reference
	loan.UpdatedAt = now

	if err := s.update(ctx, loan, prevStatus); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeLoanDisbursed, actor, loan, map[string]interface{}{"reference": reference})
	s.logger.Info("Loan disbursed", "loan_id", loan.ID, "reference", reference)
	return loan, nil
}

func (s *loanServiceImpl) update(ctx context.Context, loan *entity.Loan, expectedStatus string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.loanRepo.Update(txCtx, loan, expectedStatus)
	})
	if errors.Is(err, port.ErrStaleStatus) {
		return ErrConflict
	}
	return err
}

func (s *loanServiceImpl) emit(ctx context.Context, t event.Type, actor entity.Actor, loan *entity.Loan, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = loan.Status
	payload["employee_id"] = loan.EmployeeID
	s.events.DispatchAsync(context.WithoutCancel(ctx), event.New(t, actor, entity.ModuleLoan, loan.ID, payload))
}
