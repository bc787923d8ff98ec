package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
	"github.com/clearhr/claimflow/pkg/utils"
)

// CreateEmployeeInput carries the fields accepted at employee creation
type CreateEmployeeInput struct {
	Code        string
	FirstName   string
	LastName    string
	Email       string
	Grade       string
	Department  string
	Designation string
	ManagerID   string
	JoinedAt    time.Time
}

// EmployeeService owns tenant-scoped employee master data
type EmployeeService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateEmployeeInput) (*entity.Employee, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.Employee, error)
	GetByCode(ctx context.Context, actor entity.Actor, code string) (*entity.Employee, error)
	List(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Employee, error)
	Update(ctx context.Context, actor entity.Actor, employee *entity.Employee) (*entity.Employee, error)
	Deactivate(ctx context.Context, actor entity.Actor, id string) (*entity.Employee, error)
}

type employeeServiceImpl struct {
	employeeRepo port.EmployeeRepository
	txManager    port.TransactionManager
	logger       Logger

	now func() time.Time
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(employeeRepo port.EmployeeRepository, txManager port.TransactionManager, logger Logger) EmployeeService {
	return &employeeServiceImpl{
		employeeRepo: employeeRepo,
		txManager:    txManager,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *employeeServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateEmployeeInput) (*entity.Employee, error) {
	if actor.Role != entity.RoleHR && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}
	if input.Code == "" || input.FirstName == "" || input.Grade == "" {
		return nil, fmt.Errorf("%w: code, first_name and grade are required", ErrValidation)
	}
	if err := utils.ValidateEmployeeCode(input.Code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := utils.ValidateEmail(input.Email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	existing, err := s.employeeRepo.GetByCode(ctx, actor.TenantID, input.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: employee code %s already exists", ErrValidation, input.Code)
	}

	if input.ManagerID != "" {
		manager, err := s.employeeRepo.GetByID(ctx, actor.TenantID, input.ManagerID)
		if err != nil {
			return nil, err
		}
		if manager == nil {
			return nil, fmt.Errorf("%w: manager %s", ErrNotFound, input.ManagerID)
		}
	}

	now := s.now()
	employee := &entity.Employee{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		Code:        input.Code,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Grade:       input.Grade,
		Department:  input.Department,
		Designation: input.Designation,
		ManagerID:   input.ManagerID,
		Active:      true,
		JoinedAt:    input.JoinedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.employeeRepo.Create(txCtx, employee)
	}); err != nil {
		s.logger.Error("Failed to create employee", "error", err, "tenant_id", actor.TenantID)
		return nil, err
	}

	s.logger.Info("Employee created", "employee_id", employee.ID, "code", employee.Code)
	return employee, nil
}

func (s *employeeServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Employee, error) {
	employee, err := s.employeeRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrNotFound, id)
	}
	return employee, nil
}

func (s *employeeServiceImpl) GetByCode(ctx context.Context, actor entity.Actor, code string) (*entity.Employee, error) {
	employee, err := s.employeeRepo.GetByCode(ctx, actor.TenantID, code)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee code %s", ErrNotFound, code)
	}
	return employee, nil
}

func (s *employeeServiceImpl) List(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Employee, error) {
	return s.employeeRepo.ListByTenant(ctx, actor.TenantID, limit, offset)
}

func (s *employeeServiceImpl) Update(ctx context.Context, actor entity.Actor, employee *entity.Employee) (*entity.Employee, error) {
	if actor.Role != entity.RoleHR && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	current, err := s.Get(ctx, actor, employee.ID)
	if err != nil {
		return nil, err
	}

	employee.TenantID = current.TenantID
	employee.Code = current.Code
	employee.CreatedAt = current.CreatedAt
	employee.UpdatedAt = s.now()

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.employeeRepo.Update(txCtx, employee)
	}); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeServiceImpl) Deactivate(ctx context.Context, actor entity.Actor, id string) (*entity.Employee, error) {
	if actor.Role != entity.RoleHR && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	employee, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	employee.Active = false
	employee.LeftAt = &now
	employee.UpdatedAt = now

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.employeeRepo.Update(txCtx, employee)
	}); err != nil {
		return nil, err
	}
	return employee, nil
}
