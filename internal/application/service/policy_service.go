package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// CreatePolicyInput carries the fields accepted at policy creation
type CreatePolicyInput struct {
	Grade                       string
	ClaimSubmissionDeadlineDays int
	EscalationThreshold         float64
	MaxClaimAmount              float64
	ClassDailyLimits            map[string]float64
	EffectiveFrom               time.Time
}

// PolicyService owns grade-based travel policies. Creating a policy for a
// grade deactivates the previous active one.
type PolicyService interface {
	Create(ctx context.Context, actor entity.Actor, input CreatePolicyInput) (*entity.TravelPolicy, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelPolicy, error)
	List(ctx context.Context, actor entity.Actor) ([]*entity.TravelPolicy, error)
	FindActive(ctx context.Context, actor entity.Actor, grade string) (*entity.TravelPolicy, error)
}

type policyServiceImpl struct {
	policyRepo port.PolicyRepository
	txManager  port.TransactionManager
	logger     Logger

	now func() time.Time
}

// NewPolicyService creates a new PolicyService
func NewPolicyService(policyRepo port.PolicyRepository, txManager port.TransactionManager, logger Logger) PolicyService {
	return &policyServiceImpl{
		policyRepo: policyRepo,
		txManager:  txManager,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *policyServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreatePolicyInput) (*entity.TravelPolicy, error) {
	if actor.Role != entity.RoleHR && actor.Role != entity.RoleAdmin {
		return nil, ErrForbidden
	}
	if input.Grade == "" {
		return nil, fmt.Errorf("%w: grade is required", ErrValidation)
	}
	if input.EscalationThreshold < 0 || input.MaxClaimAmount < 0 {
		return nil, fmt.Errorf("%w: limits must be non-negative", ErrValidation)
	}

	now := s.now()
	policy := &entity.TravelPolicy{
		ID:                          uuid.NewString(),
		TenantID:                    actor.TenantID,
		Grade:                       input.Grade,
		ClaimSubmissionDeadlineDays: input.ClaimSubmissionDeadlineDays,
		EscalationThreshold:         input.EscalationThreshold,
		MaxClaimAmount:              input.MaxClaimAmount,
		ClassDailyLimits:            input.ClassDailyLimits,
		Active:                      true,
		EffectiveFrom:               input.EffectiveFrom,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		previous, err := s.policyRepo.FindActive(txCtx, actor.TenantID, input.Grade)
		if err != nil {
			return err
		}
		if previous != nil {
			previous.Active = false
			previous.UpdatedAt = now
			if err := s.policyRepo.Update(txCtx, previous); err != nil {
				return fmt.Errorf("deactivate previous policy: %w", err)
			}
		}
		return s.policyRepo.Create(txCtx, policy)
	})
	if err != nil {
		s.logger.Error("Failed to create policy", "error", err, "grade", input.Grade)
		return nil, err
	}

	s.logger.Info("Policy created", "policy_id", policy.ID, "grade", policy.Grade)
	return policy, nil
}

func (s *policyServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.TravelPolicy, error) {
	policy, err := s.policyRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: policy %s", ErrNotFound, id)
	}
	return policy, nil
}

func (s *policyServiceImpl) List(ctx context.Context, actor entity.Actor) ([]*entity.TravelPolicy, error) {
	return s.policyRepo.ListByTenant(ctx, actor.TenantID)
}

func (s *policyServiceImpl) FindActive(ctx context.Context, actor entity.Actor, grade string) (*entity.TravelPolicy, error) {
	policy, err := s.policyRepo.FindActive(ctx, actor.TenantID, grade)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: no active policy for grade %s", ErrNotFound, grade)
	}
	return policy, nil
}
