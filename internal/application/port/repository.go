package port

import (
	"context"
	"errors"

	"github.com/clearhr/claimflow/internal/domain/entity"
)

// ErrStaleStatus is returned by conditional updates when the row's status no
// longer matches the status the caller read. It turns concurrent approvals
// on the same record into a clean client-visible conflict instead of a lost
// update.
var ErrStaleStatus = errors.New("record status changed concurrently")

// ClaimRepository defines persistence operations for TravelClaim.
// All lookups are tenant-scoped; a missing row is (nil, nil).
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.TravelClaim) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.TravelClaim, error)
	ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.TravelClaim, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]*entity.TravelClaim, error)

	// Update persists the claim only while its stored status still equals
	// expectedStatus; returns ErrStaleStatus otherwise
	Update(ctx context.Context, claim *entity.TravelClaim, expectedStatus string) error

	// Delete removes a claim; callers enforce the draft-only rule
	Delete(ctx context.Context, tenantID, id string) error
}

// AdvanceRepository defines persistence operations for TravelAdvance
type AdvanceRepository interface {
	Create(ctx context.Context, advance *entity.TravelAdvance) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.TravelAdvance, error)
	GetByTravelRequestID(ctx context.Context, tenantID, travelRequestID string) (*entity.TravelAdvance, error)
	Update(ctx context.Context, advance *entity.TravelAdvance) error
}

// TravelRequestRepository defines persistence operations for TravelRequest
type TravelRequestRepository interface {
	Create(ctx context.Context, request *entity.TravelRequest) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.TravelRequest, error)
	ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.TravelRequest, error)
	Update(ctx context.Context, request *entity.TravelRequest, expectedStatus string) error
	Delete(ctx context.Context, tenantID, id string) error
}

// GoalRepository defines persistence operations for Goal
type GoalRepository interface {
	Create(ctx context.Context, goal *entity.Goal) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Goal, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]*entity.Goal, error)
	Update(ctx context.Context, goal *entity.Goal, expectedStatus string) error
	Delete(ctx context.Context, tenantID, id string) error
}

// PIPRepository defines persistence operations for PIP
type PIPRepository interface {
	Create(ctx context.Context, pip *entity.PIP) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.PIP, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]*entity.PIP, error)
	Update(ctx context.Context, pip *entity.PIP, expectedStatus string) error
}

// LoanRepository defines persistence operations for Loan
type LoanRepository interface {
	Create(ctx context.Context, loan *entity.Loan) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Loan, error)
	ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.Loan, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]*entity.Loan, error)
	Update(ctx context.Context, loan *entity.Loan, expectedStatus string) error
}

// EmployeeRepository defines persistence operations for Employee
type EmployeeRepository interface {
	Create(ctx context.Context, employee *entity.Employee) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Employee, error)
	GetByCode(ctx context.Context, tenantID, code string) (*entity.Employee, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Employee, error)
	Update(ctx context.Context, employee *entity.Employee) error
}

// PolicyRepository defines persistence operations for TravelPolicy
type PolicyRepository interface {
	Create(ctx context.Context, policy *entity.TravelPolicy) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.TravelPolicy, error)

	// FindActive returns the active policy for a grade, or nil when no
	// policy is configured
	FindActive(ctx context.Context, tenantID, grade string) (*entity.TravelPolicy, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.TravelPolicy, error)
	Update(ctx context.Context, policy *entity.TravelPolicy) error
}

// AppraisalRepository defines persistence operations for Appraisal
type AppraisalRepository interface {
	Create(ctx context.Context, appraisal *entity.Appraisal) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Appraisal, error)
	ListByCycle(ctx context.Context, tenantID, cycle string, limit, offset int) ([]*entity.Appraisal, error)
	Update(ctx context.Context, appraisal *entity.Appraisal, expectedStatus string) error
}

// FeedbackRepository defines persistence operations for Feedback360
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entity.Feedback360) error
	ListByAppraisal(ctx context.Context, tenantID, appraisalID string) ([]*entity.Feedback360, error)
}

// AuditLogRepository is the append-only audit sink
type AuditLogRepository interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
	ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]*entity.AuditEntry, error)
}

// NotificationRepository is the notification outbox
type NotificationRepository interface {
	Enqueue(ctx context.Context, notification *entity.Notification) error
	GetPending(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id string) error

	// RecordAttempt bumps the attempt counter and keeps the row pending
	// for another delivery round
	RecordAttempt(ctx context.Context, id, lastError string) error

	// MarkFailed parks the row permanently after the retry budget is spent
	MarkFailed(ctx context.Context, id, lastError string) error
}

// TransactionManager handles database transactions. Nested calls reuse the
// transaction already carried by the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
