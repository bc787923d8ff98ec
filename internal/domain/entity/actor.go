package entity

// Role identifies what an actor is allowed to do within a tenant
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleHR       Role = "HR"
	RoleFinance  Role = "FINANCE"
	RoleAdmin    Role = "ADMIN"
)

// Actor carries the authenticated request identity through every workflow
// operation. It replaces ambient per-request globals: services receive it
// explicitly and scope every lookup to Actor.TenantID.
type Actor struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
}

// IsPrivileged reports whether the actor may act on records it does not own
func (a Actor) IsPrivileged() bool {
	switch a.Role {
	case RoleManager, RoleHR, RoleFinance, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanApprove reports whether the actor's role is accepted at the given
// approval level. Admins can stand in at any level.
func (a Actor) CanApprove(level ApprovalLevel) bool {
	if a.Role == RoleAdmin {
		return true
	}
	switch level {
	case LevelOne:
		return a.Role == RoleManager
	case LevelTwo, LevelThree:
		return a.Role == RoleHR || a.Role == RoleManager
	case LevelFinance:
		return a.Role == RoleFinance
	default:
		return false
	}
}
