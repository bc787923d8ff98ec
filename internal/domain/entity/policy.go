package entity

import "time"

// TravelPolicy holds grade-based limits used as workflow guards and by the
// advisory policy validator
type TravelPolicy struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Grade    string `json:"grade"`

	// Days after trip end within which a claim may still be created
	ClaimSubmissionDeadlineDays int `json:"claim_submission_deadline_days"`

	// Claims above this total require the Level2 departmental check
	EscalationThreshold float64 `json:"escalation_threshold"`

	// Maximum claimable total for the grade; 0 means uncapped
	MaxClaimAmount float64 `json:"max_claim_amount"`

	// Per-day caps per expense class; absent class means uncapped
	ClassDailyLimits map[string]float64 `json:"class_daily_limits"`

	Active        bool      `json:"active"`
	EffectiveFrom time.Time `json:"effective_from"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultClaimSubmissionDeadlineDays applies when a policy leaves the
// deadline unset
const DefaultClaimSubmissionDeadlineDays = 30

// DeadlineDays returns the configured submission window, falling back to the
// default
func (p *TravelPolicy) DeadlineDays() int {
	if p == nil || p.ClaimSubmissionDeadlineDays <= 0 {
		return DefaultClaimSubmissionDeadlineDays
	}
	return p.ClaimSubmissionDeadlineDays
}
