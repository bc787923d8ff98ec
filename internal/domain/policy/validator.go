// Package policy implements pure policy evaluation: advisory violation
// checks on claims and the claim submission window guard. None of it touches
// persistence, so results are deterministic for a given claim and policy.
package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/clearhr/claimflow/internal/domain/entity"
)

// Violation rule identifiers
const (
	RuleClassDailyLimit = "CLASS_DAILY_LIMIT"
	RuleMaxClaimAmount  = "MAX_CLAIM_AMOUNT"
)

// Validate compares a claim's expense lines against the grade policy and
// returns advisory violations. Calling it twice with unchanged inputs yields
// identical lists: per-day class totals are walked in sorted order.
//
// Violations never block a transition; whether they should is an open
// product question, so the soft-fail behavior is kept.
func Validate(claim *entity.TravelClaim, pol *entity.TravelPolicy) []entity.PolicyViolation {
	if claim == nil || pol == nil {
		return nil
	}

	var violations []entity.PolicyViolation

	if pol.MaxClaimAmount > 0 {
		total := claim.SumExpenses()
		if total > pol.MaxClaimAmount {
			violations = append(violations, entity.PolicyViolation{
				Rule:    RuleMaxClaimAmount,
				Limit:   pol.MaxClaimAmount,
				Actual:  total,
				Message: fmt.Sprintf("claim total %.2f exceeds grade limit %.2f", total, pol.MaxClaimAmount),
			})
		}
	}

	type classDay struct {
		class string
		day   string
	}
	perDay := make(map[classDay]float64)
	for _, line := range claim.Expenses {
		key := classDay{class: line.Class, day: line.Date.Format("2006-01-02")}
		perDay[key] += line.Amount
	}

	keys := make([]classDay, 0, len(perDay))
	for k := range perDay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].class != keys[j].class {
			return keys[i].class < keys[j].class
		}
		return keys[i].day < keys[j].day
	})

	for _, k := range keys {
		limit, capped := pol.ClassDailyLimits[k.class]
		if !capped || limit <= 0 {
			continue
		}
		if actual := perDay[k]; actual > limit {
			violations = append(violations, entity.PolicyViolation{
				Rule:    RuleClassDailyLimit,
				Class:   k.class,
				Limit:   limit,
				Actual:  actual,
				Message: fmt.Sprintf("%s spend %.2f on %s exceeds daily cap %.2f", k.class, actual, k.day, limit),
			})
		}
	}

	return violations
}

// WithinSubmissionWindow reports whether a claim may still be created for a
// trip that ended at tripEnd. Exactly at the deadline is allowed.
func WithinSubmissionWindow(tripEnd, now time.Time, deadlineDays int) bool {
	if deadlineDays <= 0 {
		deadlineDays = entity.DefaultClaimSubmissionDeadlineDays
	}
	deadline := tripEnd.Add(time.Duration(deadlineDays) * 24 * time.Hour)
	return !now.After(deadline)
}
