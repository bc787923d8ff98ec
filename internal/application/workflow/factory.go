// Package workflow assembles the transition tables for each
// workflow-backed resource. Transition legality lives here, in one place,
// instead of being re-derived inside every handler.
package workflow

import (
	"context"

	"github.com/clearhr/claimflow/internal/domain/entity"
	domainwf "github.com/clearhr/claimflow/internal/domain/workflow"
)

// TriggerForLevel maps an approval level to its workflow trigger
func TriggerForLevel(level entity.ApprovalLevel) domainwf.Trigger {
	switch level {
	case entity.LevelOne:
		return domainwf.TriggerApproveLevel1
	case entity.LevelTwo:
		return domainwf.TriggerApproveLevel2
	case entity.LevelThree:
		return domainwf.TriggerApproveLevel3
	case entity.LevelFinance:
		return domainwf.TriggerApproveFinance
	default:
		return ""
	}
}

// BuildClaimMachine creates the machine for a travel claim. The Level2
// departmental check applies only above the escalation threshold: larger
// claims take SUBMITTED -> L1 -> L2 -> L3 -> FINANCE -> SETTLED, smaller
// ones skip Level2 entirely. Rejection is reachable from every non-terminal
// state.
func BuildClaimMachine(initial domainwf.State, totalAmount, escalationThreshold float64) domainwf.Machine {
	aboveThreshold := func(context.Context) bool { return totalAmount > escalationThreshold }
	atOrBelowThreshold := func(context.Context) bool { return totalAmount <= escalationThreshold }

	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StateSubmitted).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerApproveLevel1, domainwf.StateLevel1Approved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateLevel1Approved).
		PermitWhen(domainwf.TriggerApproveLevel2, domainwf.StateLevel2Approved, aboveThreshold).
		PermitWhen(domainwf.TriggerApproveLevel3, domainwf.StateLevel3Approved, atOrBelowThreshold).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateLevel2Approved).
		Permit(domainwf.TriggerApproveLevel3, domainwf.StateLevel3Approved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateLevel3Approved).
		Permit(domainwf.TriggerApproveFinance, domainwf.StateFinanceApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateFinanceApproved).
		Permit(domainwf.TriggerSettle, domainwf.StateSettled).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// SETTLED and REJECTED are terminal

	return builder.Build(initial)
}

// BuildTravelRequestMachine creates the machine for a pre-trip request. Same
// chain as claims but approval ends at Level3; there is no finance or
// settlement tail.
func BuildTravelRequestMachine(initial domainwf.State, estimatedCost, escalationThreshold float64) domainwf.Machine {
	aboveThreshold := func(context.Context) bool { return estimatedCost > escalationThreshold }
	atOrBelowThreshold := func(context.Context) bool { return estimatedCost <= escalationThreshold }

	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StateSubmitted).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerApproveLevel1, domainwf.StateLevel1Approved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateLevel1Approved).
		PermitWhen(domainwf.TriggerApproveLevel2, domainwf.StateLevel2Approved, aboveThreshold).
		PermitWhen(domainwf.TriggerApproveLevel3, domainwf.StateLevel3Approved, atOrBelowThreshold).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateLevel2Approved).
		Permit(domainwf.TriggerApproveLevel3, domainwf.StateLevel3Approved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	return builder.Build(initial)
}

// BuildSingleLevelMachine creates the machine used by goals and PIPs:
// draft, submit, one manager approval, then completion via review
func BuildSingleLevelMachine(initial domainwf.State) domainwf.Machine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StateSubmitted).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerApproveLevel1, domainwf.StateLevel1Approved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateLevel1Approved).
		Permit(domainwf.TriggerComplete, domainwf.StateCompleted).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	return builder.Build(initial)
}

// BuildLoanMachine creates the machine for employee loans: manager approval,
// finance approval, then disbursement recorded as settlement
func BuildLoanMachine(initial domainwf.State) domainwf.Machine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StateSubmitted).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerApproveLevel1, domainwf.StateLevel1Approved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateLevel1Approved).
		Permit(domainwf.TriggerApproveFinance, domainwf.StateFinanceApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateFinanceApproved).
		Permit(domainwf.TriggerSettle, domainwf.StateSettled).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	return builder.Build(initial)
}
