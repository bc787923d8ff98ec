package event

// Type identifies the kind of domain event
type Type string

const (
	TypeClaimCreated   Type = "claim.created"
	TypeClaimSubmitted Type = "claim.submitted"
	TypeClaimApproved  Type = "claim.approved"
	TypeClaimRejected  Type = "claim.rejected"
	TypeClaimSettled   Type = "claim.settled"

	TypeRequestSubmitted Type = "travel_request.submitted"
	TypeRequestApproved  Type = "travel_request.approved"
	TypeRequestRejected  Type = "travel_request.rejected"

	TypeGoalSubmitted Type = "goal.submitted"
	TypeGoalApproved  Type = "goal.approved"
	TypeGoalRejected  Type = "goal.rejected"

	TypePIPSubmitted Type = "pip.submitted"
	TypePIPApproved  Type = "pip.approved"
	TypePIPRejected  Type = "pip.rejected"
	TypePIPClosed    Type = "pip.closed"

	TypeAdvanceCreated Type = "advance.created"
	TypeAdvancePaid    Type = "advance.paid"

	TypeLoanSubmitted Type = "loan.submitted"
	TypeLoanApproved  Type = "loan.approved"
	TypeLoanRejected  Type = "loan.rejected"
	TypeLoanDisbursed Type = "loan.disbursed"

	TypeAppraisalSubmitted Type = "appraisal.submitted"
	TypeAppraisalReviewed  Type = "appraisal.reviewed"
	TypeAppraisalClosed    Type = "appraisal.closed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClaimCreated, TypeClaimSubmitted, TypeClaimApproved,
		TypeClaimRejected, TypeClaimSettled,
		TypeRequestSubmitted, TypeRequestApproved, TypeRequestRejected,
		TypeGoalSubmitted, TypeGoalApproved, TypeGoalRejected,
		TypePIPSubmitted, TypePIPApproved, TypePIPRejected, TypePIPClosed,
		TypeAdvanceCreated, TypeAdvancePaid,
		TypeLoanSubmitted, TypeLoanApproved, TypeLoanRejected, TypeLoanDisbursed,
		TypeAppraisalSubmitted, TypeAppraisalReviewed, TypeAppraisalClosed:
		return true
	default:
		return false
	}
}
