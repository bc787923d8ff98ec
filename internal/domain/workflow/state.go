package workflow

// State represents a workflow state in the claim approval lifecycle
type State string

const (
	StateDraft           State = "DRAFT"
	StateSubmitted       State = "SUBMITTED"
	StateLevel1Approved  State = "LEVEL1_APPROVED"
	StateLevel2Approved  State = "LEVEL2_APPROVED"
	StateLevel3Approved  State = "LEVEL3_APPROVED"
	StateFinanceApproved State = "FINANCE_APPROVED"
	StateSettled         State = "SETTLED"
	StateRejected        State = "REJECTED"
	StateCompleted       State = "COMPLETED"
)

var validStates = map[State]bool{
	StateDraft:           true,
	StateSubmitted:       true,
	StateLevel1Approved:  true,
	StateLevel2Approved:  true,
	StateLevel3Approved:  true,
	StateFinanceApproved: true,
	StateSettled:         true,
	StateRejected:        true,
	StateCompleted:       true,
}

var terminalStates = map[State]bool{
	StateSettled:   true,
	StateRejected:  true,
	StateCompleted: true,
}

// IsTerminal returns true if the state permits no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a recognized workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
