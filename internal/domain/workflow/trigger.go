package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmit         Trigger = "SUBMIT"
	TriggerApproveLevel1  Trigger = "APPROVE_LEVEL1"
	TriggerApproveLevel2  Trigger = "APPROVE_LEVEL2"
	TriggerApproveLevel3  Trigger = "APPROVE_LEVEL3"
	TriggerApproveFinance Trigger = "APPROVE_FINANCE"
	TriggerReject         Trigger = "REJECT"
	TriggerSettle         Trigger = "SETTLE"
	TriggerComplete       Trigger = "COMPLETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
