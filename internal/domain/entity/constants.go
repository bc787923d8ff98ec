package entity

// Status constants shared by workflow-backed records. Values mirror
// internal/domain/workflow states so persisted status strings and machine
// states never diverge.
const (
	StatusDraft           = "DRAFT"
	StatusSubmitted       = "SUBMITTED"
	StatusLevel1Approved  = "LEVEL1_APPROVED"
	StatusLevel2Approved  = "LEVEL2_APPROVED"
	StatusLevel3Approved  = "LEVEL3_APPROVED"
	StatusFinanceApproved = "FINANCE_APPROVED"
	StatusSettled         = "SETTLED"
	StatusRejected        = "REJECTED"
	StatusCompleted       = "COMPLETED"
)

// Advance status constants
const (
	AdvanceStatusRequested = "REQUESTED"
	AdvanceStatusPaid      = "PAID"
	AdvanceStatusSettled   = "SETTLED"
)

// DefaultCurrency applies when a claim omits the currency code
const DefaultCurrency = "INR"

// Expense class constants for claim line items
const (
	ExpenseClassLodging   = "LODGING"
	ExpenseClassMeals     = "MEALS"
	ExpenseClassTransport = "TRANSPORT"
	ExpenseClassOther     = "OTHER"
)

// Module identifiers used in audit entries and notifications
const (
	ModuleTravelClaim   = "travel_claim"
	ModuleTravelRequest = "travel_request"
	ModuleTravelAdvance = "travel_advance"
	ModuleGoal          = "goal"
	ModulePIP           = "pip"
	ModuleLoan          = "loan"
	ModuleAppraisal     = "appraisal"
	ModuleEmployee      = "employee"
	ModulePolicy        = "policy"
	ModuleTax           = "tax"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Feedback relationship constants for 360-degree reviews
const (
	FeedbackRelationshipSelf        = "SELF"
	FeedbackRelationshipPeer        = "PEER"
	FeedbackRelationshipManager     = "MANAGER"
	FeedbackRelationshipSubordinate = "SUBORDINATE"
)
