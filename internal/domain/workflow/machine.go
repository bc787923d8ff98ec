package workflow

import "context"

// Machine tracks the current state of a single entity and validates
// trigger-driven transitions against the configured transition table
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has at least one configured
	// transition from the current state (guards are not evaluated)
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, moving to the target state when a
	// transition is configured and its guard (if any) passes
	Fire(ctx context.Context, trigger Trigger) error

	// Peek returns the state the machine would move to if the trigger fired
	// now, evaluating guards against the given context
	Peek(ctx context.Context, trigger Trigger) (State, error)

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}
