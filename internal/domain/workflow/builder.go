package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a configured transition may fire
type GuardFunc func(ctx context.Context) bool

// Builder assembles a transition table and produces Machine instances
type Builder interface {
	// Configure returns the configuration for the given source state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at the given initial state
	Build(initialState State) Machine
}

// StateConfiguration configures outgoing transitions for one source state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state unconditionally
	Permit(trigger Trigger, to State) StateConfiguration

	// PermitWhen allows a trigger to transition to the target state only when
	// the guard passes; multiple guarded transitions for the same trigger are
	// tried in registration order
	PermitWhen(trigger Trigger, to State, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    State
	guard GuardFunc
}

type stateConfig struct {
	from        State
	transitions map[Trigger][]transition
}

type builder struct {
	configs map[State]*stateConfig
}

type machine struct {
	current State
	configs map[State]*stateConfig
}

// NewBuilder creates an empty transition-table builder
func NewBuilder() Builder {
	return &builder{configs: make(map[State]*stateConfig)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("workflow: invalid state %q", state))
	}
	cfg, ok := b.configs[state]
	if !ok {
		cfg = &stateConfig{from: state, transitions: make(map[Trigger][]transition)}
		b.configs[state] = cfg
	}
	return cfg
}

func (b *builder) Build(initialState State) Machine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("workflow: invalid initial state %q", initialState))
	}

	// Machines share nothing with the builder so one builder can stamp out
	// independent machines for concurrent requests
	configs := make(map[State]*stateConfig, len(b.configs))
	for state, cfg := range b.configs {
		copied := &stateConfig{from: state, transitions: make(map[Trigger][]transition, len(cfg.transitions))}
		for trig, ts := range cfg.transitions {
			copied.transitions[trig] = append([]transition(nil), ts...)
		}
		configs[state] = copied
	}

	return &machine{current: initialState, configs: configs}
}

func (c *stateConfig) Permit(trigger Trigger, to State) StateConfiguration {
	return c.PermitWhen(trigger, to, nil)
}

func (c *stateConfig) PermitWhen(trigger Trigger, to State, guard GuardFunc) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("workflow: invalid target state %q", to))
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{to: to, guard: guard})
	return c
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	cfg, ok := m.configs[m.current]
	if !ok {
		return false
	}
	return len(cfg.transitions[trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	next, err := m.Peek(ctx, trigger)
	if err != nil {
		return err
	}
	m.current = next
	return nil
}

func (m *machine) Peek(ctx context.Context, trigger Trigger) (State, error) {
	cfg, ok := m.configs[m.current]
	if !ok {
		return "", fmt.Errorf("%w: trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}

	ts := cfg.transitions[trigger]
	if len(ts) == 0 {
		return "", fmt.Errorf("%w: trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			return t.to, nil
		}
	}

	return "", fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	cfg, ok := m.configs[m.current]
	if !ok {
		return nil
	}
	triggers := make([]Trigger, 0, len(cfg.transitions))
	for trig := range cfg.transitions {
		triggers = append(triggers, trig)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
