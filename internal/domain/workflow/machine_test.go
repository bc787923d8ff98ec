package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_Fire(t *testing.T) {
	newMachine := func(initial State) Machine {
		b := NewBuilder()
		b.Configure(StateDraft).
			Permit(TriggerSubmit, StateSubmitted).
			Permit(TriggerReject, StateRejected)
		b.Configure(StateSubmitted).
			Permit(TriggerApproveLevel1, StateLevel1Approved).
			Permit(TriggerReject, StateRejected)
		return b.Build(initial)
	}

	tests := []struct {
		name      string
		initial   State
		trigger   Trigger
		wantState State
		wantErr   error
	}{
		{
			name:      "submit from draft",
			initial:   StateDraft,
			trigger:   TriggerSubmit,
			wantState: StateSubmitted,
		},
		{
			name:      "reject from draft",
			initial:   StateDraft,
			trigger:   TriggerReject,
			wantState: StateRejected,
		},
		{
			name:    "settle from draft is not configured",
			initial: StateDraft,
			trigger: TriggerSettle,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "no transitions from terminal state",
			initial: StateRejected,
			trigger: TriggerSubmit,
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(tt.initial)
			err := m.Fire(context.Background(), tt.trigger)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.initial, m.State(), "state must not change on a failed fire")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantState, m.State())
		})
	}
}

func TestMachine_GuardedTransitions(t *testing.T) {
	build := func(pass bool) Machine {
		b := NewBuilder()
		b.Configure(StateLevel1Approved).
			PermitWhen(TriggerApproveLevel2, StateLevel2Approved, func(context.Context) bool { return pass }).
			PermitWhen(TriggerApproveLevel3, StateLevel3Approved, func(context.Context) bool { return !pass })
		return b.Build(StateLevel1Approved)
	}

	t.Run("guard passes", func(t *testing.T) {
		m := build(true)
		require.NoError(t, m.Fire(context.Background(), TriggerApproveLevel2))
		assert.Equal(t, StateLevel2Approved, m.State())
	})

	t.Run("guard rejects", func(t *testing.T) {
		m := build(false)
		err := m.Fire(context.Background(), TriggerApproveLevel2)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGuardFailed)
		assert.Equal(t, StateLevel1Approved, m.State())
	})

	t.Run("CanFire ignores guards", func(t *testing.T) {
		m := build(false)
		assert.True(t, m.CanFire(TriggerApproveLevel2))
	})

	t.Run("Peek evaluates guards without moving", func(t *testing.T) {
		m := build(true)
		next, err := m.Peek(context.Background(), TriggerApproveLevel2)
		require.NoError(t, err)
		assert.Equal(t, StateLevel2Approved, next)
		assert.Equal(t, StateLevel1Approved, m.State())
	})
}

func TestMachine_PermittedTriggers(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted).
		Permit(TriggerReject, StateRejected)
	m := b.Build(StateDraft)

	assert.Equal(t, []Trigger{TriggerReject, TriggerSubmit}, m.PermittedTriggers())

	require.NoError(t, m.Fire(context.Background(), TriggerReject))
	assert.Empty(t, m.PermittedTriggers())
}

func TestBuilder_MachinesAreIndependent(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateDraft).Permit(TriggerSubmit, StateSubmitted)

	first := b.Build(StateDraft)
	second := b.Build(StateDraft)

	require.NoError(t, first.Fire(context.Background(), TriggerSubmit))
	assert.Equal(t, StateSubmitted, first.State())
	assert.Equal(t, StateDraft, second.State())
}

func TestBuilder_PanicsOnInvalidState(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Configure(State("BOGUS")) })
	assert.Panics(t, func() { NewBuilder().Build(State("BOGUS")) })
}

func TestState_IsTerminal(t *testing.T) {
	assert.True(t, StateSettled.IsTerminal())
	assert.True(t, StateRejected.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())
	assert.False(t, StateDraft.IsTerminal())
	assert.False(t, StateFinanceApproved.IsTerminal())
}
