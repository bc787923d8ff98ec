package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhr/claimflow/internal/domain/entity"
	domainwf "github.com/clearhr/claimflow/internal/domain/workflow"
)

func fireAll(t *testing.T, m domainwf.Machine, triggers ...domainwf.Trigger) {
	t.Helper()
	for _, trig := range triggers {
		require.NoError(t, m.Fire(context.Background(), trig), "firing %s from %s", trig, m.State())
	}
}

func TestBuildClaimMachine_AboveThresholdTakesLevel2(t *testing.T) {
	m := BuildClaimMachine(domainwf.StateDraft, 30000, 25000)

	fireAll(t, m,
		domainwf.TriggerSubmit,
		domainwf.TriggerApproveLevel1,
		domainwf.TriggerApproveLevel2,
		domainwf.TriggerApproveLevel3,
		domainwf.TriggerApproveFinance,
		domainwf.TriggerSettle,
	)
	assert.Equal(t, domainwf.StateSettled, m.State())
}

func TestBuildClaimMachine_AtOrBelowThresholdSkipsLevel2(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
	}{
		{name: "below threshold", amount: 10000},
		{name: "exactly at threshold", amount: 25000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildClaimMachine(domainwf.StateDraft, tt.amount, 25000)

			fireAll(t, m, domainwf.TriggerSubmit, domainwf.TriggerApproveLevel1)

			// Level2 is configured but its guard rejects small claims
			err := m.Fire(context.Background(), domainwf.TriggerApproveLevel2)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainwf.ErrGuardFailed)

			fireAll(t, m,
				domainwf.TriggerApproveLevel3,
				domainwf.TriggerApproveFinance,
				domainwf.TriggerSettle,
			)
			assert.Equal(t, domainwf.StateSettled, m.State())
		})
	}
}

func TestBuildClaimMachine_LargeClaimCannotSkipLevel2(t *testing.T) {
	m := BuildClaimMachine(domainwf.StateDraft, 30000, 25000)

	fireAll(t, m, domainwf.TriggerSubmit, domainwf.TriggerApproveLevel1)

	err := m.Fire(context.Background(), domainwf.TriggerApproveLevel3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainwf.ErrGuardFailed)
	assert.Equal(t, domainwf.StateLevel1Approved, m.State())
}

func TestBuildClaimMachine_RejectionFromEveryNonTerminalState(t *testing.T) {
	paths := map[string][]domainwf.Trigger{
		"DRAFT":            {},
		"SUBMITTED":        {domainwf.TriggerSubmit},
		"LEVEL1_APPROVED":  {domainwf.TriggerSubmit, domainwf.TriggerApproveLevel1},
		"LEVEL2_APPROVED":  {domainwf.TriggerSubmit, domainwf.TriggerApproveLevel1, domainwf.TriggerApproveLevel2},
		"LEVEL3_APPROVED":  {domainwf.TriggerSubmit, domainwf.TriggerApproveLevel1, domainwf.TriggerApproveLevel2, domainwf.TriggerApproveLevel3},
		"FINANCE_APPROVED": {domainwf.TriggerSubmit, domainwf.TriggerApproveLevel1, domainwf.TriggerApproveLevel2, domainwf.TriggerApproveLevel3, domainwf.TriggerApproveFinance},
	}

	for state, path := range paths {
		t.Run(state, func(t *testing.T) {
			m := BuildClaimMachine(domainwf.StateDraft, 30000, 25000)
			fireAll(t, m, path...)

			require.NoError(t, m.Fire(context.Background(), domainwf.TriggerReject))
			assert.Equal(t, domainwf.StateRejected, m.State())
		})
	}
}

func TestBuildClaimMachine_TerminalStatesPermitNothing(t *testing.T) {
	m := BuildClaimMachine(domainwf.StateSettled, 100, 25000)
	assert.Empty(t, m.PermittedTriggers())

	m = BuildClaimMachine(domainwf.StateRejected, 100, 25000)
	assert.Empty(t, m.PermittedTriggers())
}

func TestBuildTravelRequestMachine_EndsAtLevel3(t *testing.T) {
	m := BuildTravelRequestMachine(domainwf.StateDraft, 50000, 25000)

	fireAll(t, m,
		domainwf.TriggerSubmit,
		domainwf.TriggerApproveLevel1,
		domainwf.TriggerApproveLevel2,
		domainwf.TriggerApproveLevel3,
	)
	assert.Equal(t, domainwf.StateLevel3Approved, m.State())

	// No finance or settlement tail on pre-trip requests
	err := m.Fire(context.Background(), domainwf.TriggerApproveFinance)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
}

func TestBuildSingleLevelMachine(t *testing.T) {
	m := BuildSingleLevelMachine(domainwf.StateDraft)

	fireAll(t, m,
		domainwf.TriggerSubmit,
		domainwf.TriggerApproveLevel1,
		domainwf.TriggerComplete,
	)
	assert.Equal(t, domainwf.StateCompleted, m.State())
}

func TestBuildLoanMachine(t *testing.T) {
	m := BuildLoanMachine(domainwf.StateDraft)

	fireAll(t, m,
		domainwf.TriggerSubmit,
		domainwf.TriggerApproveLevel1,
		domainwf.TriggerApproveFinance,
		domainwf.TriggerSettle,
	)
	assert.Equal(t, domainwf.StateSettled, m.State())
}

func TestTriggerForLevel(t *testing.T) {
	assert.Equal(t, domainwf.TriggerApproveLevel1, TriggerForLevel(entity.LevelOne))
	assert.Equal(t, domainwf.TriggerApproveLevel2, TriggerForLevel(entity.LevelTwo))
	assert.Equal(t, domainwf.TriggerApproveLevel3, TriggerForLevel(entity.LevelThree))
	assert.Equal(t, domainwf.TriggerApproveFinance, TriggerForLevel(entity.LevelFinance))
	assert.Equal(t, domainwf.Trigger(""), TriggerForLevel(entity.ApprovalLevel("BOGUS")))
}
