package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhr/claimflow/internal/domain/entity"
)

func day(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func testPolicy() *entity.TravelPolicy {
	return &entity.TravelPolicy{
		MaxClaimAmount: 10000,
		ClassDailyLimits: map[string]float64{
			entity.ExpenseClassLodging: 3000,
			entity.ExpenseClassMeals:   800,
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("compliant claim has no findings", func(t *testing.T) {
		claim := &entity.TravelClaim{Expenses: []entity.ExpenseLine{
			{Class: entity.ExpenseClassLodging, Date: day(1), Amount: 2500},
			{Class: entity.ExpenseClassMeals, Date: day(1), Amount: 600},
		}}
		assert.Empty(t, Validate(claim, testPolicy()))
	})

	t.Run("flags a daily class overage", func(t *testing.T) {
		claim := &entity.TravelClaim{Expenses: []entity.ExpenseLine{
			{Class: entity.ExpenseClassLodging, Date: day(1), Amount: 4500},
		}}

		violations := Validate(claim, testPolicy())
		require.Len(t, violations, 1)
		assert.Equal(t, RuleClassDailyLimit, violations[0].Rule)
		assert.Equal(t, entity.ExpenseClassLodging, violations[0].Class)
		assert.Equal(t, 3000.0, violations[0].Limit)
		assert.Equal(t, 4500.0, violations[0].Actual)
	})

	t.Run("sums lines of the same class and day before comparing", func(t *testing.T) {
		claim := &entity.TravelClaim{Expenses: []entity.ExpenseLine{
			{Class: entity.ExpenseClassMeals, Date: day(1), Amount: 500},
			{Class: entity.ExpenseClassMeals, Date: day(1), Amount: 500},
			{Class: entity.ExpenseClassMeals, Date: day(2), Amount: 700},
		}}

		violations := Validate(claim, testPolicy())
		require.Len(t, violations, 1)
		assert.Equal(t, 1000.0, violations[0].Actual)
	})

	t.Run("uncapped class passes", func(t *testing.T) {
		claim := &entity.TravelClaim{Expenses: []entity.ExpenseLine{
			{Class: entity.ExpenseClassTransport, Date: day(1), Amount: 9000},
		}}
		assert.Empty(t, Validate(claim, testPolicy()))
	})

	t.Run("flags the claim total cap", func(t *testing.T) {
		claim := &entity.TravelClaim{Expenses: []entity.ExpenseLine{
			{Class: entity.ExpenseClassTransport, Date: day(1), Amount: 6000},
			{Class: entity.ExpenseClassTransport, Date: day(2), Amount: 6000},
		}}

		violations := Validate(claim, testPolicy())
		require.Len(t, violations, 1)
		assert.Equal(t, RuleMaxClaimAmount, violations[0].Rule)
	})

	t.Run("identical input yields an identical list", func(t *testing.T) {
		claim := &entity.TravelClaim{Expenses: []entity.ExpenseLine{
			{Class: entity.ExpenseClassLodging, Date: day(1), Amount: 4000},
			{Class: entity.ExpenseClassLodging, Date: day(2), Amount: 5000},
			{Class: entity.ExpenseClassMeals, Date: day(1), Amount: 900},
			{Class: entity.ExpenseClassTransport, Date: day(1), Amount: 2000},
		}}
		pol := testPolicy()

		first := Validate(claim, pol)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Validate(claim, pol))
		}
	})

	t.Run("nil claim or policy", func(t *testing.T) {
		assert.Nil(t, Validate(nil, testPolicy()))
		assert.Nil(t, Validate(&entity.TravelClaim{}, nil))
	})
}

func TestWithinSubmissionWindow(t *testing.T) {
	tripEnd := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		now          time.Time
		deadlineDays int
		want         bool
	}{
		{name: "inside the window", now: tripEnd.AddDate(0, 0, 10), deadlineDays: 30, want: true},
		{name: "exactly at the deadline", now: tripEnd.Add(30 * 24 * time.Hour), deadlineDays: 30, want: true},
		{name: "just past the deadline", now: tripEnd.Add(30*24*time.Hour + time.Second), deadlineDays: 30, want: false},
		{name: "zero falls back to the default window", now: tripEnd.Add(29 * 24 * time.Hour), deadlineDays: 0, want: true},
		{name: "default window still expires", now: tripEnd.Add(31 * 24 * time.Hour), deadlineDays: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinSubmissionWindow(tripEnd, tt.now, tt.deadlineDays))
		})
	}
}
