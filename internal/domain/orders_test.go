package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func condorConstraints() OrderConstraints {
	return OrderConstraints{
		MinLegs:       4,
		MaxLegs:       4,
		HedgeRequired: true,
		Whitelist:     []string{"NIFTY", "BANKNIFTY"},
	}
}

func condorLegs(expiry time.Time) []OrderLeg {
	return []OrderLeg{
		{Underlying: "NIFTY", Expiry: expiry, Strike: 24400, Instrument: InstrumentPut, Side: SideBuy, Quantity: 75, Hedge: true, Role: "wing_put", Priority: 0},
		{Underlying: "NIFTY", Expiry: expiry, Strike: 25600, Instrument: InstrumentCall, Side: SideBuy, Quantity: 75, Hedge: true, Role: "wing_call", Priority: 1},
		{Underlying: "NIFTY", Expiry: expiry, Strike: 24700, Instrument: InstrumentPut, Side: SideSell, Quantity: 75, Hedge: false, Role: "short_put", Priority: 2},
		{Underlying: "NIFTY", Expiry: expiry, Strike: 25300, Instrument: InstrumentCall, Side: SideSell, Quantity: 75, Hedge: false, Role: "short_call", Priority: 3},
	}
}

func TestValidateOrderSet(t *testing.T) {
	expiry := time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)

	t.Run("valid hedge-first set passes", func(t *testing.T) {
		set := OrderSet{Variant: "IRON_CONDOR", Legs: condorLegs(expiry)}
		require.NoError(t, ValidateOrderSet(set, condorConstraints()))
	})

	t.Run("hedge priority above body is rejected", func(t *testing.T) {
		legs := condorLegs(expiry)
		// Swap execution ranks so a short routes before a wing
		legs[1].Priority = 3
		legs[3].Priority = 1

		err := ValidateOrderSet(OrderSet{Variant: "IRON_CONDOR", Legs: legs}, condorConstraints())
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "hedge", verr.Field)
	})

	t.Run("missing hedge leg is rejected", func(t *testing.T) {
		legs := condorLegs(expiry)
		for i := range legs {
			legs[i].Hedge = false
		}
		err := ValidateOrderSet(OrderSet{Legs: legs}, condorConstraints())
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("leg count outside bounds is rejected", func(t *testing.T) {
		legs := condorLegs(expiry)[:3]
		err := ValidateOrderSet(OrderSet{Legs: legs}, condorConstraints())
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "legs", verr.Field)
	})

	t.Run("non-whitelisted underlying is rejected", func(t *testing.T) {
		legs := condorLegs(expiry)
		legs[2].Underlying = "FINNIFTY"
		err := ValidateOrderSet(OrderSet{Legs: legs}, condorConstraints())
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "underlying", verr.Field)
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		legs := condorLegs(expiry)
		legs[0].Quantity = 0
		err := ValidateOrderSet(OrderSet{Legs: legs}, condorConstraints())
		require.Error(t, err)
	})
}

func TestOrderSetSortedByPriority(t *testing.T) {
	expiry := time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)
	legs := condorLegs(expiry)
	// Scramble insertion order; execution order must not depend on it
	set := OrderSet{Legs: []OrderLeg{legs[3], legs[0], legs[2], legs[1]}}

	sorted := set.SortedByPriority()
	require.Len(t, sorted, 4)
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].Priority, sorted[i].Priority)
	}
	// Hedges first
	assert.True(t, sorted[0].Hedge)
	assert.True(t, sorted[1].Hedge)
	assert.False(t, sorted[2].Hedge)
	assert.False(t, sorted[3].Hedge)
}

func TestClassifyVolatility(t *testing.T) {
	tests := []struct {
		name   string
		vix    float64
		ivRank float64
		want   VolatilityClass
	}{
		{"low", 12, 30, VolClassLow},
		{"moderate", 18, 30, VolClassModerate},
		{"high", 24, 30, VolClassHigh},
		{"extreme", 32, 30, VolClassExtreme},
		{"iv rank promotes low to moderate", 12, 80, VolClassModerate},
		{"iv rank promotes moderate to high", 18, 80, VolClassHigh},
		{"iv rank does not promote extreme", 32, 90, VolClassExtreme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyVolatility(tt.vix, tt.ivRank))
		})
	}
}
