package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsistency(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"too little data is neutral", []float64{0.03}, 0.5},
		{"empty is neutral", nil, 0.5},
		{"flat stream is perfectly consistent", []float64{0.02, 0.02, 0.02}, 1.0},
		{"zero mean with variance scores zero", []float64{0.05, -0.05, 0.05, -0.05}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Consistency(tt.returns), 1e-9)
		})
	}

	t.Run("erratic stream scores below steady stream", func(t *testing.T) {
		steady := Consistency([]float64{0.030, 0.028, 0.032, 0.029})
		erratic := Consistency([]float64{0.10, -0.06, 0.09, -0.05})
		assert.Greater(t, steady, erratic)
	})

	t.Run("floored at zero", func(t *testing.T) {
		v := Consistency([]float64{1.0, -0.99, 0.98, -0.97})
		assert.GreaterOrEqual(t, v, 0.0)
	})
}

func TestMeanAndStdDev(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 0.02, Mean([]float64{0.01, 0.02, 0.03}), 1e-9)

	assert.Zero(t, StdDev([]float64{0.5}))
	assert.InDelta(t, 0.01, StdDev([]float64{0.01, 0.02, 0.03}), 1e-9)
}

func TestClampAndRound(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.3))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.42, Clamp01(0.42))

	assert.Equal(t, 0.123, Round3(0.12349))
	assert.Equal(t, 0.1235, Round4(0.12349))
}

func TestTrendStrength(t *testing.T) {
	t.Run("insufficient history returns nil", func(t *testing.T) {
		closes := make([]float64, 29)
		for i := range closes {
			closes[i] = 100
		}
		assert.Nil(t, TrendStrength(closes))
	})

	t.Run("flat series has near-zero strength", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 25000
		}
		s := TrendStrength(closes)
		assert.NotNil(t, s)
		assert.InDelta(t, 0, *s, 0.01)
		assert.Equal(t, 0, TrendDirection(closes))
	})

	t.Run("steady climb trends up", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 24000 + float64(i)*40
		}
		s := TrendStrength(closes)
		assert.NotNil(t, s)
		assert.Greater(t, *s, 0.3)
		assert.Equal(t, 1, TrendDirection(closes))
	})

	t.Run("steady slide trends down", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 26000 - float64(i)*40
		}
		assert.Equal(t, -1, TrendDirection(closes))
	})
}
