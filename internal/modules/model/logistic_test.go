package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantroll/stratagem/internal/domain"
)

func testConditions() domain.MarketConditions {
	return domain.MarketConditions{
		Timestamp:       time.Now().UTC(),
		Symbol:          "NIFTY",
		Spot:            25000,
		VolatilityIndex: 18,
		TrendStrength:   0.10,
		Bias:            domain.BiasNeutral,
		IVRank:          50,
		DaysToExpiry:    20,
	}
}

// Linearly separable toy set: label follows the sign of the first feature.
func separableSet(n int) ([][]float64, []float64) {
	x := make([][]float64, 0, 2*n)
	y := make([]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		offset := float64(i%5) * 0.1
		x = append(x, []float64{1.0 + offset, 0.2})
		y = append(y, 1)
		x = append(x, []float64{-1.0 - offset, 0.2})
		y = append(y, 0)
	}
	return x, y
}

func TestTrainSeparatesClasses(t *testing.T) {
	x, y := separableSet(30)

	m, err := Train(x, y, DefaultTrainOptions())
	require.NoError(t, err)
	assert.Equal(t, len(x), m.Samples)
	assert.False(t, m.TrainedAt.IsZero())

	pos, err := m.Predict([]float64{1.2, 0.2})
	require.NoError(t, err)
	neg, err := m.Predict([]float64{-1.2, 0.2})
	require.NoError(t, err)

	assert.Greater(t, pos, 0.7, "positive side scores high")
	assert.Less(t, neg, 0.3, "negative side scores low")
	assert.Greater(t, pos, neg)
}

func TestTrainRejectsBadInput(t *testing.T) {
	_, err := Train(nil, nil, DefaultTrainOptions())
	require.Error(t, err)

	_, err = Train([][]float64{{1, 2}}, []float64{1, 0}, DefaultTrainOptions())
	require.Error(t, err, "row and label counts must match")

	_, err = Train([][]float64{{1, 2}, {1}}, []float64{1, 0}, DefaultTrainOptions())
	require.Error(t, err, "ragged rows are rejected")
}

func TestPredictDimensionMismatch(t *testing.T) {
	x, y := separableSet(10)
	m, err := Train(x, y, DefaultTrainOptions())
	require.NoError(t, err)

	_, err = m.Predict([]float64{1.0})
	require.Error(t, err)
}

func TestArtifactRoundTrip(t *testing.T) {
	x, y := separableSet(10)
	m, err := Train(x, y, DefaultTrainOptions())
	require.NoError(t, err)

	data, err := EncodeArtifact(m)
	require.NoError(t, err)

	restored, err := DecodeArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, m.Weights, restored.Weights)
	assert.Equal(t, m.Bias, restored.Bias)
	assert.Equal(t, m.Samples, restored.Samples)

	// The restored model predicts identically
	want, err := m.Predict([]float64{0.8, 0.2})
	require.NoError(t, err)
	got, err := restored.Predict([]float64{0.8, 0.2})
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestDecodeArtifactRejectsGarbage(t *testing.T) {
	_, err := DecodeArtifact([]byte("not msgpack at all"))
	require.Error(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrArtifactNotFound)

	payload := []byte{0x01, 0x02, 0x03}
	require.NoError(t, store.Save(ctx, payload))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, loaded)
}

func TestBuildFeatures(t *testing.T) {
	cond := testConditions()

	features := BuildFeatures(cond, 2, 5)
	require.Len(t, features, FeatureCount(5))

	assert.InDelta(t, 0.18, features[0], 1e-9, "volatility index is scaled to [0,1]")
	assert.InDelta(t, 0.5, features[3], 1e-9, "IV rank is scaled to [0,1]")

	oneHot := features[baseFeatureCount:]
	assert.Equal(t, []float64{0, 0, 1, 0, 0}, oneHot)

	// Out-of-range index yields an all-zero tail rather than a panic
	none := BuildFeatures(cond, -1, 5)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, none[baseFeatureCount:])
}
