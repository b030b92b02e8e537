package performance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testThresholds() Thresholds {
	return Thresholds{
		MinTrades:      10,
		MinWinRate:     0.30,
		MinAvgReturn:   -0.05,
		MinConsistency: 0.20,
	}
}

func seedOutcomes(s *Store, variant string, wins, losses int, winReturn, lossReturn float64) {
	for i := 0; i < wins; i++ {
		s.RecordOutcome(variant, winReturn, true)
	}
	for i := 0; i < losses; i++ {
		s.RecordOutcome(variant, lossReturn, false)
	}
}

func TestCalibrateEliminatesLowWinRate(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	elims := NewEliminationSet()
	c := NewCalibrator(store, elims, nil, nil, testThresholds(), testLogger())

	// Exactly at the trade floor with a 0.20 win rate
	seedOutcomes(store, "RATIO_SPREAD", 2, 8, 0.05, -0.01)

	eliminated := c.Calibrate(context.Background())
	require.Equal(t, []string{"RATIO_SPREAD"}, eliminated)
	assert.True(t, elims.Contains("RATIO_SPREAD"))
	assert.False(t, c.LastRun().IsZero())
}

func TestCalibrateSparesBelowTradeFloor(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	elims := NewEliminationSet()
	c := NewCalibrator(store, elims, nil, nil, testThresholds(), testLogger())

	// Same terrible win rate but only 9 trades: insufficient evidence
	seedOutcomes(store, "RATIO_SPREAD", 1, 8, 0.05, -0.01)

	assert.Empty(t, c.Calibrate(context.Background()))
	assert.False(t, elims.Contains("RATIO_SPREAD"))
}

func TestCalibrateEliminatesNegativeAvgReturn(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	elims := NewEliminationSet()
	c := NewCalibrator(store, elims, nil, nil, testThresholds(), testLogger())

	// Healthy win rate, ruinous average: small wins, huge losses
	seedOutcomes(store, "HEDGED_STRANGLE", 6, 4, 0.01, -0.20)

	eliminated := c.Calibrate(context.Background())
	require.Equal(t, []string{"HEDGED_STRANGLE"}, eliminated)
}

func TestCalibrateSparesHealthyVariant(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	elims := NewEliminationSet()
	c := NewCalibrator(store, elims, nil, nil, testThresholds(), testLogger())

	// Tight return stream: high win rate, positive average, low variance
	seedOutcomes(store, "IRON_CONDOR", 10, 2, 0.03, -0.005)

	assert.Empty(t, c.Calibrate(context.Background()))
	assert.False(t, elims.Contains("IRON_CONDOR"))
}

func TestCalibrateIsIdempotentAcrossRuns(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	elims := NewEliminationSet()
	c := NewCalibrator(store, elims, nil, nil, testThresholds(), testLogger())

	seedOutcomes(store, "RATIO_SPREAD", 2, 8, 0.05, -0.01)

	require.Len(t, c.Calibrate(context.Background()), 1)
	// Already eliminated: the second pass reports nothing new
	assert.Empty(t, c.Calibrate(context.Background()))
}

func TestOverrideRestoresVariant(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	elims := NewEliminationSet()
	c := NewCalibrator(store, elims, nil, nil, testThresholds(), testLogger())

	c.Suppress("IRON_FLY", "operator hold")
	require.True(t, elims.Contains("IRON_FLY"))

	assert.True(t, c.Override("IRON_FLY"))
	assert.False(t, elims.Contains("IRON_FLY"))
	assert.False(t, c.Override("IRON_FLY"))
}

// A retrainer failure must never contaminate elimination results.
type panickyRetrainer struct{}

func (panickyRetrainer) MaybeRetrain(context.Context) error {
	panic("training blew up")
}

// ctxRecordingRetrainer reports the liveness of the context it was given.
type ctxRecordingRetrainer struct {
	errs chan error
}

func (r *ctxRecordingRetrainer) MaybeRetrain(ctx context.Context) error {
	r.errs <- ctx.Err()
	return nil
}

// The retrain runs after Calibrate returns and its callers cancel their
// context; it must not inherit that cancellation.
func TestRetrainOutlivesCalibrationContext(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	retrainer := &ctxRecordingRetrainer{errs: make(chan error, 1)}
	c := NewCalibrator(store, NewEliminationSet(), nil, retrainer, testThresholds(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Calibrate(ctx)

	select {
	case err := <-retrainer.errs:
		assert.NoError(t, err, "retrain context must be live despite the canceled calibration context")
	case <-time.After(2 * time.Second):
		t.Fatal("retrain was never invoked")
	}
}

func TestCalibrateSurvivesRetrainerPanic(t *testing.T) {
	store := NewStore(100, nil, testLogger())
	elims := NewEliminationSet()
	c := NewCalibrator(store, elims, nil, panickyRetrainer{}, testThresholds(), testLogger())

	seedOutcomes(store, "RATIO_SPREAD", 2, 8, 0.05, -0.01)

	assert.NotPanics(t, func() {
		eliminated := c.Calibrate(context.Background())
		assert.Equal(t, []string{"RATIO_SPREAD"}, eliminated)
	})
}
