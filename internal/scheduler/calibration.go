package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/modules/performance"
)

// calibrationTimeout bounds one calibration pass including its retrain
// kickoff.
const calibrationTimeout = 5 * time.Minute

// CalibrationJob runs the weekly elimination pass.
type CalibrationJob struct {
	calibrator *performance.Calibrator
	log        zerolog.Logger
}

// NewCalibrationJob creates the calibration job.
func NewCalibrationJob(calibrator *performance.Calibrator, log zerolog.Logger) *CalibrationJob {
	return &CalibrationJob{
		calibrator: calibrator,
		log:        log.With().Str("component", "calibration-job").Logger(),
	}
}

// Name returns the job name
func (j *CalibrationJob) Name() string {
	return "calibration"
}

// Run executes one calibration pass.
func (j *CalibrationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), calibrationTimeout)
	defer cancel()

	eliminated := j.calibrator.Calibrate(ctx)
	if len(eliminated) > 0 {
		j.log.Warn().Strs("variants", eliminated).Msg("Calibration eliminated variants")
	}
	return nil
}
