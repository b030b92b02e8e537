package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/database"
)

// MaintenanceJob checkpoints the WAL and verifies database health on a
// short interval so the log never grows unbounded between calibrations.
type MaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMaintenanceJob creates the database maintenance job.
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("component", "maintenance-job").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "db-maintenance"
}

// Run checkpoints the WAL and runs a health check.
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return fmt.Errorf("WAL checkpoint failed: %w", err)
	}
	j.log.Debug().Str("database", j.db.Name()).Msg("Maintenance pass complete")
	return nil
}
