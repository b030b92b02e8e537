package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/config"
	"github.com/quantroll/stratagem/internal/database"
	"github.com/quantroll/stratagem/internal/modules/gate"
	"github.com/quantroll/stratagem/internal/modules/market"
	"github.com/quantroll/stratagem/internal/modules/model"
	"github.com/quantroll/stratagem/internal/modules/performance"
	"github.com/quantroll/stratagem/internal/modules/selection"
	"github.com/quantroll/stratagem/internal/modules/strategies"
	"github.com/quantroll/stratagem/internal/scheduler"
	"github.com/quantroll/stratagem/internal/server"
	"github.com/quantroll/stratagem/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored from the start
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Stratagem")

	// Performance database holds outcomes, eliminations and selection history
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "performance.db"),
		Profile: database.ProfileLedger,
		Name:    "performance",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	repo, err := performance.NewRepository(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize performance repository")
	}

	store := performance.NewStore(cfg.Selection.WindowSize, repo, log)
	elims := performance.NewEliminationSet()

	// Model artifact store: S3-compatible bucket when configured, local file
	// otherwise
	var artifacts model.ArtifactStore
	if cfg.Artifact.Bucket != "" {
		s3Store, err := model.NewS3Store(context.Background(), model.S3Config{
			Bucket:    cfg.Artifact.Bucket,
			Endpoint:  cfg.Artifact.Endpoint,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Region:    cfg.Artifact.Region,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize artifact bucket")
		}
		artifacts = s3Store
	} else {
		artifacts = model.NewFileStore(cfg.DataDir)
	}

	trainer := model.NewTrainer(repo, artifacts, cfg.Selection.RetrainMinRecords, log)
	if err := trainer.LoadFromStore(context.Background()); err != nil {
		// Selection degrades to the pure rule score without a model
		log.Warn().Err(err).Msg("Failed to restore model artifact")
	}

	calibrator := performance.NewCalibrator(store, elims, repo, trainer, performance.Thresholds{
		MinTrades:      cfg.Selection.MinTradesForStats,
		MinWinRate:     cfg.Selection.MinWinRate,
		MinAvgReturn:   cfg.Selection.MinAvgReturn,
		MinConsistency: cfg.Selection.MinConsistency,
	}, log)

	registry := strategies.NewDefaultRegistry(cfg.Gate.InstrumentWhitelist)

	// Calendar, danger-zone and expiry collaborators attach here when their
	// feed clients are configured; the gate skips absent ones.
	marketGate := gate.New(
		cfg.Gate.InstrumentWhitelist,
		nil, nil, nil,
		time.Duration(cfg.Gate.CacheTTLSeconds)*time.Second,
		log,
	)
	builder := market.NewBuilder(nil, nil, nil, log)

	signals := server.NewSignalHub(log)
	filter := selection.NewFilter(registry, elims, log)
	scorer := selection.NewScorer(cfg.Selection, registry.Names(), trainer, log)
	selector := selection.NewSelector(
		marketGate, filter, scorer, store, repo, signals,
		strategies.Limits{}, log,
	)

	sched := scheduler.New(log)
	if err := registerJobs(sched, cfg, db, calibrator, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		Log:        log,
		Cfg:        cfg,
		DB:         db,
		Registry:   registry,
		Builder:    builder,
		Selector:   selector,
		Store:      store,
		Repo:       repo,
		Elims:      elims,
		Calibrator: calibrator,
		Trainer:    trainer,
		Scheduler:  sched,
		Signals:    signals,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("Final WAL checkpoint failed")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	db *database.DB,
	calibrator *performance.Calibrator,
	log zerolog.Logger,
) error {
	if err := sched.AddJob(cfg.Schedule.Calibration, scheduler.NewCalibrationJob(calibrator, log)); err != nil {
		return err
	}
	return sched.AddJob(cfg.Schedule.PerformanceFlush, scheduler.NewMaintenanceJob(db, log))
}
