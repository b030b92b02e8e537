package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Thresholds are the calibration cut-offs. A variant with enough history is
// eliminated when it fails any one of them. The values are operating
// parameters, not derived constants; they come from configuration.
type Thresholds struct {
	MinTrades      int
	MinWinRate     float64
	MinAvgReturn   float64
	MinConsistency float64
}

// Retrainer is the calibration-triggered model refresh. It runs in its own
// failure domain: a retrain error never affects elimination outcomes.
type Retrainer interface {
	MaybeRetrain(ctx context.Context) error
}

// retrainTimeout bounds one background retrain, artifact upload included.
const retrainTimeout = 10 * time.Minute

// Calibrator applies the weekly elimination pass and triggers retraining.
type Calibrator struct {
	store      *Store
	elims      *EliminationSet
	repo       *Repository // optional
	retrainer  Retrainer   // optional
	thresholds Thresholds
	log        zerolog.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// NewCalibrator wires the calibration pass. repo and retrainer may be nil.
func NewCalibrator(
	store *Store,
	elims *EliminationSet,
	repo *Repository,
	retrainer Retrainer,
	thresholds Thresholds,
	log zerolog.Logger,
) *Calibrator {
	c := &Calibrator{
		store:      store,
		elims:      elims,
		repo:       repo,
		retrainer:  retrainer,
		thresholds: thresholds,
		log:        log.With().Str("component", "calibrator").Logger(),
	}

	if repo != nil {
		if persisted, err := repo.LoadEliminations(); err != nil {
			c.log.Error().Err(err).Msg("Failed to load persisted eliminations")
		} else {
			for _, e := range persisted {
				elims.restore(e)
			}
		}
		if last, err := repo.LastCalibration(); err == nil && !last.IsZero() {
			c.lastRun = last
		}
	}

	return c
}

// Calibrate runs one elimination pass over current performance snapshots and
// then kicks off retraining in the background. Returns the variants newly
// eliminated by this pass.
func (c *Calibrator) Calibrate(_ context.Context) []string {
	snapshots := c.store.SnapshotAll()
	var eliminated []string
	var entries []Elimination

	for variant, snap := range snapshots {
		if snap.Trades < c.thresholds.MinTrades {
			continue
		}
		if c.elims.Contains(variant) {
			continue
		}

		reason := c.failureReason(snap)
		if reason == "" {
			continue
		}

		c.elims.Eliminate(variant, reason)
		eliminated = append(eliminated, variant)
		if entry, ok := c.elimEntry(variant); ok {
			entries = append(entries, entry)
		}
		c.log.Warn().
			Str("variant", variant).
			Str("reason", reason).
			Float64("win_rate", snap.WinRate).
			Float64("avg_return", snap.AvgReturn).
			Float64("consistency", snap.Consistency).
			Msg("Variant eliminated")
	}

	now := time.Now().UTC()
	c.mu.Lock()
	c.lastRun = now
	c.mu.Unlock()

	// One transaction: the new suppressions and the run record land together.
	if c.repo != nil {
		if err := c.repo.SaveCalibration(now, entries); err != nil {
			c.log.Error().Err(err).Msg("Failed to persist calibration pass")
		}
	}

	c.log.Info().
		Int("checked", len(snapshots)).
		Int("eliminated", len(eliminated)).
		Msg("Calibration pass complete")

	// Retraining is independent: run it off this path, on its own context
	// (the caller cancels the calibration context as soon as the pass
	// returns), and swallow its failures so they cannot contaminate
	// elimination results.
	if c.retrainer != nil {
		go func() {
			defer func() {
				if p := recover(); p != nil {
					c.log.Error().Interface("panic", p).Msg("Retrain panicked")
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), retrainTimeout)
			defer cancel()
			if err := c.retrainer.MaybeRetrain(ctx); err != nil {
				c.log.Warn().Err(err).Msg("Model retrain skipped or failed")
			}
		}()
	}

	return eliminated
}

// failureReason returns why a snapshot fails calibration, or "" if it passes.
func (c *Calibrator) failureReason(snap Snapshot) string {
	if snap.WinRate < c.thresholds.MinWinRate {
		return fmt.Sprintf("win rate %.2f below %.2f", snap.WinRate, c.thresholds.MinWinRate)
	}
	if snap.AvgReturn < c.thresholds.MinAvgReturn {
		return fmt.Sprintf("avg return %.3f below %.3f", snap.AvgReturn, c.thresholds.MinAvgReturn)
	}
	if snap.Consistency < c.thresholds.MinConsistency {
		return fmt.Sprintf("consistency %.2f below %.2f", snap.Consistency, c.thresholds.MinConsistency)
	}
	return ""
}

// Override lifts a suppression (operator action) and removes it from the
// persisted set.
func (c *Calibrator) Override(variant string) bool {
	removed := c.elims.Override(variant)
	if removed && c.repo != nil {
		if err := c.repo.DeleteElimination(variant); err != nil {
			c.log.Error().Err(err).Str("variant", variant).Msg("Failed to remove persisted elimination")
		}
	}
	if removed {
		c.log.Info().Str("variant", variant).Msg("Elimination overridden")
	}
	return removed
}

// Suppress manually eliminates a variant (operator action).
func (c *Calibrator) Suppress(variant, reason string) {
	c.elims.Eliminate(variant, reason)
	if c.repo != nil {
		if entry, ok := c.elimEntry(variant); ok {
			if err := c.repo.SaveElimination(entry); err != nil {
				c.log.Error().Err(err).Str("variant", variant).Msg("Failed to persist elimination")
			}
		}
	}
}

// LastRun returns the most recent calibration time.
func (c *Calibrator) LastRun() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}

func (c *Calibrator) elimEntry(variant string) (Elimination, bool) {
	for _, e := range c.elims.List() {
		if e.Variant == variant {
			return e, true
		}
	}
	return Elimination{}, false
}
