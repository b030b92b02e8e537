package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/modules/performance"
)

// trainingBatchLimit caps how many labeled selections one retrain consumes.
const trainingBatchLimit = 5000

// Trainer owns the live model: it restores it from the artifact store at
// startup, retrains it from labeled selection history, and hands out the
// current instance to the scorer. The current model pointer is swapped
// atomically under a mutex; readers never see a half-trained model.
type Trainer struct {
	repo       *performance.Repository
	store      ArtifactStore
	minRecords int
	log        zerolog.Logger

	mu      sync.RWMutex
	current *Model
}

// NewTrainer wires the model lifecycle. minRecords is the labeled-history
// floor below which retraining is skipped.
func NewTrainer(repo *performance.Repository, store ArtifactStore, minRecords int, log zerolog.Logger) *Trainer {
	return &Trainer{
		repo:       repo,
		store:      store,
		minRecords: minRecords,
		log:        log.With().Str("component", "model-trainer").Logger(),
	}
}

// Current returns the live model, or nil when none has been trained yet.
func (t *Trainer) Current() *Model {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Predict scores one feature vector with the live model. Returns false when
// no model is available or the prediction fails; the caller falls back to the
// rule score.
func (t *Trainer) Predict(features []float64) (float64, bool) {
	m := t.Current()
	if m == nil {
		return 0, false
	}
	p, err := m.Predict(features)
	if err != nil {
		t.log.Warn().Err(err).Msg("Model prediction failed")
		return 0, false
	}
	return p, true
}

// LoadFromStore restores the persisted artifact, if any. A missing artifact
// is normal on first boot and is not an error.
func (t *Trainer) LoadFromStore(ctx context.Context) error {
	data, err := t.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			t.log.Info().Msg("No model artifact found, starting without model")
			return nil
		}
		return fmt.Errorf("failed to load model artifact: %w", err)
	}

	m, err := DecodeArtifact(data)
	if err != nil {
		return fmt.Errorf("failed to restore model: %w", err)
	}

	t.mu.Lock()
	t.current = m
	t.mu.Unlock()

	t.log.Info().
		Time("trained_at", m.TrainedAt).
		Int("samples", m.Samples).
		Int("dimension", len(m.Weights)).
		Msg("Model restored from artifact")
	return nil
}

// MaybeRetrain fits a fresh model from labeled selection history when enough
// labels have accumulated, persists the artifact and swaps the live model.
func (t *Trainer) MaybeRetrain(ctx context.Context) error {
	labeled, err := t.repo.CountLabeled()
	if err != nil {
		return fmt.Errorf("failed to count labeled selections: %w", err)
	}
	if labeled < t.minRecords {
		t.log.Debug().
			Int("labeled", labeled).
			Int("required", t.minRecords).
			Msg("Not enough labeled history to retrain")
		return nil
	}

	examples, err := t.repo.TrainingData(trainingBatchLimit)
	if err != nil {
		return fmt.Errorf("failed to load training data: %w", err)
	}
	if len(examples) == 0 {
		return nil
	}

	// Selections written by builds with a different variant set carry a
	// different vector length; train on the dominant dimension only.
	x, y := consistentExamples(examples)
	if len(x) < t.minRecords {
		t.log.Debug().
			Int("usable", len(x)).
			Int("required", t.minRecords).
			Msg("Too few dimension-consistent examples to retrain")
		return nil
	}

	m, err := Train(x, y, DefaultTrainOptions())
	if err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}

	data, err := EncodeArtifact(m)
	if err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}
	if err := t.store.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to persist model artifact: %w", err)
	}

	t.mu.Lock()
	t.current = m
	t.mu.Unlock()

	t.log.Info().
		Int("samples", m.Samples).
		Int("dimension", len(m.Weights)).
		Msg("Model retrained")
	return nil
}

// consistentExamples keeps the examples whose feature dimension is the most
// common one in the batch.
func consistentExamples(examples []performance.LabeledSelection) ([][]float64, []float64) {
	counts := make(map[int]int)
	for _, e := range examples {
		counts[len(e.Features)]++
	}
	dominant, best := 0, 0
	for dim, n := range counts {
		if n > best && dim > 0 {
			dominant, best = dim, n
		}
	}

	x := make([][]float64, 0, best)
	y := make([]float64, 0, best)
	for _, e := range examples {
		if len(e.Features) != dominant {
			continue
		}
		x = append(x, e.Features)
		if e.Won {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return x, y
}
