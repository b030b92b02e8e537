package selection

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/gate"
	"github.com/quantroll/stratagem/internal/modules/performance"
	"github.com/quantroll/stratagem/internal/modules/strategies"
)

// Decision is the outcome of one cycle. Signal is nil on "no decision";
// NoDecisionReason then explains why. Scores carries the full ranked
// breakdown for diagnostics.
type Decision struct {
	Signal           *domain.StrategySignal `json:"signal,omitempty"`
	NoDecisionReason string                 `json:"no_decision_reason,omitempty"`
	Scores           []CandidateScore       `json:"scores,omitempty"`
}

// Selector orchestrates one decision cycle per call. Cycles for the same
// symbol are serialized; different symbols run concurrently.
type Selector struct {
	gate   *gate.Gate
	filter *Filter
	scorer *Scorer
	store  *performance.Store
	repo   *performance.Repository // optional, selection history
	sink   domain.SignalSink       // optional
	limits strategies.Limits
	log    zerolog.Logger

	mu       sync.Mutex
	bySymbol map[string]*sync.Mutex
}

// NewSelector wires the decision cycle. repo and sink may be nil.
func NewSelector(
	g *gate.Gate,
	filter *Filter,
	scorer *Scorer,
	store *performance.Store,
	repo *performance.Repository,
	sink domain.SignalSink,
	limits strategies.Limits,
	log zerolog.Logger,
) *Selector {
	return &Selector{
		gate:     g,
		filter:   filter,
		scorer:   scorer,
		store:    store,
		repo:     repo,
		sink:     sink,
		limits:   limits,
		log:      log.With().Str("component", "selector").Logger(),
		bySymbol: make(map[string]*sync.Mutex),
	}
}

// Decide runs one cycle for the conditions snapshot. It returns a Decision
// value in every non-panicking path; an internal panic is converted to a
// no-decision outcome so the caller never sees it.
func (s *Selector) Decide(cond domain.MarketConditions) (decision Decision) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().
				Interface("panic", p).
				Str("symbol", cond.Symbol).
				Msg("Decision cycle panicked")
			decision = Decision{NoDecisionReason: "internal failure during decision cycle"}
		}
	}()

	lock := s.symbolLock(cond.Symbol)
	lock.Lock()
	defer lock.Unlock()

	verdict := s.gate.Check(cond.Symbol)
	if !verdict.Allowed {
		s.log.Info().
			Str("symbol", cond.Symbol).
			Str("reason", verdict.Reason).
			Msg("Market gate blocked entry")
		return Decision{NoDecisionReason: verdict.Reason}
	}

	candidates := s.filter.Candidates(cond, s.limits, verdict.ConservativeOnly)
	if len(candidates) == 0 {
		return Decision{NoDecisionReason: "no viable variant for current conditions"}
	}

	// One snapshot set per cycle; concurrent outcome ingestion cannot
	// change the ranking mid-cycle.
	snapshots := s.store.SnapshotAll()
	scored := s.scorer.ScoreAll(candidates, cond, snapshots)
	top := scored[0]

	variant, ok := candidateByName(candidates, top.Variant)
	if !ok {
		return Decision{NoDecisionReason: "top candidate vanished mid-cycle", Scores: scored}
	}
	profile := variant.Profile()

	signal := domain.StrategySignal{
		ID:             uuid.NewString(),
		Variant:        top.Variant,
		Symbol:         cond.Symbol,
		Bias:           cond.Bias,
		Confidence:     top.Score,
		Reason:         top.Reason,
		ExpectedReturn: profile.RewardFactor,
		RiskEstimate:   profile.RiskFactor,
		GeneratedAt:    time.Now().UTC(),
	}

	s.recordSelection(cond, top.Variant)

	s.log.Info().
		Str("symbol", cond.Symbol).
		Str("variant", top.Variant).
		Float64("confidence", top.Score).
		Str("reason", top.Reason).
		Int("candidates", len(candidates)).
		Msg("Strategy selected")

	if s.sink != nil {
		s.sink.Publish(signal)
	}

	return Decision{Signal: &signal, Scores: scored}
}

// GenerateOrders builds and validates the order set for an emitted signal.
// Structural violations surface as *domain.ValidationError.
func (s *Selector) GenerateOrders(signal domain.StrategySignal, variant strategies.Variant, sizing strategies.Sizing) (domain.OrderSet, error) {
	set, err := variant.GenerateOrders(signal, sizing)
	if err != nil {
		return domain.OrderSet{}, fmt.Errorf("order generation for %s failed: %w", signal.Variant, err)
	}
	return set, nil
}

// recordSelection appends the selection to history for later outcome
// labeling. History failures are logged, never surfaced.
func (s *Selector) recordSelection(cond domain.MarketConditions, variant string) {
	if s.repo == nil {
		return
	}
	features := s.scorer.FeaturesFor(cond, variant)
	if err := s.repo.InsertSelection(variant, features); err != nil {
		s.log.Warn().Err(err).Str("variant", variant).Msg("Failed to record selection history")
	}
}

func (s *Selector) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.bySymbol[symbol]
	if !ok {
		lock = &sync.Mutex{}
		s.bySymbol[symbol] = lock
	}
	return lock
}

func candidateByName(candidates []strategies.Variant, name string) (strategies.Variant, bool) {
	for _, v := range candidates {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}
