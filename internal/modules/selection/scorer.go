package selection

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/config"
	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/model"
	"github.com/quantroll/stratagem/internal/modules/performance"
	"github.com/quantroll/stratagem/internal/modules/selection/scorers"
	"github.com/quantroll/stratagem/internal/modules/strategies"
	"github.com/quantroll/stratagem/pkg/formulas"
)

// Predictor supplies the optional learned win probability. ok=false means no
// model is available and the rule score stands alone.
type Predictor interface {
	Predict(features []float64) (float64, bool)
}

// Scorer produces the composite candidate score: a weighted rule score over
// four dimensions, optionally blended with a learned win probability.
type Scorer struct {
	weights      map[string]float64
	ruleWeight   float64
	modelWeight  float64
	performance  scorers.Performance
	conditionFit scorers.ConditionFit
	riskAdjusted scorers.RiskAdjusted
	volMatch     scorers.VolMatch
	predictor    Predictor // optional
	log          zerolog.Logger

	// Stable variant indexing for the model's one-hot encoding. Fixed at
	// construction; a per-cycle index would scramble the encoding between
	// training and prediction.
	variantIndex map[string]int
	variantCount int
}

// NewScorer builds the scorer from selection configuration. registryNames is
// the full sorted variant list; predictor may be nil to disable blending.
func NewScorer(cfg config.SelectionConfig, registryNames []string, predictor Predictor, log zerolog.Logger) *Scorer {
	index := make(map[string]int, len(registryNames))
	for i, name := range registryNames {
		index[name] = i
	}
	return &Scorer{
		weights: map[string]float64{
			ComponentPerformance:  cfg.WeightPerformance,
			ComponentConditionFit: cfg.WeightConditionFit,
			ComponentRiskAdjusted: cfg.WeightRiskAdjusted,
			ComponentVolMatch:     cfg.WeightVolMatch,
		},
		ruleWeight:   cfg.BlendRuleWeight,
		modelWeight:  cfg.BlendModelWeight,
		performance:  scorers.DefaultPerformance(cfg.MinTradesForStats),
		predictor:    predictor,
		log:          log.With().Str("component", "scorer").Logger(),
		variantIndex: index,
		variantCount: len(registryNames),
	}
}

// FeaturesFor builds the model feature vector for one (conditions, variant)
// pair using the scorer's stable variant indexing.
func (s *Scorer) FeaturesFor(cond domain.MarketConditions, variant string) []float64 {
	idx, ok := s.variantIndex[variant]
	if !ok {
		idx = -1
	}
	return model.BuildFeatures(cond, idx, s.variantCount)
}

// ScoreAll scores every candidate and returns them sorted by score
// descending, name ascending on ties.
func (s *Scorer) ScoreAll(
	candidates []strategies.Variant,
	cond domain.MarketConditions,
	snapshots map[string]performance.Snapshot,
) []CandidateScore {
	scored := make([]CandidateScore, 0, len(candidates))
	for _, v := range candidates {
		scored = append(scored, s.score(v, cond, snapshots))
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		ri, rj := reasonRank(scored[i].Reason), reasonRank(scored[j].Reason)
		if ri != rj {
			return ri < rj
		}
		return scored[i].Variant < scored[j].Variant
	})
	return scored
}

func (s *Scorer) score(
	v strategies.Variant,
	cond domain.MarketConditions,
	snapshots map[string]performance.Snapshot,
) CandidateScore {
	profile := v.Profile()

	var snap *performance.Snapshot
	if sn, ok := snapshots[v.Name()]; ok {
		snap = &sn
	}

	components := map[string]float64{
		ComponentPerformance:  s.performance.Score(snap),
		ComponentConditionFit: s.conditionFit.Score(profile, cond),
		ComponentRiskAdjusted: s.riskAdjusted.Score(profile, cond),
		ComponentVolMatch:     s.volMatch.Score(profile, cond),
	}

	rule := 0.0
	for component, weight := range s.weights {
		rule += weight * components[component]
	}

	final := rule
	if s.predictor != nil {
		features := s.FeaturesFor(cond, v.Name())
		if p, ok := s.predictor.Predict(features); ok {
			components[ComponentModel] = formulas.Round4(p)
			final = s.ruleWeight*rule + s.modelWeight*p
		}
	}

	return CandidateScore{
		Variant:    v.Name(),
		Score:      formulas.Round4(formulas.Clamp01(final)),
		Reason:     reasonFor(components, s.weights),
		Components: components,
	}
}
