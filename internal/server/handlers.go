package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/market"
)

// handleHealth returns service liveness plus database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.db.HealthCheck(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Health check database probe failed")
		status = "degraded"
	}
	s.writeJSON(w, map[string]string{"status": status})
}

// handleDecide runs one decision cycle from raw feed input.
// POST /api/decide
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var input market.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if input.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	cond := s.builder.Build(input)
	decision := s.selector.Decide(cond)
	s.writeJSON(w, decision)
}

// handleOutcome ingests a closed-trade outcome: it updates the rolling
// performance record and labels the oldest pending selection for training.
// POST /api/outcomes
func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	var outcome domain.TradeOutcome
	if err := json.NewDecoder(r.Body).Decode(&outcome); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if outcome.Variant == "" {
		http.Error(w, "variant is required", http.StatusBadRequest)
		return
	}
	if _, ok := s.registry.Get(outcome.Variant); !ok {
		http.Error(w, "unknown variant: "+outcome.Variant, http.StatusNotFound)
		return
	}
	if outcome.ClosedAt.IsZero() {
		outcome.ClosedAt = time.Now().UTC()
	}

	s.store.RecordOutcome(outcome.Variant, outcome.ReturnPct, outcome.Won)

	if s.repo != nil {
		if err := s.repo.LabelOldestSelection(outcome.Variant, outcome.Won); err != nil {
			s.log.Warn().Err(err).Str("variant", outcome.Variant).Msg("Failed to label selection history")
		}
	}

	snap, _ := s.store.Snapshot(outcome.Variant)
	s.writeJSON(w, snap)
}

// variantInfo is one registry entry with its elimination state.
type variantInfo struct {
	Name          string  `json:"name"`
	MinLegs       int     `json:"min_legs"`
	MaxLegs       int     `json:"max_legs"`
	BandMin       float64 `json:"band_min"`
	BandMax       float64 `json:"band_max"`
	HedgeRequired bool    `json:"hedge_required"`
	Directional   bool    `json:"directional"`
	RiskFactor    float64 `json:"risk_factor"`
	Eliminated    bool    `json:"eliminated"`
	ElimReason    string  `json:"elimination_reason,omitempty"`
}

// handleVariants lists every registered variant with its status.
// GET /api/variants
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	elimReasons := make(map[string]string)
	for _, e := range s.elims.List() {
		elimReasons[e.Variant] = e.Reason
	}

	out := make([]variantInfo, 0, s.registry.Len())
	for _, v := range s.registry.All() {
		p := v.Profile()
		reason, eliminated := elimReasons[p.Name]
		out = append(out, variantInfo{
			Name:          p.Name,
			MinLegs:       p.MinLegs,
			MaxLegs:       p.MaxLegs,
			BandMin:       p.Band.Min,
			BandMax:       p.Band.Max,
			HedgeRequired: p.HedgeRequired,
			Directional:   p.Directional,
			RiskFactor:    p.RiskFactor,
			Eliminated:    eliminated,
			ElimReason:    reason,
		})
	}
	s.writeJSON(w, out)
}

// handlePerformance returns the current per-variant snapshots.
// GET /api/performance
func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.SnapshotAll())
}

// handleListEliminations returns the active elimination set.
// GET /api/eliminations
func (s *Server) handleListEliminations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.elims.List())
}

// suppressRequest is the operator suppression payload.
type suppressRequest struct {
	Variant string `json:"variant"`
	Reason  string `json:"reason"`
}

// handleSuppress manually eliminates a variant.
// POST /api/eliminations
func (s *Server) handleSuppress(w http.ResponseWriter, r *http.Request) {
	var req suppressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Variant == "" {
		http.Error(w, "variant is required", http.StatusBadRequest)
		return
	}
	if _, ok := s.registry.Get(req.Variant); !ok {
		http.Error(w, "unknown variant: "+req.Variant, http.StatusNotFound)
		return
	}
	if req.Reason == "" {
		req.Reason = "manually suppressed"
	}

	s.calibrator.Suppress(req.Variant, req.Reason)
	s.writeJSON(w, map[string]string{"status": "suppressed", "variant": req.Variant})
}

// handleOverride lifts an elimination.
// DELETE /api/eliminations/{variant}
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	if !s.calibrator.Override(variant) {
		http.Error(w, "variant is not eliminated: "+variant, http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]string{"status": "overridden", "variant": variant})
}

// handleCalibrate triggers an immediate calibration pass.
// POST /api/calibrate
func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	eliminated := s.calibrator.Calibrate(r.Context())
	s.writeJSON(w, map[string]interface{}{
		"eliminated": eliminated,
		"ran_at":     s.calibrator.LastRun().Format(time.RFC3339),
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
