package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantroll/stratagem/internal/config"
	"github.com/quantroll/stratagem/internal/database"
	"github.com/quantroll/stratagem/internal/modules/gate"
	"github.com/quantroll/stratagem/internal/modules/market"
	"github.com/quantroll/stratagem/internal/modules/model"
	"github.com/quantroll/stratagem/internal/modules/performance"
	"github.com/quantroll/stratagem/internal/modules/selection"
	"github.com/quantroll/stratagem/internal/modules/strategies"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.Nop()
	whitelist := []string{"NIFTY", "BANKNIFTY"}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "performance.db"),
		Profile: database.ProfileStandard,
		Name:    "server-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := performance.NewRepository(db)
	require.NoError(t, err)

	store := performance.NewStore(100, repo, log)
	elims := performance.NewEliminationSet()
	trainer := model.NewTrainer(repo, model.NewFileStore(t.TempDir()), 50, log)
	calibrator := performance.NewCalibrator(store, elims, repo, trainer, performance.Thresholds{
		MinTrades:      10,
		MinWinRate:     0.30,
		MinAvgReturn:   -0.05,
		MinConsistency: 0.20,
	}, log)

	registry := strategies.NewDefaultRegistry(whitelist)
	selCfg := config.SelectionConfig{
		WeightPerformance:  0.4,
		WeightConditionFit: 0.3,
		WeightRiskAdjusted: 0.2,
		WeightVolMatch:     0.1,
		BlendRuleWeight:    0.7,
		BlendModelWeight:   0.3,
		MinTradesForStats:  10,
		WindowSize:         100,
	}

	g := gate.New(whitelist, nil, nil, nil, 0, log)
	filter := selection.NewFilter(registry, elims, log)
	scorer := selection.NewScorer(selCfg, registry.Names(), trainer, log)
	selector := selection.NewSelector(g, filter, scorer, store, repo, nil, strategies.Limits{}, log)

	return New(Config{
		Port:       0,
		Log:        log,
		Cfg:        &config.Config{Selection: selCfg},
		DB:         db,
		Registry:   registry,
		Builder:    market.NewBuilder(nil, nil, nil, log),
		Selector:   selector,
		Store:      store,
		Repo:       repo,
		Elims:      elims,
		Calibrator: calibrator,
		Trainer:    trainer,
		Scheduler:  nil,
		Signals:    NewSignalHub(log),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestDecideEndpoint(t *testing.T) {
	s := testServer(t)

	dte := 20
	rec := doJSON(t, s, http.MethodPost, "/api/decide", map[string]interface{}{
		"symbol":           "NIFTY",
		"spot":             25000,
		"volatility_index": 18,
		"iv_rank":          50,
		"days_to_expiry":   dte,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var decision selection.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	require.NotNil(t, decision.Signal)
	assert.Equal(t, "NIFTY", decision.Signal.Symbol)
	assert.NotEmpty(t, decision.Scores)
}

func TestDecideEndpointRequiresSymbol(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/decide", map[string]interface{}{
		"spot": 25000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecideEndpointNonWhitelistedIsNoDecision(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/decide", map[string]interface{}{
		"symbol":           "FINNIFTY",
		"spot":             22000,
		"volatility_index": 18,
	})
	require.Equal(t, http.StatusOK, rec.Code, "a blocked instrument is a decision outcome, not an HTTP failure")

	var decision selection.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Nil(t, decision.Signal)
	assert.Contains(t, decision.NoDecisionReason, "liquidity whitelist")
}

func TestOutcomeEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/outcomes", map[string]interface{}{
		"variant":    "IRON_CONDOR",
		"return_pct": 0.025,
		"won":        true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var snap performance.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "IRON_CONDOR", snap.Variant)
	assert.Equal(t, 1, snap.Trades)
	assert.Equal(t, 1, snap.Wins)
}

func TestOutcomeEndpointUnknownVariant(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/outcomes", map[string]interface{}{
		"variant": "CALENDAR_SPREAD",
		"won":     false,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVariantsEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/variants/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var variants []variantInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &variants))
	require.Len(t, variants, 5)
	for _, v := range variants {
		assert.False(t, v.Eliminated)
		assert.Positive(t, v.RiskFactor)
	}
}

func TestSuppressAndOverride(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/eliminations/", map[string]interface{}{
		"variant": "RATIO_SPREAD",
		"reason":  "operator hold during expiry week",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/eliminations/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []performance.Elimination
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "RATIO_SPREAD", entries[0].Variant)

	rec = doJSON(t, s, http.MethodDelete, "/api/eliminations/RATIO_SPREAD", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/eliminations/RATIO_SPREAD", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "lifting twice is a miss")
}

func TestSuppressUnknownVariant(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/eliminations/", map[string]interface{}{
		"variant": "BUTTERFLY",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalibrateEndpoint(t *testing.T) {
	s := testServer(t)

	for i := 0; i < 12; i++ {
		s.store.RecordOutcome("IRON_FLY", -0.08, false)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/calibrate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Eliminated []string `json:"eliminated"`
		RanAt      string   `json:"ran_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Eliminated, "IRON_FLY")
	assert.NotEmpty(t, resp.RanAt)
}

func TestSystemStatusEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/system/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Variants)
	assert.Zero(t, resp.Eliminated)
	assert.Zero(t, resp.StreamClients)
}
