package market

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantroll/stratagem/internal/domain"
)

type stubCalendar struct {
	events []domain.CalendarEvent
	err    error
}

func (s *stubCalendar) ShouldAvoidTradingToday(string) (bool, string, error) {
	return false, "", nil
}

func (s *stubCalendar) UpcomingEvents(time.Duration) ([]domain.CalendarEvent, error) {
	return s.events, s.err
}

type stubDanger struct {
	status domain.DangerStatus
	err    error
}

func (s *stubDanger) CurrentStatus(string) (domain.DangerStatus, error) {
	return s.status, s.err
}

type stubExpiry struct {
	dte      int
	isExpiry bool
	err      error
}

func (s *stubExpiry) IsExpiryDay(string) (bool, error) { return s.isExpiry, s.err }
func (s *stubExpiry) DaysToExpiry(string) (int, error) { return s.dte, s.err }

func climbingCloses(n int, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 24000 + float64(i)*step
	}
	return closes
}

func TestBuildDerivesTrendFromCloses(t *testing.T) {
	b := NewBuilder(nil, nil, nil, zerolog.Nop())

	cond := b.Build(Input{
		Symbol:          "NIFTY",
		Spot:            25000,
		VolatilityIndex: 18,
		IVRank:          50,
		Closes:          climbingCloses(60, 40),
	})

	assert.Equal(t, "NIFTY", cond.Symbol)
	assert.Equal(t, domain.BiasBullish, cond.Bias)
	assert.Greater(t, cond.TrendStrength, 0.3)
	assert.False(t, cond.Timestamp.IsZero())
}

func TestBuildFallsBackToOverrides(t *testing.T) {
	b := NewBuilder(nil, nil, nil, zerolog.Nop())

	trend := 0.6
	dte := 12
	cond := b.Build(Input{
		Symbol:          "BANKNIFTY",
		Spot:            52000,
		VolatilityIndex: 16,
		Closes:          climbingCloses(10, 40), // too short to derive anything
		TrendStrength:   &trend,
		Bias:            domain.BiasBearish,
		DaysToExpiry:    &dte,
	})

	assert.Equal(t, 0.6, cond.TrendStrength)
	assert.Equal(t, domain.BiasBearish, cond.Bias)
	assert.Equal(t, 12, cond.DaysToExpiry)
}

func TestBuildDefaultsToNeutralBias(t *testing.T) {
	b := NewBuilder(nil, nil, nil, zerolog.Nop())

	cond := b.Build(Input{Symbol: "NIFTY", Spot: 25000, VolatilityIndex: 18})
	assert.Equal(t, domain.BiasNeutral, cond.Bias)
	assert.Zero(t, cond.TrendStrength)
}

func TestBuildPrefersExpiryCollaborator(t *testing.T) {
	dte := 30
	b := NewBuilder(nil, nil, &stubExpiry{dte: 4, isExpiry: false}, zerolog.Nop())

	cond := b.Build(Input{
		Symbol:          "NIFTY",
		Spot:            25000,
		VolatilityIndex: 18,
		DaysToExpiry:    &dte,
	})

	assert.Equal(t, 4, cond.DaysToExpiry, "collaborator answer wins over override")
	assert.False(t, cond.IsExpiryDay)
}

func TestBuildSurvivesCollaboratorFailure(t *testing.T) {
	dte := 9
	b := NewBuilder(
		&stubCalendar{err: errors.New("feed down")},
		&stubDanger{err: errors.New("feed down")},
		&stubExpiry{err: errors.New("feed down")},
		zerolog.Nop(),
	)

	var cond domain.MarketConditions
	require.NotPanics(t, func() {
		cond = b.Build(Input{
			Symbol:          "NIFTY",
			Spot:            25000,
			VolatilityIndex: 18,
			DaysToExpiry:    &dte,
		})
	})

	assert.Equal(t, 9, cond.DaysToExpiry, "override fills in when the lookup fails")
	assert.Empty(t, cond.Events)
}

func TestBuildCarriesIndexMove(t *testing.T) {
	t.Run("danger-zone collaborator answer wins", func(t *testing.T) {
		override := 0.4
		b := NewBuilder(nil, &stubDanger{status: domain.DangerStatus{Level: domain.DangerRisk, ChangePct: -1.8}}, nil, zerolog.Nop())

		cond := b.Build(Input{
			Symbol:          "NIFTY",
			Spot:            25000,
			VolatilityIndex: 18,
			IndexChangePct:  &override,
		})
		assert.Equal(t, -1.8, cond.IndexChangePct)
	})

	t.Run("failed lookup falls back to the override", func(t *testing.T) {
		override := -1.1
		b := NewBuilder(nil, &stubDanger{err: errors.New("feed down")}, nil, zerolog.Nop())

		cond := b.Build(Input{
			Symbol:          "NIFTY",
			Spot:            25000,
			VolatilityIndex: 18,
			IndexChangePct:  &override,
		})
		assert.Equal(t, -1.1, cond.IndexChangePct)
	})
}

func TestBuildKeepsZeroDTEFromCollaborator(t *testing.T) {
	// Zero days to expiry is the real answer on expiry day; the caller's
	// override must not displace it.
	override := 9
	b := NewBuilder(nil, nil, &stubExpiry{dte: 0, isExpiry: true}, zerolog.Nop())

	cond := b.Build(Input{
		Symbol:          "NIFTY",
		Spot:            25000,
		VolatilityIndex: 18,
		DaysToExpiry:    &override,
	})

	assert.Zero(t, cond.DaysToExpiry)
	assert.True(t, cond.IsExpiryDay)
}

func TestBuildAttachesCalendarEvents(t *testing.T) {
	events := []domain.CalendarEvent{
		{Name: "RBI policy", Date: time.Now().Add(48 * time.Hour), Impact: "HIGH"},
	}
	b := NewBuilder(&stubCalendar{events: events}, nil, nil, zerolog.Nop())

	cond := b.Build(Input{Symbol: "NIFTY", Spot: 25000, VolatilityIndex: 18})
	require.Len(t, cond.Events, 1)
	assert.Equal(t, "RBI policy", cond.Events[0].Name)
}
