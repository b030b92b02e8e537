// Package market assembles the per-cycle MarketConditions snapshot from raw
// feed inputs and the calendar/expiry collaborators.
package market

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/pkg/formulas"
)

// eventWindow is how far ahead calendar events are attached to a snapshot.
const eventWindow = 7 * 24 * time.Hour

// Input is the raw per-cycle feed data the builder derives a snapshot from.
// Closes is the recent close-price history, oldest first; Bias and
// TrendStrength are derived from it when present.
type Input struct {
	Symbol          string    `json:"symbol"`
	Spot            float64   `json:"spot"`
	VolatilityIndex float64   `json:"volatility_index"`
	IVRank          float64   `json:"iv_rank"`
	Closes          []float64 `json:"closes,omitempty"`
	VolumeSurge     bool      `json:"volume_surge"`

	// Optional overrides for callers that compute these upstream. When
	// Closes is too short (or a collaborator is absent) these are the only
	// source.
	TrendStrength  *float64               `json:"trend_strength,omitempty"`
	Bias           domain.DirectionalBias `json:"bias,omitempty"`
	DaysToExpiry   *int                   `json:"days_to_expiry,omitempty"`
	IndexChangePct *float64               `json:"index_change_pct,omitempty"`
}

// Builder produces MarketConditions snapshots. Collaborators may be nil; the
// snapshot then relies on input overrides and carries no events.
type Builder struct {
	calendar domain.CalendarSource
	danger   domain.DangerZoneSource
	expiry   domain.ExpirySource
	log      zerolog.Logger
}

// NewBuilder creates a conditions builder.
func NewBuilder(calendar domain.CalendarSource, danger domain.DangerZoneSource, expiry domain.ExpirySource, log zerolog.Logger) *Builder {
	return &Builder{
		calendar: calendar,
		danger:   danger,
		expiry:   expiry,
		log:      log.With().Str("component", "conditions-builder").Logger(),
	}
}

// Build assembles one immutable snapshot. Missing collaborator answers are
// logged and defaulted; a snapshot is always produced.
func (b *Builder) Build(in Input) domain.MarketConditions {
	cond := domain.MarketConditions{
		Timestamp:       time.Now().UTC(),
		Symbol:          in.Symbol,
		Spot:            in.Spot,
		VolatilityIndex: in.VolatilityIndex,
		IVRank:          in.IVRank,
		VolumeSurge:     in.VolumeSurge,
		Bias:            domain.BiasNeutral,
	}

	b.applyTrend(&cond, in)
	b.applyIndexMove(&cond, in)
	b.applyExpiry(&cond, in)
	b.applyEvents(&cond)

	return cond
}

func (b *Builder) applyTrend(cond *domain.MarketConditions, in Input) {
	if strength := formulas.TrendStrength(in.Closes); strength != nil {
		cond.TrendStrength = *strength
		switch formulas.TrendDirection(in.Closes) {
		case 1:
			cond.Bias = domain.BiasBullish
		case -1:
			cond.Bias = domain.BiasBearish
		}
		return
	}

	// Not enough history; fall back to caller-supplied values.
	if in.TrendStrength != nil {
		cond.TrendStrength = *in.TrendStrength
	}
	if in.Bias != "" {
		cond.Bias = in.Bias
	}
}

func (b *Builder) applyIndexMove(cond *domain.MarketConditions, in Input) {
	if b.danger != nil {
		status, err := b.danger.CurrentStatus(in.Symbol)
		if err == nil {
			cond.IndexChangePct = status.ChangePct
			return
		}
		b.log.Warn().Err(err).Str("symbol", in.Symbol).Msg("Danger-zone lookup failed")
	}
	if in.IndexChangePct != nil {
		cond.IndexChangePct = *in.IndexChangePct
	}
}

func (b *Builder) applyExpiry(cond *domain.MarketConditions, in Input) {
	answered := false
	if b.expiry != nil {
		if dte, err := b.expiry.DaysToExpiry(in.Symbol); err == nil {
			// Zero is a real answer on expiry day; do not fall through to
			// the override.
			cond.DaysToExpiry = dte
			answered = true
		} else {
			b.log.Warn().Err(err).Str("symbol", in.Symbol).Msg("Days-to-expiry lookup failed")
		}
		if isExpiry, err := b.expiry.IsExpiryDay(in.Symbol); err == nil {
			cond.IsExpiryDay = isExpiry
		} else {
			b.log.Warn().Err(err).Str("symbol", in.Symbol).Msg("Expiry-day lookup failed")
		}
	}

	if !answered && in.DaysToExpiry != nil {
		cond.DaysToExpiry = *in.DaysToExpiry
	}
}

func (b *Builder) applyEvents(cond *domain.MarketConditions) {
	if b.calendar == nil {
		return
	}
	events, err := b.calendar.UpcomingEvents(eventWindow)
	if err != nil {
		b.log.Warn().Err(err).Str("symbol", cond.Symbol).Msg("Calendar events lookup failed")
		return
	}
	cond.Events = events
}
