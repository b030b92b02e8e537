// Package domain provides core domain models and types.
package domain

import "time"

// DirectionalBias represents the prevailing market direction
type DirectionalBias string

const (
	BiasBullish DirectionalBias = "BULLISH"
	BiasBearish DirectionalBias = "BEARISH"
	BiasNeutral DirectionalBias = "NEUTRAL"
)

// VolatilityClass buckets the volatility regime a structure is built for
type VolatilityClass string

const (
	VolClassLow      VolatilityClass = "LOW"
	VolClassModerate VolatilityClass = "MODERATE"
	VolClassHigh     VolatilityClass = "HIGH"
	VolClassExtreme  VolatilityClass = "EXTREME"
)

// ClassifyVolatility maps a volatility index reading and IV rank to a class.
// IV rank promotes one bucket when the option market is pricing richer
// volatility than the index level alone suggests.
func ClassifyVolatility(vix, ivRank float64) VolatilityClass {
	var class VolatilityClass
	switch {
	case vix < 14:
		class = VolClassLow
	case vix < 20:
		class = VolClassModerate
	case vix < 28:
		class = VolClassHigh
	default:
		class = VolClassExtreme
	}

	if ivRank >= 75 {
		switch class {
		case VolClassLow:
			class = VolClassModerate
		case VolClassModerate:
			class = VolClassHigh
		}
	}

	return class
}

// DangerLevel classifies intraday index-move severity
type DangerLevel string

const (
	DangerNormal    DangerLevel = "NORMAL"
	DangerCaution   DangerLevel = "CAUTION"
	DangerRisk      DangerLevel = "RISK"
	DangerCritical  DangerLevel = "CRITICAL"
	DangerEmergency DangerLevel = "EMERGENCY"
)

// DangerStatus is the danger-zone collaborator's answer for one symbol
type DangerStatus struct {
	Level     DangerLevel `json:"level"`
	ChangePct float64     `json:"change_pct"`
}

// CalendarEvent represents one scheduled market event
type CalendarEvent struct {
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Impact string    `json:"impact"` // LOW, MEDIUM, HIGH
}

// MarketConditions is one immutable snapshot per decision cycle.
// Created per cycle, discarded after use.
type MarketConditions struct {
	Timestamp       time.Time       `json:"timestamp"`
	Symbol          string          `json:"symbol"`
	Spot            float64         `json:"spot"`
	VolatilityIndex float64         `json:"volatility_index"`
	TrendStrength   float64         `json:"trend_strength"`   // [0,1]
	Bias            DirectionalBias `json:"bias"`
	IndexChangePct  float64         `json:"index_change_pct"` // intraday index move, signed
	IVRank          float64         `json:"iv_rank"`          // [0,100]
	DaysToExpiry    int             `json:"days_to_expiry"`
	Events          []CalendarEvent `json:"events,omitempty"`
	IsExpiryDay     bool            `json:"is_expiry_day"`
	VolumeSurge     bool            `json:"volume_surge"`
}

// VolatilityClassification returns the volatility class for this snapshot.
func (c MarketConditions) VolatilityClassification() VolatilityClass {
	return ClassifyVolatility(c.VolatilityIndex, c.IVRank)
}

// StrategySignal is the output of a successful decision cycle.
// Produced, consumed downstream, never mutated.
type StrategySignal struct {
	ID             string          `json:"id"`
	Variant        string          `json:"variant"`
	Symbol         string          `json:"symbol"`
	Bias           DirectionalBias `json:"bias"`
	Confidence     float64         `json:"confidence"`
	Reason         string          `json:"reason"`
	ExpectedReturn float64         `json:"expected_return"`
	RiskEstimate   float64         `json:"risk_estimate"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// TradeOutcome is pushed by the execution/settlement collaborator when a
// position closes.
type TradeOutcome struct {
	Variant   string    `json:"variant"`
	ReturnPct float64   `json:"return_pct"`
	Won       bool      `json:"won"`
	ClosedAt  time.Time `json:"closed_at"`
}
