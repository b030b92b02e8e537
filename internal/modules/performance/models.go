// Package performance tracks per-variant realized outcomes and owns the
// elimination lifecycle that suppresses persistent underperformers.
package performance

import (
	"time"

	"github.com/quantroll/stratagem/pkg/formulas"
)

// Record holds the mutable rolling statistics for one variant. Mutated only
// on trade-outcome ingestion, always under the store's lock.
type Record struct {
	Variant          string    `json:"variant"`
	Trades           int       `json:"trades"`
	Wins             int       `json:"wins"`
	CumulativeReturn float64   `json:"cumulative_return"`
	Window           []float64 `json:"window"` // bounded rolling returns
	UpdatedAt        time.Time `json:"updated_at"`
}

// Snapshot is a point-in-time, immutable view of a Record's derived stats.
// A decision cycle takes snapshots once at cycle start so concurrent outcome
// ingestion can never show it a half-updated record.
type Snapshot struct {
	Variant     string    `json:"variant"`
	Trades      int       `json:"trades"`
	Wins        int       `json:"wins"`
	WinRate     float64   `json:"win_rate"`
	AvgReturn   float64   `json:"avg_return"`
	Consistency float64   `json:"consistency"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// snapshot derives the Snapshot for a record. Caller holds the store lock.
func (r *Record) snapshot() Snapshot {
	s := Snapshot{
		Variant:   r.Variant,
		Trades:    r.Trades,
		Wins:      r.Wins,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Trades > 0 {
		s.WinRate = float64(r.Wins) / float64(r.Trades)
	}
	if len(r.Window) > 0 {
		s.AvgReturn = formulas.Mean(r.Window)
	}
	s.Consistency = formulas.Consistency(r.Window)
	return s
}
