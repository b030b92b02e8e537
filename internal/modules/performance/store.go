package performance

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store is the in-memory rolling performance state, keyed by variant.
// Outcome ingestion and calibration both mutate it; decision cycles read it
// through point-in-time snapshots. All access goes through the RWMutex.
type Store struct {
	mu         sync.RWMutex
	records    map[string]*Record
	windowSize int
	repo       *Repository // optional write-through persistence
	log        zerolog.Logger
}

// NewStore creates a performance store with the given rolling-window cap.
// repo may be nil (tests, ephemeral runs); when set, outcomes are persisted
// write-through and existing records are loaded on construction.
func NewStore(windowSize int, repo *Repository, log zerolog.Logger) *Store {
	s := &Store{
		records:    make(map[string]*Record),
		windowSize: windowSize,
		repo:       repo,
		log:        log.With().Str("component", "performance_store").Logger(),
	}

	if repo != nil {
		records, err := repo.LoadRecords(windowSize)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to load performance records, starting empty")
		} else {
			for _, r := range records {
				s.records[r.Variant] = r
			}
			s.log.Info().Int("variants", len(records)).Msg("Performance records loaded")
		}
	}

	return s
}

// RecordOutcome appends one realized trade outcome to the variant's rolling
// window and recomputes its derived stats.
func (s *Store) RecordOutcome(variant string, returnPct float64, won bool) {
	s.mu.Lock()
	rec, ok := s.records[variant]
	if !ok {
		rec = &Record{Variant: variant}
		s.records[variant] = rec
	}

	rec.Trades++
	if won {
		rec.Wins++
	}
	rec.CumulativeReturn += returnPct
	rec.Window = append(rec.Window, returnPct)
	if len(rec.Window) > s.windowSize {
		rec.Window = rec.Window[len(rec.Window)-s.windowSize:]
	}
	rec.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.InsertOutcome(variant, returnPct, won); err != nil {
			s.log.Error().Err(err).Str("variant", variant).Msg("Failed to persist outcome")
		}
	}

	s.log.Debug().
		Str("variant", variant).
		Float64("return_pct", returnPct).
		Bool("won", won).
		Msg("Outcome recorded")
}

// Snapshot returns the point-in-time stats for one variant, or false when it
// has no history yet.
func (s *Store) Snapshot(variant string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[variant]
	if !ok {
		return Snapshot{}, false
	}
	return rec.snapshot(), true
}

// SnapshotAll returns a consistent point-in-time view of every variant's
// stats, taken under a single read lock.
func (s *Store) SnapshotAll() map[string]Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Snapshot, len(s.records))
	for name, rec := range s.records {
		out[name] = rec.snapshot()
	}
	return out
}

// Variants returns the sorted names with recorded history.
func (s *Store) Variants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
