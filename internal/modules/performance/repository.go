package performance

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantroll/stratagem/internal/database"
)

// Repository persists outcomes, eliminations and selection history to the
// performance database so calibration state survives restarts.
type Repository struct {
	db *database.DB
}

// LabeledSelection is one selection-history row whose outcome is known;
// the training set for the learned model.
type LabeledSelection struct {
	Variant  string
	Features []float64
	Won      bool
}

const performanceSchema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	variant TEXT NOT NULL,
	return_pct REAL NOT NULL,
	won INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_variant ON outcomes(variant, id);

CREATE TABLE IF NOT EXISTS eliminations (
	variant TEXT PRIMARY KEY,
	reason TEXT NOT NULL,
	eliminated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS selections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	variant TEXT NOT NULL,
	features TEXT NOT NULL,
	won INTEGER,
	created_at TEXT NOT NULL,
	labeled_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_selections_variant ON selections(variant, id);

CREATE TABLE IF NOT EXISTS calibrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ran_at TEXT NOT NULL,
	eliminated INTEGER NOT NULL
);
`

// NewRepository creates the repository and ensures the schema exists.
func NewRepository(db *database.DB) (*Repository, error) {
	if _, err := db.Exec(performanceSchema); err != nil {
		return nil, fmt.Errorf("failed to apply performance schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// InsertOutcome appends one realized trade outcome.
func (r *Repository) InsertOutcome(variant string, returnPct float64, won bool) error {
	_, err := r.db.Exec(
		`INSERT INTO outcomes (variant, return_pct, won, created_at) VALUES (?, ?, ?, ?)`,
		variant, returnPct, boolToInt(won), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

// LoadRecords rebuilds the in-memory rolling records from persisted
// outcomes, keeping only the newest windowSize returns per variant.
func (r *Repository) LoadRecords(windowSize int) ([]*Record, error) {
	rows, err := r.db.Query(
		`SELECT variant, return_pct, won, created_at FROM outcomes ORDER BY variant, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	byVariant := make(map[string]*Record)
	for rows.Next() {
		var (
			variant   string
			returnPct float64
			won       int
			createdAt string
		)
		if err := rows.Scan(&variant, &returnPct, &won, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}

		rec, ok := byVariant[variant]
		if !ok {
			rec = &Record{Variant: variant}
			byVariant[variant] = rec
		}
		rec.Trades++
		if won == 1 {
			rec.Wins++
		}
		rec.CumulativeReturn += returnPct
		rec.Window = append(rec.Window, returnPct)
		if len(rec.Window) > windowSize {
			rec.Window = rec.Window[len(rec.Window)-windowSize:]
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.UpdatedAt = ts
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcome rows: %w", err)
	}

	out := make([]*Record, 0, len(byVariant))
	for _, rec := range byVariant {
		out = append(out, rec)
	}
	return out, nil
}

// SaveElimination persists a suppression.
func (r *Repository) SaveElimination(e Elimination) error {
	_, err := r.db.Exec(
		`INSERT INTO eliminations (variant, reason, eliminated_at) VALUES (?, ?, ?)
		 ON CONFLICT(variant) DO NOTHING`,
		e.Variant, e.Reason, e.EliminatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save elimination: %w", err)
	}
	return nil
}

// DeleteElimination removes a persisted suppression (operator override).
func (r *Repository) DeleteElimination(variant string) error {
	if _, err := r.db.Exec(`DELETE FROM eliminations WHERE variant = ?`, variant); err != nil {
		return fmt.Errorf("failed to delete elimination: %w", err)
	}
	return nil
}

// LoadEliminations restores the persisted suppression set.
func (r *Repository) LoadEliminations() ([]Elimination, error) {
	rows, err := r.db.Query(`SELECT variant, reason, eliminated_at FROM eliminations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query eliminations: %w", err)
	}
	defer rows.Close()

	var out []Elimination
	for rows.Next() {
		var e Elimination
		var at string
		if err := rows.Scan(&e.Variant, &e.Reason, &at); err != nil {
			return nil, fmt.Errorf("failed to scan elimination row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, at); err == nil {
			e.EliminatedAt = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertSelection records the feature vector of an emitted signal so the
// outcome can label it later.
func (r *Repository) InsertSelection(variant string, features []float64) error {
	encoded, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}
	_, err = r.db.Exec(
		`INSERT INTO selections (variant, features, created_at) VALUES (?, ?, ?)`,
		variant, string(encoded), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert selection: %w", err)
	}
	return nil
}

// LabelOldestSelection attaches an outcome to the oldest unlabeled selection
// for the variant (signals close in the order they were emitted).
func (r *Repository) LabelOldestSelection(variant string, won bool) error {
	_, err := r.db.Exec(
		`UPDATE selections SET won = ?, labeled_at = ?
		 WHERE id = (SELECT id FROM selections WHERE variant = ? AND won IS NULL ORDER BY id LIMIT 1)`,
		boolToInt(won), time.Now().UTC().Format(time.RFC3339), variant,
	)
	if err != nil {
		return fmt.Errorf("failed to label selection: %w", err)
	}
	return nil
}

// CountLabeled returns how many selection rows carry an outcome.
func (r *Repository) CountLabeled() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM selections WHERE won IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count labeled selections: %w", err)
	}
	return n, nil
}

// TrainingData returns the newest labeled selections, oldest first.
func (r *Repository) TrainingData(limit int) ([]LabeledSelection, error) {
	rows, err := r.db.Query(
		`SELECT variant, features, won FROM (
			SELECT id, variant, features, won FROM selections
			WHERE won IS NOT NULL ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training data: %w", err)
	}
	defer rows.Close()

	var out []LabeledSelection
	for rows.Next() {
		var (
			sel     LabeledSelection
			encoded string
			won     int
		)
		if err := rows.Scan(&sel.Variant, &encoded, &won); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &sel.Features); err != nil {
			// Skip rows with undecodable features rather than failing a
			// whole retrain on one bad record.
			continue
		}
		sel.Won = won == 1
		out = append(out, sel)
	}
	return out, rows.Err()
}

// SaveCalibration persists one calibration pass atomically: the newly
// eliminated variants and the run record land in a single transaction, so a
// crash mid-write cannot leave a run logged without its suppressions.
func (r *Repository) SaveCalibration(ranAt time.Time, eliminated []Elimination) error {
	return database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		for _, e := range eliminated {
			if _, err := tx.Exec(
				`INSERT INTO eliminations (variant, reason, eliminated_at) VALUES (?, ?, ?)
				 ON CONFLICT(variant) DO NOTHING`,
				e.Variant, e.Reason, e.EliminatedAt.Format(time.RFC3339),
			); err != nil {
				return fmt.Errorf("failed to save elimination for %s: %w", e.Variant, err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO calibrations (ran_at, eliminated) VALUES (?, ?)`,
			ranAt.Format(time.RFC3339), len(eliminated),
		); err != nil {
			return fmt.Errorf("failed to record calibration: %w", err)
		}
		return nil
	})
}

// LastCalibration returns the most recent calibration time, or zero time.
func (r *Repository) LastCalibration() (time.Time, error) {
	var at sql.NullString
	err := r.db.QueryRow(`SELECT MAX(ran_at) FROM calibrations`).Scan(&at)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last calibration: %w", err)
	}
	if !at.Valid || at.String == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, at.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse calibration time: %w", err)
	}
	return ts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
