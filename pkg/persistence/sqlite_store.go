package persistence

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/schedgov/schedgov/pkg/errors"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS optimization_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	generation INTEGER NOT NULL,
	best_fitness REAL NOT NULL,
	average_fitness REAL NOT NULL,
	diversity_score REAL NOT NULL,
	timestamp TEXT NOT NULL
);
`

// SQLiteStore keeps the history in a SQLite database. Saves run inside a
// transaction so readers never observe a half-replaced history.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "history database open failed")
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.PersistenceFailed, "history schema init failed")
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces the stored history with the given records.
func (s *SQLiteStore) Save(records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "history transaction begin failed")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM optimization_history`); err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "history clear failed")
	}

	stmt, err := tx.Prepare(`INSERT INTO optimization_history
		(generation, best_fitness, average_fitness, diversity_score, timestamp)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "history insert prepare failed")
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(r.Generation, r.BestFitness, r.AverageFitness,
			r.DiversityScore, r.Timestamp.UTC().Format(time.RFC3339))
		if err != nil {
			return errors.Wrap(err, errors.PersistenceFailed, "history insert failed")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "history commit failed")
	}
	return nil
}

// Load returns all stored records in insertion order.
func (s *SQLiteStore) Load() ([]Record, error) {
	rows, err := s.db.Query(`SELECT generation, best_fitness, average_fitness,
		diversity_score, timestamp FROM optimization_history ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "history query failed")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var ts string
		if err := rows.Scan(&r.Generation, &r.BestFitness, &r.AverageFitness,
			&r.DiversityScore, &ts); err != nil {
			return nil, errors.Wrap(err, errors.PersistenceFailed, "history row scan failed")
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, errors.Wrap(err, errors.PersistenceFailed, "history timestamp malformed")
		}
		r.Timestamp = Timestamp{Time: parsed}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "history iteration failed")
	}
	return records, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
