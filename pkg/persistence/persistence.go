// Package persistence stores the optimization history so a restarted
// governor can resume with context. Two backends ship: a CSV file for
// easy offline analysis and a SQLite database for durable on-device use.
package persistence

import (
	"time"

	"github.com/schedgov/schedgov/pkg/core"
)

// Record is one optimization iteration's summary. BestParameters is the
// winning vector of that generation; it stays in memory only, the wire
// formats carry the five scalar columns.
type Record struct {
	Generation     int                  `csv:"generation"`
	BestFitness    float64              `csv:"best_fitness"`
	AverageFitness float64              `csv:"average_fitness"`
	DiversityScore float64              `csv:"diversity_score"`
	Timestamp      Timestamp            `csv:"timestamp"`
	BestParameters core.ParameterVector `csv:"-"`
}

// Timestamp wraps time.Time with a stable CSV encoding.
type Timestamp struct {
	time.Time
}

// Now returns the current instant as a Timestamp.
func Now() Timestamp {
	return Timestamp{Time: time.Now()}
}

// MarshalCSV renders the timestamp as RFC 3339 in UTC.
func (t Timestamp) MarshalCSV() (string, error) {
	return t.UTC().Format(time.RFC3339), nil
}

// UnmarshalCSV parses an RFC 3339 timestamp.
func (t *Timestamp) UnmarshalCSV(s string) error {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Store persists optimization history wholesale. Save replaces whatever
// the backend held before; Load returns records in insertion order.
type Store interface {
	Save(records []Record) error
	Load() ([]Record, error)
	Close() error
}
