package persistence

import (
	"os"

	"github.com/gocarina/gocsv"

	"github.com/schedgov/schedgov/pkg/errors"
)

// CSVStore keeps the history in a single headered CSV file. Every save
// rewrites the file, so the on-disk state always matches the last
// snapshot handed to Save.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store backed by the given file path. The file is
// created lazily on first save.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Save writes all records, replacing any previous file content.
func (s *CSVStore) Save(records []Record) error {
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "history file create failed")
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&records, f); err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "history CSV encode failed")
	}
	return nil
}

// Load reads every record from the file. A missing file is an empty
// history, not an error.
func (s *CSVStore) Load() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.PersistenceFailed, "history file open failed")
	}
	defer f.Close()

	var records []Record
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		if err == gocsv.ErrEmptyCSVFile {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.PersistenceFailed, "history CSV decode failed")
	}
	return records, nil
}

// Close is a no-op; the file handle is not held between calls.
func (s *CSVStore) Close() error {
	return nil
}
