package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var ErrBlankPath = errors.New("credentials path cannot be blank")

// Record is the persisted state of our Twitch user credentials. Nil fields indicate
// that no value is stored.
type Record struct {
	Token   *string `json:"token"`
	Refresh *string `json:"refresh"`
}

// HasToken reports whether an access token is stored
func (r Record) HasToken() bool {
	return r.Token != nil && *r.Token != ""
}

// HasRefresh reports whether a refresh token is stored
func (r Record) HasRefresh() bool {
	return r.Refresh != nil && *r.Refresh != ""
}

// Store is a file-backed Record, safe for concurrent use
type Store struct {
	path   string
	mu     sync.Mutex
	record Record
}

// Open loads the credentials file at the given path. If the file does not yet exist,
// the store starts out empty and the file will be created on the first update.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrBlankPath
	}
	s := &Store{path: path}

	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(contents) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(contents, &s.record); err != nil {
		return nil, fmt.Errorf("failed to decode credentials file %s: %w", path, err)
	}
	return s, nil
}

// Get returns a copy of the current record
func (s *Store) Get() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRecord(s.record)
}

// Update calls fn with a copy of the current record, then persists the result in a
// single write. If the write fails, the in-memory record is left unchanged.
func (s *Store) Update(fn func(r *Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := copyRecord(s.record)
	fn(&updated)
	if err := s.write(&updated); err != nil {
		return err
	}
	s.record = updated
	return nil
}

// write serializes the record to a temporary file alongside the target path, then
// renames it into place
func (s *Store) write(r *Record) error {
	contents, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}
	tmpPath := f.Name()
	if _, err := f.Write(contents); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

func copyRecord(r Record) Record {
	return Record{
		Token:   copyString(r.Token),
		Refresh: copyString(r.Refresh),
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
