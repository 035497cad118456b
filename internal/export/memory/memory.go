// Package memory is an in-process export target used in tests and when no
// external target is configured.
package memory

import (
	"context"
	"sync"

	"stashguard/internal/export"
)

type Store struct {
	mu      sync.Mutex
	records map[string]export.Record
}

func New() *Store {
	return &Store{records: make(map[string]export.Record)}
}

var _ export.Target = (*Store)(nil)

// Upsert stores the record keyed by operation id, replacing any previous one.
func (s *Store) Upsert(_ context.Context, rec export.Record) error {
	if err := rec.Operation.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Operation.ID] = rec
	return nil
}

// Remove drops the record. Unknown ids are ignored.
func (s *Store) Remove(_ context.Context, operationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, operationID)
	return nil
}

// Record returns the stored record for an operation id.
func (s *Store) Record(operationID string) (export.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[operationID]
	return rec, ok
}

// Size returns the number of stored records.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
