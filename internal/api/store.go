package api

import (
	"cmp"
	"slices"
	"sync"
)

// DecodeStore keeps decode records in memory for the lifetime of the server.
type DecodeStore struct {
	mu      sync.Mutex
	records map[string]DecodeRecord
}

func NewDecodeStore() *DecodeStore {
	return &DecodeStore{
		records: make(map[string]DecodeRecord),
	}
}

// Put stores rec, assigning an id when it has none, and returns the stored
// copy.
func (s *DecodeStore) Put(rec DecodeRecord) DecodeRecord {
	if rec.ID == "" {
		rec.ID = newDecodeID()
	}
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

func (s *DecodeStore) Get(id string) (DecodeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *DecodeStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	return true
}

// List returns every record, oldest first.
func (s *DecodeStore) List() []DecodeRecord {
	s.mu.Lock()
	out := make([]DecodeRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b DecodeRecord) int {
		if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
