package store

import (
	"sync"
	"time"

	"github.com/reliefconnect/relief-connect/internal/models"
)

// Store holds the authoritative in-memory record set for the current session.
// Records are kept in insertion order and are never deleted.
type Store struct {
	mu      sync.RWMutex
	records []models.Record
	lastID  int64
}

func New() *Store {
	return &Store{}
}

// nextID derives IDs from wall-clock milliseconds but clamps them strictly
// above the last issued ID, so two inserts in the same tick never collide.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Insert appends a new record, assigning its ID and creation time. The
// returned copy carries the assigned fields.
func (s *Store) Insert(rec models.Record) models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec.ID = s.nextID(now)
	rec.CreatedAt = now
	rec.Active = true
	s.records = append(s.records, rec)
	return rec
}

// Upsert appends a record that already carries an ID, typically one received
// from another instance. Records whose ID is already present are ignored, so
// duplicate delivery is harmless. It reports whether the record was added.
func (s *Store) Upsert(rec models.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == rec.ID {
			return false
		}
	}
	if rec.ID > s.lastID {
		s.lastID = rec.ID
	}
	s.records = append(s.records, rec)
	return true
}

// SetActive flips a record's active flag. Deactivating also marks the record
// as found; reactivating leaves the status alone. An unknown ID is a silent
// no-op. It reports whether a record matched.
func (s *Store) SetActive(id int64, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		s.records[i].Active = active
		if !active {
			s.records[i].Status = models.StatusFound
		}
		return true
	}
	return false
}

// Snapshot returns a copy of the records in insertion order.
func (s *Store) Snapshot() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Seed loads initial records, assigning IDs while preserving any creation
// times already set (sample data is backdated relative to startup).
func (s *Store) Seed(recs []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, rec := range recs {
		rec.ID = s.nextID(now)
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.Active = true
		s.records = append(s.records, rec)
	}
}
