package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is a capacity/TTL-bounded in-memory cache of session state.
// Absent or expired entries surface as a miss, never as an error: a miss
// means the candidate was away for too long and must start over.
type Store struct {
	mu       sync.Mutex
	entries  map[uuid.UUID]*storeEntry
	ttl      time.Duration
	capacity int
	log      zerolog.Logger
	now      func() time.Time
}

type storeEntry struct {
	state   *State
	touched time.Time
}

// NewStore creates a session store. Entries older than ttl are evicted
// lazily on access and by the janitor; capacity bounds total entries.
func NewStore(ttl time.Duration, capacity int, log zerolog.Logger) *Store {
	return &Store{
		entries:  make(map[uuid.UUID]*storeEntry),
		ttl:      ttl,
		capacity: capacity,
		log:      log.With().Str("component", "session_store").Logger(),
		now:      time.Now,
	}
}

// StartJanitor sweeps expired entries once a minute until ctx is done.
func (s *Store) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Get returns the session state, or false when absent or expired.
// The returned pointer aliases the stored state; callers must hold the
// session's Guard mutex around any use of it.
func (s *Store) Get(examID uuid.UUID) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[examID]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(e.touched) > s.ttl {
		delete(s.entries, examID)
		s.log.Info().Str("exam_id", examID.String()).Msg("Session expired")
		return nil, false
	}
	e.touched = now
	return e.state, true
}

// Save stores the state and refreshes its TTL. When the store is full the
// least recently touched entry is dropped first.
func (s *Store) Save(examID uuid.UUID, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[examID]; !ok && len(s.entries) >= s.capacity {
		s.evictOldestLocked()
	}
	s.entries[examID] = &storeEntry{state: st, touched: s.now()}
}

// Remove deletes the session entry if present.
func (s *Store) Remove(examID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, examID)
}

// Len returns the number of live entries, counting not-yet-swept expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.touched) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Int("remaining", len(s.entries)).Msg("Swept expired sessions")
	}
}

func (s *Store) evictOldestLocked() {
	var oldest uuid.UUID
	var oldestTouched time.Time
	first := true
	for id, e := range s.entries {
		if first || e.touched.Before(oldestTouched) {
			oldest = id
			oldestTouched = e.touched
			first = false
		}
	}
	if !first {
		delete(s.entries, oldest)
		s.log.Warn().Str("exam_id", oldest.String()).Msg("Store full, evicted least recently used session")
	}
}
