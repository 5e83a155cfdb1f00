package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/embermeter/embermeter/pkg/types"
)

// maxHistory bounds the number of finished encounters retained regardless
// of TTL.
const maxHistory = 50

// Encounter is one finished encounter: a terminal snapshot with its
// authoritative final duration.
type Encounter struct {
	ID         string                 `json:"id"`
	EndedAt    time.Time              `json:"endedAt"`
	DurationMs float64                `json:"durationMs"`
	Snapshot   *types.LiveDataPayload `json:"-"`
}

// Store holds the current live snapshot and an in-memory ring of finished
// encounters. The live snapshot is replaced wholesale on every Put so
// readers never observe a partially updated payload. A background
// goroutine (Run) evicts finished encounters older than the TTL.
type Store struct {
	mu      sync.RWMutex
	live    *types.LiveDataPayload
	liveAt  time.Time
	history []*Encounter // newest first
	nextID  int
	ttl     time.Duration
	now     func() time.Time // injectable for deterministic tests
}

// New creates a Store that retains finished encounters for ttl.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl: ttl,
		now: time.Now,
	}
}

// Put replaces the live snapshot. Callers must not modify p after Put.
func (s *Store) Put(p *types.LiveDataPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = p
	s.liveAt = s.now()
}

// Live returns the current live snapshot and whether one is present.
func (s *Store) Live() (*types.LiveDataPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live, s.live != nil
}

// LiveAt returns when the live snapshot was last replaced.
func (s *Store) LiveAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveAt, s.live != nil
}

// EndEncounter moves the live snapshot into the history ring, recording
// its elapsedMs as the authoritative final duration. Returns the stored
// encounter, or false when no live snapshot exists.
func (s *Store) EndEncounter() (*Encounter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live == nil {
		return nil, false
	}

	s.nextID++
	enc := &Encounter{
		ID:         fmt.Sprintf("enc-%d", s.nextID),
		EndedAt:    s.now(),
		DurationMs: s.live.ElapsedMs.Float(),
		Snapshot:   s.live,
	}
	s.history = append([]*Encounter{enc}, s.history...)
	if len(s.history) > maxHistory {
		s.history = s.history[:maxHistory]
	}
	s.live = nil
	return enc, true
}

// History returns the finished encounters within the TTL, newest first.
func (s *Store) History() []*Encounter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-s.ttl)
	out := make([]*Encounter, 0, len(s.history))
	for _, e := range s.history {
		if e.EndedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Encounter returns the finished encounter with the given id. Encounters
// past the TTL are treated as gone even if the background eviction has not
// removed them yet.
func (s *Store) Encounter(id string) (*Encounter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-s.ttl)
	for _, e := range s.history {
		if e.ID == id {
			if !e.EndedAt.After(cutoff) {
				return nil, false
			}
			return e, true
		}
	}
	return nil, false
}

// Count returns the number of retained encounters, stale ones included.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Evict removes finished encounters older than now minus the TTL and
// returns how many were removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.ttl)
	kept := s.history[:0]
	removed := 0
	for _, e := range s.history {
		if e.EndedAt.After(cutoff) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}
	s.history = kept
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second) and blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale encounters", "count", n)
			}
		}
	}
}
