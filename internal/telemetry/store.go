package telemetry

import (
	"sort"
	"sync"
	"time"
)

// Reading is the latest known value of one SVID.
type Reading struct {
	SVID      string    `json:"svid"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps the most recent reading per SVID in memory.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	readings map[string]Reading
	maxAge   time.Duration
	now      func() time.Time
}

// NewStore creates a store. Readings older than maxAge are reported as
// stale; zero disables the check.
func NewStore(maxAge time.Duration) *Store {
	return &Store{
		readings: make(map[string]Reading),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Put records r unless a newer reading for the same SVID is already held.
// It reports whether r was stored.
func (s *Store) Put(r Reading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.readings[r.SVID]; ok && cur.Timestamp.After(r.Timestamp) {
		return false
	}
	s.readings[r.SVID] = r
	return true
}

// Get returns the latest reading of svid. ok is false when the SVID has
// never reported or its last reading is stale.
func (s *Store) Get(svid string) (Reading, bool) {
	s.mu.RLock()
	r, ok := s.readings[svid]
	s.mu.RUnlock()

	if !ok || s.stale(r) {
		return Reading{}, false
	}
	return r, true
}

func (s *Store) stale(r Reading) bool {
	return s.maxAge > 0 && s.now().Sub(r.Timestamp) > s.maxAge
}

// Status values of a batch result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BatchResult is one entry of a batch lookup. Value is nil when the SVID
// has no current reading.
type BatchResult struct {
	SVID      string     `json:"svid"`
	Value     *float64   `json:"value"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Status    string     `json:"status"`
}

// GetBatch looks up several SVIDs, preserving request order.
func (s *Store) GetBatch(svids []string) []BatchResult {
	out := make([]BatchResult, 0, len(svids))
	for _, id := range svids {
		r, ok := s.Get(id)
		if !ok {
			out = append(out, BatchResult{SVID: id, Status: StatusError})
			continue
		}
		v, ts := r.Value, r.Timestamp
		out = append(out, BatchResult{SVID: id, Value: &v, Timestamp: &ts, Status: StatusSuccess})
	}
	return out
}

// Len returns the number of SVIDs held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// SVIDs returns the known SVIDs in sorted order.
func (s *Store) SVIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.readings))
	for id := range s.readings {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
