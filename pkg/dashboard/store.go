package dashboard

import "sync"

// DefaultHistory is the default number of snapshots a Store retains
const DefaultHistory = 1000

// HistoryObserver is told the history length after every append
type HistoryObserver interface {
	ObserveSnapshot(historyLen int)
}

// Store is a bounded, append-only snapshot history. Once full, each append
// drops the oldest snapshot.
type Store struct {
	mu       sync.RWMutex
	history  []Snapshot
	capacity int
	observer HistoryObserver
}

// NewStore creates a store keeping at most capacity snapshots
func NewStore(capacity int, observer HistoryObserver) *Store {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &Store{capacity: capacity, observer: observer}
}

// Append adds a snapshot and returns the new history length
func (s *Store) Append(snap Snapshot) int {
	s.mu.Lock()
	s.history = append(s.history, snap)
	if over := len(s.history) - s.capacity; over > 0 {
		trimmed := make([]Snapshot, s.capacity, s.capacity+1)
		copy(trimmed, s.history[over:])
		s.history = trimmed
	}
	n := len(s.history)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveSnapshot(n)
	}
	return n
}

// Latest returns the most recent snapshot
func (s *Store) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return Snapshot{}, false
	}
	return s.history[len(s.history)-1], true
}

// Recent returns up to count of the newest snapshots, oldest first
func (s *Store) Recent(count int) []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if count < 0 {
		count = 0
	}
	start := len(s.history) - count
	if start < 0 {
		start = 0
	}
	return append([]Snapshot(nil), s.history[start:]...)
}

// All returns the full history, oldest first
func (s *Store) All() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Snapshot(nil), s.history...)
}

// Len returns the history length
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Capacity returns the retention cap
func (s *Store) Capacity() int {
	return s.capacity
}
