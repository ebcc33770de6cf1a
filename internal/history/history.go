// Package history holds the ordered, capacity-bounded clipboard history.
//
// The Store owns entry identity, front-only dedup, eviction and search. Its
// critical section covers in-memory state only: persistence writes are
// queued through a non-blocking Sink and UI events go out on the Feed after
// the lock is released, so no subscriber or disk stall can back up the
// capture path.
package history

import (
	"iter"
	"strings"
	"sync"

	"go.klb.dev/clipvault/internal/metrics"
	"go.klb.dev/clipvault/internal/snapshot"
)

// DefaultCapacity bounds the history when no capacity is configured.
const DefaultCapacity = 200

// Entry is one retained clipboard capture. Entries are append-only values:
// created on insert, never mutated afterwards (SetPinned replaces the
// entry), removed by eviction or explicit deletion.
type Entry struct {
	ID          uint64
	Snapshot    *snapshot.Snapshot
	Fingerprint snapshot.Fingerprint
	Pinned      bool

	// projection is the lowercased search text, computed once at insert.
	projection string
}

// Projection returns the entry's lowercased searchable text.
func (e *Entry) Projection() string { return e.projection }

// Sink receives persistence notifications. Implementations must not block:
// the store calls them on the capture path (outside its lock).
type Sink interface {
	SaveEntry(*Entry)
	DeleteEntry(id uint64)
	DeleteAll()
}

// Store is the in-memory history log, most-recent-first.
type Store struct {
	mu       sync.Mutex
	entries  []*Entry
	capacity int
	nextID   uint64

	feed *Feed
	sink Sink
}

// New returns an empty store with the given capacity (DefaultCapacity if
// n <= 0).
func New(n int) *Store {
	if n <= 0 {
		n = DefaultCapacity
	}
	return &Store{capacity: n, nextID: 1, feed: newFeed()}
}

// SetSink attaches the persistence sink. Call before the watcher starts.
func (s *Store) SetSink(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Feed returns the store's event feed.
func (s *Store) Feed() *Feed { return s.feed }

// Rehydrate replaces the store contents with entries loaded from
// persistence, newest-first, truncated to capacity. No events or sink
// notifications are emitted. nextID is advanced past the highest loaded id
// so ids stay unique across restarts.
func (s *Store) Rehydrate(entries []*Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	s.entries = make([]*Entry, len(entries))
	copy(s.entries, entries)
	for _, e := range s.entries {
		e.projection = strings.ToLower(e.Snapshot.Projection())
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
}

// SeedID advances the id sequence so the next insert gets at least id+1.
// Used at startup when persistence holds ids beyond the loaded window.
func (s *Store) SeedID(id uint64) {
	s.mu.Lock()
	if id >= s.nextID {
		s.nextID = id + 1
	}
	s.mu.Unlock()
}

// Submit offers a captured snapshot to the history. If its fingerprint
// matches the current front entry the capture is collapsed and the front
// entry is returned with inserted=false (front-only dedup: the same
// content reappearing later is a new entry). Otherwise a new entry is
// created at the front and entries beyond capacity are evicted from the
// back, skipping pinned ones.
func (s *Store) Submit(snap *snapshot.Snapshot) (entry *Entry, inserted bool) {
	fp := snap.Fingerprint()

	s.mu.Lock()
	if len(s.entries) > 0 && s.entries[0].Fingerprint == fp {
		top := s.entries[0]
		s.mu.Unlock()
		metrics.Duplicates.Inc()
		return top, false
	}

	entry = &Entry{
		ID:          s.nextID,
		Snapshot:    snap,
		Fingerprint: fp,
		projection:  strings.ToLower(snap.Projection()),
	}
	s.nextID++
	s.entries = append([]*Entry{entry}, s.entries...)
	evicted := s.evictLocked()
	sink := s.sink
	s.mu.Unlock()

	metrics.Inserts.Inc()
	if sink != nil {
		sink.SaveEntry(entry)
		for _, old := range evicted {
			sink.DeleteEntry(old.ID)
		}
	}
	s.feed.added(entry)
	for _, old := range evicted {
		metrics.Evictions.Inc()
		s.feed.removed(old.ID)
	}
	return entry, true
}

// evictLocked trims the log to capacity, oldest unpinned entries first.
// The front entry is never considered: a fresh capture must not evict
// itself when everything behind it is pinned. If no evictable entry
// remains the log is allowed to exceed capacity, an accepted soft-limit
// breach: pinned content is never auto-evicted.
func (s *Store) evictLocked() []*Entry {
	var evicted []*Entry
	for len(s.entries) > s.capacity {
		idx := -1
		for i := len(s.entries) - 1; i >= 1; i-- {
			if !s.entries[i].Pinned {
				idx = i
				break
			}
		}
		if idx < 0 {
			break // soft-limit breach
		}
		evicted = append(evicted, s.entries[idx])
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	}
	return evicted
}

// Get returns the entry with the given id.
func (s *Store) Get(id uint64) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Remove deletes an entry by id, reporting whether it existed.
func (s *Store) Remove(id uint64) bool {
	s.mu.Lock()
	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink.DeleteEntry(id)
	}
	s.feed.removed(id)
	return true
}

// Clear drops every entry, pinned ones included.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink.DeleteAll()
	}
	s.feed.cleared()
}

// SetPinned marks or unmarks an entry as exempt from eviction. The entry
// value is replaced, not mutated, so previously handed-out entries stay
// immutable.
func (s *Store) SetPinned(id uint64, pinned bool) bool {
	s.mu.Lock()
	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	old := s.entries[idx]
	if old.Pinned == pinned {
		s.mu.Unlock()
		return true
	}
	repl := *old
	repl.Pinned = pinned
	s.entries[idx] = &repl
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink.SaveEntry(&repl)
	}
	return true
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns the configured capacity.
func (s *Store) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

// SetCapacity reconfigures the bound and evicts immediately if the log is
// now over it.
func (s *Store) SetCapacity(n int) {
	if n <= 0 {
		n = DefaultCapacity
	}
	s.mu.Lock()
	s.capacity = n
	evicted := s.evictLocked()
	sink := s.sink
	s.mu.Unlock()

	for _, old := range evicted {
		metrics.Evictions.Inc()
		if sink != nil {
			sink.DeleteEntry(old.ID)
		}
		s.feed.removed(old.ID)
	}
}

// List returns a copy of the log slice, most-recent-first. limit <= 0
// means no limit; offset skips from the front.
func (s *Store) List(limit, offset int) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.entries) {
		return nil
	}
	rest := s.entries[offset:]
	if limit > 0 && limit < len(rest) {
		rest = rest[:limit]
	}
	out := make([]*Entry, len(rest))
	copy(out, rest)
	return out
}

// All returns every retained entry, most-recent-first.
func (s *Store) All() []*Entry { return s.List(0, 0) }

// Search returns an iterator over entries whose textual projection
// contains query case-insensitively, preserving log order. The empty query
// matches everything, including image entries whose projection is empty.
// The sequence is computed over a point-in-time copy of the log, so it is
// restartable and safe against concurrent inserts.
func (s *Store) Search(query string) iter.Seq[*Entry] {
	entries := s.All()
	q := strings.ToLower(query)
	return func(yield func(*Entry) bool) {
		for _, e := range entries {
			if q != "" && !strings.Contains(e.projection, q) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
