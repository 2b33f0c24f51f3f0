// Package revision keeps a bounded undo/redo history of request snapshots
// per editable entity.
package revision

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/studiowebux/reqflow/internal/types"
)

const (
	DefaultLimit           = 30
	DefaultMaxTrackedBytes = 2 << 20
	DefaultSampleThreshold = 64 << 10
	DefaultSampleCount     = 256
)

// ErrTooLarge is returned when a snapshot exceeds MaxTrackedBytes. The
// entity's history is dropped when this happens.
var ErrTooLarge = errors.New("snapshot too large to track")

// Options configures a Store. Zero fields take the defaults.
type Options struct {
	Limit           int // entries kept per entity
	MaxTrackedBytes int // snapshots above this size are not tracked
	SampleThreshold int // bodies above this size are hashed by sampling
	SampleCount     int // sampling points for large bodies
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.MaxTrackedBytes <= 0 {
		o.MaxTrackedBytes = DefaultMaxTrackedBytes
	}
	if o.SampleThreshold <= 0 {
		o.SampleThreshold = DefaultSampleThreshold
	}
	if o.SampleCount <= 0 {
		o.SampleCount = DefaultSampleCount
	}
	return o
}

// Entry is one stored snapshot
type Entry struct {
	Snapshot  *types.HttpRequest
	Hash      uint64
	Timestamp time.Time
}

// state is one entity's history; index points at the current entry
type state struct {
	entries []Entry
	index   int
}

func (st *state) current() Entry {
	return st.entries[st.index]
}

// Store holds the revision history of every open entity. It is owned by the
// component that manages entity lifecycle and is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	opts   Options
	states map[string]*state
	now    func() time.Time
}

// NewStore creates an empty store
func NewStore(opts Options) *Store {
	return &Store{
		opts:   opts.withDefaults(),
		states: make(map[string]*state),
		now:    time.Now,
	}
}

// Options returns the effective options
func (s *Store) Options() Options {
	return s.opts
}

// Init seeds the history of id with a single entry, replacing any existing
// history
func (s *Store) Init(id string, snapshot *types.HttpRequest) error {
	entry, err := s.newEntry(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		delete(s.states, id)
		return fmt.Errorf("failed to init history for %s: %w", id, err)
	}
	s.states[id] = &state{entries: []Entry{entry}}
	return nil
}

// Capture records snapshot as the newest entry of id. It returns false when
// the snapshot matches the current entry. Any redo branch is discarded, and
// the oldest entries are dropped once the limit is exceeded.
// An entity without history is seeded as by Init.
func (s *Store) Capture(id string, snapshot *types.HttpRequest) (bool, error) {
	entry, err := s.newEntry(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		delete(s.states, id)
		return false, fmt.Errorf("failed to capture snapshot for %s: %w", id, err)
	}

	st, ok := s.states[id]
	if !ok {
		s.states[id] = &state{entries: []Entry{entry}}
		return true, nil
	}
	if st.current().Hash == entry.Hash {
		return false, nil
	}

	st.entries = append(st.entries[:st.index+1], entry)
	st.index = len(st.entries) - 1

	if over := len(st.entries) - s.opts.Limit; over > 0 {
		trimmed := make([]Entry, s.opts.Limit)
		copy(trimmed, st.entries[over:])
		st.entries = trimmed
		st.index -= over
	}
	return true, nil
}

// Undo steps back one entry and returns a copy of that snapshot. It returns
// false when already at the oldest entry or when id has no history.
func (s *Store) Undo(id string) (*types.HttpRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok || st.index == 0 {
		return nil, false
	}
	st.index--
	return st.current().Snapshot.Clone(), true
}

// Redo steps forward one entry and returns a copy of that snapshot. It
// returns false when already at the newest entry or when id has no history.
func (s *Store) Redo(id string) (*types.HttpRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok || st.index >= len(st.entries)-1 {
		return nil, false
	}
	st.index++
	return st.current().Snapshot.Clone(), true
}

// Clear drops the history of id
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
}

// Retain drops the history of every entity not listed in ids, e.g. after
// requests were deleted from a collection
func (s *Store) Retain(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.states {
		if !keep[id] {
			delete(s.states, id)
		}
	}
}

// CanUndo reports whether Undo would return a snapshot
func (s *Store) CanUndo(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return ok && st.index > 0
}

// CanRedo reports whether Redo would return a snapshot
func (s *Store) CanRedo(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return ok && st.index < len(st.entries)-1
}

// Current returns a copy of the snapshot at the current index
func (s *Store) Current(id string) (*types.HttpRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return nil, false
	}
	return st.current().Snapshot.Clone(), true
}

// Len returns the number of entries held for id
func (s *Store) Len(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[id]; ok {
		return len(st.entries)
	}
	return 0
}

// Index returns the current index for id, or -1 when id has no history
func (s *Store) Index(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[id]; ok {
		return st.index
	}
	return -1
}

// IDs returns the sorted ids of every tracked entity
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// newEntry clones and hashes snapshot outside the lock
func (s *Store) newEntry(snapshot *types.HttpRequest) (Entry, error) {
	if snapshot == nil {
		return Entry{}, errors.New("nil snapshot")
	}
	if size := Size(snapshot); size > s.opts.MaxTrackedBytes {
		return Entry{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	return Entry{
		Snapshot:  snapshot.Clone(),
		Hash:      Hash(snapshot, s.opts.SampleThreshold, s.opts.SampleCount),
		Timestamp: s.now(),
	}, nil
}
