// Package dedup holds the run-wide membership state that decides whether a
// discovered URL is new.
//
// A State contains three independent sets: page URLs, JavaScript URLs and
// fuzz candidates. A string may be a member of several sets at once. Sets only
// grow; there is no removal, no TTL and no eviction. The State is created once
// per run and passed explicitly to whoever classifies results.
package dedup

import "sync"

// Set selects one of the three membership sets.
type Set int

const (
	// Visited holds page URLs that have been fetched or discovered.
	Visited Set = iota

	// JSVisited holds JavaScript asset URLs that have been discovered.
	JSVisited

	// FuzzVisited holds fuzz candidates that have been emitted.
	FuzzVisited

	numSets
)

// String returns the set name used in logs.
func (s Set) String() string {
	switch s {
	case Visited:
		return "visited"
	case JSVisited:
		return "js_visited"
	case FuzzVisited:
		return "fuzz_visited"
	default:
		return "unknown"
	}
}

// State is the concurrency-safe dedup state for one run.
// The zero value is not usable; call New.
//
// Design decision: A single mutex guards all three sets. Every check-and-insert
// is one critical section, so exactly one concurrent caller observes an item
// as new. The critical sections are a map lookup and a map write, which is far
// cheaper than the network calls that produce the items, so lock striping
// would add complexity without measurable gain.
type State struct {
	mu   sync.Mutex
	sets [numSets]map[string]struct{}
}

// New creates an empty State.
func New() *State {
	s := &State{}
	for i := range s.sets {
		s.sets[i] = make(map[string]struct{})
	}
	return s
}

// TryInsert inserts item into set and reports whether it was absent.
// It returns true exactly once per (set, item) pair for the lifetime of the State.
func (s *State) TryInsert(set Set, item string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.sets[set]
	if _, ok := m[item]; ok {
		return false
	}
	m[item] = struct{}{}
	return true
}

// Contains reports whether item is a member of set. It never mutates the State.
func (s *State) Contains(set Set, item string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sets[set][item]
	return ok
}

// Len returns the number of items in set.
func (s *State) Len(set Set) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sets[set])
}

// Seed inserts items into set without reporting which were new.
// It is used to preload URLs known from a previous run.
func (s *State) Seed(set Set, items []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.sets[set]
	for _, item := range items {
		m[item] = struct{}{}
	}
}
