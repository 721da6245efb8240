// Package store holds the datasets loaded into the dashboard.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/couchcryptid/solar-eda/internal/domain"
)

// Store is a thread-safe registry of datasets keyed by name. Once more than
// limit datasets are held, the least recently used one is evicted.
type Store struct {
	limit   int
	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
	seq     uint64
}

type entry struct {
	name  string
	value *domain.Dataset
	order uint64
	prev  *entry
	next  *entry
}

// New creates a store holding at most limit datasets. A limit below one
// is treated as one.
func New(limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{
		limit:   limit,
		entries: make(map[string]*entry),
	}
}

// Put registers ds under its name, replacing any dataset of the same name.
// It returns the name of the dataset evicted to make room, if any.
func (s *Store) Put(ds *domain.Dataset) (evicted string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if e, found := s.entries[ds.Name]; found {
		e.value = ds
		e.order = s.seq
		s.moveToFront(e)
		return "", false
	}

	e := &entry{name: ds.Name, value: ds, order: s.seq}
	s.entries[ds.Name] = e
	s.addToFront(e)

	if len(s.entries) > s.limit {
		return s.evictTail(), true
	}
	return "", false
}

// Get returns the dataset registered under name.
func (s *Store) Get(name string) (*domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrDatasetNotFound, name)
	}
	s.moveToFront(e)
	return e.value, nil
}

// Replace swaps the dataset stored under ds.Name, keeping its load position.
func (s *Store) Replace(ds *domain.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[ds.Name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrDatasetNotFound, ds.Name)
	}
	e.value = ds
	s.moveToFront(e)
	return nil
}

// Delete removes a dataset. It reports whether the name was present.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	delete(s.entries, name)
	s.remove(e)
	return true
}

// List returns every dataset in the order it was loaded.
func (s *Store) List() []*domain.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].order < all[j].order })

	out := make([]*domain.Dataset, len(all))
	for i, e := range all {
		out[i] = e.value
	}
	return out
}

// Len returns the number of datasets held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *Store) addToFront(e *entry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *Store) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
}

func (s *Store) evictTail() string {
	if s.tail == nil {
		return ""
	}
	name := s.tail.name
	delete(s.entries, name)
	s.remove(s.tail)
	return name
}
