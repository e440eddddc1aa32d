// Package snapshot holds the last known state of every petition seen by a
// pager. It is the source of truth the pager diffs each poll against.
package snapshot

import (
	"sort"
	"sync"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
)

// View is read-only access to a snapshot. Records returned by a View are
// copies.
type View interface {
	// Get returns the stored petition for id.
	Get(id petition.ID) (*petition.Petition, bool)
	// Count returns the number of stored petitions.
	Count() int
	// IDs returns the stored ids in ascending order.
	IDs() []petition.ID
	// All returns every stored petition ordered by id.
	All() []*petition.Petition
}

// Store maps petition ids to their last known record. Count always equals the
// number of stored ids. Reads are safe from any goroutine.
type Store struct {
	mu        sync.RWMutex
	petitions map[petition.ID]*petition.Petition
	name      string
}

// New creates an empty store. The name labels the store's size metric.
func New(name string) *Store {
	return &Store{
		petitions: make(map[petition.ID]*petition.Petition),
		name:      name,
	}
}

// Get returns a copy of the stored record for id.
func (s *Store) Get(id petition.ID) (*petition.Petition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.petitions[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Set inserts or replaces the record for id and reports whether it was an
// insert. The store keeps its own copy of p.
func (s *Store) Set(id petition.ID, p *petition.Petition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.petitions[id]
	s.petitions[id] = p.Clone()
	snapshotSize.WithLabelValues(s.name).Set(float64(len(s.petitions)))
	return !exists
}

// Delete removes the record for id and returns it. Deleting an absent id is a
// no-op.
func (s *Store) Delete(id petition.ID) (*petition.Petition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.petitions[id]
	if !ok {
		return nil, false
	}
	delete(s.petitions, id)
	snapshotSize.WithLabelValues(s.name).Set(float64(len(s.petitions)))
	return p, true
}

// Count returns the number of stored petitions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.petitions)
}

// IDs returns the stored ids in ascending order.
func (s *Store) IDs() []petition.ID {
	s.mu.RLock()
	ids := make([]petition.ID, 0, len(s.petitions))
	for id := range s.petitions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns copies of every stored petition ordered by id.
func (s *Store) All() []*petition.Petition {
	s.mu.RLock()
	all := make([]*petition.Petition, 0, len(s.petitions))
	for _, p := range s.petitions {
		all = append(all, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}
