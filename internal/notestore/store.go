// Package notestore holds the in-memory working set of delivery notes.
//
// It is the single owning state container for the optimistic update flow:
// an edit is installed here synchronously before the database write is
// issued, then replaced with the authoritative row on success or restored
// to the prior snapshot on failure. Only the bulk loader and the delivery
// note service mutate it.
package notestore

import (
	"sort"
	"sync"

	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// Store is a mutex-guarded snapshot of delivery notes keyed by UUID.
// All notes passed in or handed out are deep copies, callers can never
// mutate the stored snapshot through a shared pointer.
type Store struct {
	mu    sync.RWMutex
	notes map[string]*model.DeliveryNote
}

// New creates an empty store
func New() *Store {
	return &Store{notes: make(map[string]*model.DeliveryNote)}
}

// Load replaces the entire working set, used by the bulk loader
func (s *Store) Load(notes []*model.DeliveryNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = make(map[string]*model.DeliveryNote, len(notes))
	for _, n := range notes {
		s.notes[n.UUID] = n.Clone()
	}
}

// Get returns a copy of the note with the given id
func (s *Store) Get(id string) (*model.DeliveryNote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// List returns copies of all notes ordered by last update, newest first
func (s *Store) List() []*model.DeliveryNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.DeliveryNote, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Put installs or replaces a note
func (s *Store) Put(note *model.DeliveryNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.UUID] = note.Clone()
}

// Remove drops a note from the working set
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
}

// Len returns the number of notes held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}
