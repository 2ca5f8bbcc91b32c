package store

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Snapshot is an immutable view of the collection at one point in time.
// The store publishes a fresh snapshot after every committed mutation;
// readers hold on to whichever snapshot they started with, so a query
// never observes a half-applied change.
type Snapshot struct {
	notes   []*models.Note
	byID    map[string]*models.Note
	byTitle map[string]*models.Note
}

func newSnapshot(notes []*models.Note) *Snapshot {
	s := &Snapshot{
		notes:   notes,
		byID:    make(map[string]*models.Note, len(notes)),
		byTitle: make(map[string]*models.Note, len(notes)),
	}
	for _, n := range notes {
		s.byID[n.ID] = n
		key := strings.ToLower(n.Title)
		if key == "" {
			continue
		}
		// First note wins when titles collide; collection order is
		// insertion order, so resolution stays deterministic.
		if _, ok := s.byTitle[key]; !ok {
			s.byTitle[key] = n
		}
	}
	return s
}

// Notes returns the notes in collection (insertion) order. Callers must
// not mutate the returned notes.
func (s *Snapshot) Notes() []*models.Note {
	return s.notes
}

// Len returns the number of notes.
func (s *Snapshot) Len() int {
	return len(s.notes)
}

// ByID returns the note with the given id.
func (s *Snapshot) ByID(id string) (*models.Note, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// ByTitle returns the note whose title equals title after case-folding.
func (s *Snapshot) ByTitle(title string) (*models.Note, bool) {
	n, ok := s.byTitle[strings.ToLower(title)]
	return n, ok
}
