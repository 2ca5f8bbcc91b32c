// Package store owns the canonical note collection. Every mutation is
// committed to the key-value backend first (write-ahead), then applied
// to the in-memory collection and derived indexes, and finally published
// as a new immutable snapshot.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/links"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

const (
	notePrefix    = "note:"
	versionPrefix = "version:"

	// maxVersions bounds the archived revisions kept per note.
	maxVersions = 20
)

// Indexer receives note mutations so the search index stays consistent
// with the collection. Implemented by search.Index.
type Indexer interface {
	Upsert(n *models.Note, seq int)
	Remove(id string)
	Rebuild(notes []*models.Note)
}

// noopIndexer is used when no search index is attached (some tests).
type noopIndexer struct{}

func (noopIndexer) Upsert(*models.Note, int) {}
func (noopIndexer) Remove(string)            {}
func (noopIndexer) Rebuild([]*models.Note)   {}

// Store is the single source of truth for the note collection.
type Store struct {
	backend storage.Backend
	index   Indexer
	logger  *slog.Logger

	mu        sync.Mutex // serializes mutations
	snap      atomic.Pointer[Snapshot]
	backlinks *links.BacklinkIndex
}

// New loads the collection from the backend and builds the derived
// indexes. ULID keys make the scan order equal creation order.
func New(backend storage.Backend, index Indexer, logger *slog.Logger) (*Store, error) {
	if index == nil {
		index = noopIndexer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend:   backend,
		index:     index,
		logger:    logger,
		backlinks: links.NewBacklinkIndex(),
	}

	kvs, err := backend.Scan(notePrefix)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	notes := make([]*models.Note, 0, len(kvs))
	for _, kv := range kvs {
		var n models.Note
		if err := json.Unmarshal(kv.Value, &n); err != nil {
			logger.Warn("store: skipping corrupt record",
				slog.String("key", kv.Key), slog.String("error", err.Error()))
			continue
		}
		notes = append(notes, &n)
	}

	snap := newSnapshot(notes)
	s.snap.Store(snap)
	s.rebuildBacklinks(notes)
	index.Rebuild(notes)

	logger.Info("store: loaded", slog.Int("notes", len(notes)))
	return s, nil
}

// Snapshot returns the current immutable view of the collection.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Get returns a copy of the note with the given id.
func (s *Store) Get(id string) (*models.Note, error) {
	n, ok := s.Snapshot().ByID(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return n.Clone(), nil
}

// Upsert creates or updates a note. A new note gets a generated ULID and
// CreatedAt; an empty UpdatedAt is stamped with the current time (merge
// results arrive with UpdatedAt already set). Tags are normalized and
// merged with body #tags; Links are recomputed from the body. When the
// title set changes, every note's links are recomputed, since
// title-based references may now resolve differently.
func (s *Store) Upsert(in *models.Note) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	now := time.Now().UTC()

	n := in.Clone()
	var prev *models.Note
	if n.ID == "" {
		n.ID = ulid.Make().String()
		n.CreatedAt = now
	} else if existing, ok := cur.ByID(n.ID); ok {
		prev = existing
		n.CreatedAt = existing.CreatedAt
	} else if n.CreatedAt.IsZero() {
		// Remote note arriving with a pre-assigned id.
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = now
	}
	n.Tags = models.NormalizeTags(append(n.Tags, links.ExtractTags(n.Body)...))

	// Build the prospective collection and resolve links against it, so
	// self-links and references to this note's new title resolve.
	prosp, seq := replaceOrAppend(cur.Notes(), n)
	prospSnap := newSnapshot(prosp)
	n.Links = links.Resolve(n.Body, prospSnap)

	titleSetChanged := prev == nil || prev.Title != n.Title
	changed := map[string]*models.Note{n.ID: n}
	if titleSetChanged {
		for _, other := range prosp {
			if other.ID == n.ID {
				continue
			}
			resolved := links.Resolve(other.Body, prospSnap)
			if !slices.Equal(resolved, other.Links) {
				upd := other.Clone()
				upd.Links = resolved
				changed[upd.ID] = upd
			}
		}
	}

	// Write-ahead: commit every affected record before touching memory.
	for _, c := range changed {
		if err := s.putNote(c); err != nil {
			return nil, err
		}
	}
	if prev != nil {
		s.archiveVersion(prev, now)
	}

	final := make([]*models.Note, len(prosp))
	for i, orig := range prosp {
		if upd, ok := changed[orig.ID]; ok {
			final[i] = upd
		} else {
			final[i] = orig
		}
	}

	if titleSetChanged {
		s.rebuildBacklinks(final)
	} else {
		var old []string
		if prev != nil {
			old = prev.Links
		}
		s.backlinks.Apply(n.ID, old, n.Links)
	}
	s.index.Upsert(n, seq)
	s.snap.Store(newSnapshot(final))

	return n.Clone(), nil
}

// Delete removes a note from the backend, the collection, the backlink
// index (as key and as source), and the search index. Remaining notes'
// links are recomputed because a title just left the collection.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	prev, ok := cur.ByID(id)
	if !ok {
		return apperr.ErrNotFound
	}

	prosp := make([]*models.Note, 0, cur.Len()-1)
	for _, n := range cur.Notes() {
		if n.ID != id {
			prosp = append(prosp, n)
		}
	}
	prospSnap := newSnapshot(prosp)

	changed := make(map[string]*models.Note)
	for _, other := range prosp {
		resolved := links.Resolve(other.Body, prospSnap)
		if !slices.Equal(resolved, other.Links) {
			upd := other.Clone()
			upd.Links = resolved
			changed[upd.ID] = upd
		}
	}

	if err := s.backend.Delete(notePrefix + id); err != nil {
		return err
	}
	for _, c := range changed {
		if err := s.putNote(c); err != nil {
			return err
		}
	}
	s.deleteVersions(id)

	final := make([]*models.Note, len(prosp))
	for i, orig := range prosp {
		if upd, ok := changed[orig.ID]; ok {
			final[i] = upd
		} else {
			final[i] = orig
		}
	}

	s.backlinks.Remove(id, prev.Links)
	s.rebuildBacklinks(final) // other notes' links may have changed too
	s.index.Remove(id)
	s.snap.Store(newSnapshot(final))

	return nil
}

// Backlinks returns every note whose Links contain id, in id order.
func (s *Store) Backlinks(id string) []*models.Note {
	s.mu.Lock()
	sources := s.backlinks.Get(id)
	s.mu.Unlock()

	snap := s.Snapshot()
	out := make([]*models.Note, 0, len(sources))
	for _, src := range sources {
		if n, ok := snap.ByID(src); ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (s *Store) putNote(n *models.Note) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", n.ID, err)
	}
	return s.backend.Put(notePrefix+n.ID, data)
}

func (s *Store) rebuildBacklinks(notes []*models.Note) {
	forward := make(map[string][]string, len(notes))
	for _, n := range notes {
		forward[n.ID] = n.Links
	}
	s.backlinks.Rebuild(forward)
}

func replaceOrAppend(notes []*models.Note, n *models.Note) ([]*models.Note, int) {
	out := make([]*models.Note, len(notes))
	copy(out, notes)
	for i, existing := range out {
		if existing.ID == n.ID {
			out[i] = n
			return out, i
		}
	}
	return append(out, n), len(out)
}
