// Package noteservice coordinates the store, the search index, event
// broadcasting and replica sync behind one API used by the HTTP and MCP
// surfaces.
package noteservice

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/query"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/store"
)

// Notifier receives note change events for connected clients.
// Implemented by sse.Broker.
type Notifier interface {
	PublishNoteEvent(kind, id string)
}

// Publisher announces local changes to remote replicas.
// Implemented by replica.Resolver.
type Publisher interface {
	NotifyLocalChange(n *models.Note)
}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Links     []string  `json:"links"`
	Backlinks []string  `json:"backlinks"`
	Color     string    `json:"color,omitempty"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphNode is one vertex of the link graph.
type GraphNode struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// GraphLink is one directed edge of the link graph.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Service coordinates store and index operations.
type Service struct {
	store  *store.Store
	index  *search.Index
	events Notifier
	peers  Publisher
}

// NewService creates a new note service. events and peers may be nil,
// in which case the corresponding notifications are skipped.
func NewService(st *store.Store, ix *search.Index, events Notifier, peers Publisher) *Service {
	return &Service{store: st, index: ix, events: events, peers: peers}
}

// SetPeers attaches the replica publisher. The resolver consumes the
// service, so it is wired in after both exist.
func (s *Service) SetPeers(p Publisher) {
	s.peers = p
}

// Get returns the raw local copy of a note. Part of the surface the
// conflict resolver consumes.
func (s *Service) Get(id string) (*models.Note, error) {
	return s.store.Get(id)
}

// Apply writes a remotely-sourced note through the normal upsert
// pipeline and announces it to connected clients, without echoing it
// back to the replica bus. A first-seen note is announced as created;
// one that reconciled with a local copy as merged. Part of the surface
// the conflict resolver consumes.
func (s *Service) Apply(n *models.Note) (*models.Note, error) {
	kind := "merged"
	if _, err := s.store.Get(n.ID); errors.Is(err, apperr.ErrNotFound) {
		kind = "created"
	}
	out, err := s.store.Upsert(n)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.PublishNoteEvent(kind, out.ID)
	}
	return out, nil
}

// GetNote returns a note enriched with backlinks.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	n, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(n), nil
}

// CreateNote validates input, persists a new note, and broadcasts the
// change locally and to replicas.
func (s *Service) CreateNote(_ context.Context, in NoteInput) (*NoteDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	n, err := s.store.Upsert(&models.Note{
		Title: in.Title,
		Body:  in.Body,
		Tags:  in.Tags,
		Color: in.Color,
	})
	if err != nil {
		return nil, err
	}
	s.announce("created", n)
	return s.buildNoteDetail(n), nil
}

// UpdateNote writes updated content with optimistic concurrency. When
// ifMatch is non-empty it must equal the current checksum.
func (s *Service) UpdateNote(_ context.Context, id string, in NoteInput, ifMatch string) (*NoteDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != noteChecksum(existing) {
		return nil, apperr.ErrConflict
	}
	n, err := s.store.Upsert(&models.Note{
		ID:    id,
		Title: in.Title,
		Body:  in.Body,
		Tags:  in.Tags,
		Color: in.Color,
	})
	if err != nil {
		return nil, err
	}
	s.announce("updated", n)
	return s.buildNoteDetail(n), nil
}

// DeleteNote removes a note. Deletions stay local; replicas keep their
// copy until they delete it themselves.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if s.events != nil {
		s.events.PublishNoteEvent("deleted", id)
	}
	return nil
}

// ListNotes returns paginated notes with optional tag filter. Sort is
// one of "updated" (default, newest first), "created" or "title".
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	notes := s.store.Snapshot().Notes()
	if tag != "" {
		want := models.NormalizeTag(tag)
		filtered := make([]*models.Note, 0, len(notes))
		for _, n := range notes {
			if slices.Contains(n.Tags, want) {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}

	sorted := make([]*models.Note, len(notes))
	copy(sorted, notes)
	switch sort {
	case "title":
		slices.SortStableFunc(sorted, func(a, b *models.Note) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case "created":
		slices.SortStableFunc(sorted, func(a, b *models.Note) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	default:
		slices.SortStableFunc(sorted, func(a, b *models.Note) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}

	total := len(sorted)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	items := make([]NoteListItem, 0, end-offset)
	for _, n := range sorted[offset:end] {
		items = append(items, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Tags:      nonNilSlice(n.Tags),
			Checksum:  noteChecksum(n),
			UpdatedAt: n.UpdatedAt,
		})
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, q string, limit int) []search.Result {
	results := s.index.Query(q)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// RunQuery executes a query statement over the current snapshot.
func (s *Service) RunQuery(_ context.Context, input string) ([]query.Row, error) {
	return query.Run(input, s.store.Snapshot().Notes())
}

// Aggregate executes an aggregate query over the current snapshot.
func (s *Service) Aggregate(_ context.Context, input string) (*query.Summary, error) {
	return query.Aggregate(input, s.store.Snapshot().Notes())
}

// Graph returns all nodes and directed link edges.
func (s *Service) Graph(_ context.Context) ([]GraphNode, []GraphLink) {
	notes := s.store.Snapshot().Notes()
	nodes := make([]GraphNode, 0, len(notes))
	glinks := make([]GraphLink, 0)
	for _, n := range notes {
		nodes = append(nodes, GraphNode{ID: n.ID, Title: n.Title, Tags: nonNilSlice(n.Tags)})
		for _, target := range n.Links {
			glinks = append(glinks, GraphLink{Source: n.ID, Target: target})
		}
	}
	return nodes, glinks
}

// Backlinks returns the notes that link to id.
func (s *Service) Backlinks(_ context.Context, id string) ([]NoteListItem, error) {
	if _, err := s.store.Get(id); err != nil {
		return nil, err
	}
	sources := s.store.Backlinks(id)
	items := make([]NoteListItem, 0, len(sources))
	for _, n := range sources {
		items = append(items, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Tags:      nonNilSlice(n.Tags),
			Checksum:  noteChecksum(n),
			UpdatedAt: n.UpdatedAt,
		})
	}
	return items, nil
}

// Versions returns archived revisions of a note, newest first.
func (s *Service) Versions(_ context.Context, id string) ([]models.NoteVersion, error) {
	if _, err := s.store.Get(id); err != nil {
		return nil, err
	}
	return s.store.Versions(id)
}

// Keywords extracts the most frequent non-stopword terms from a note.
func (s *Service) Keywords(_ context.Context, id string, max int) ([]string, error) {
	n, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(search.Keywords(n.Title+" "+n.Body, max)), nil
}

func (s *Service) announce(kind string, n *models.Note) {
	if s.events != nil {
		s.events.PublishNoteEvent(kind, n.ID)
	}
	if s.peers != nil {
		s.peers.NotifyLocalChange(n)
	}
}

func (s *Service) buildNoteDetail(n *models.Note) *NoteDetail {
	bl := s.store.Backlinks(n.ID)
	blIDs := make([]string, 0, len(bl))
	for _, b := range bl {
		blIDs = append(blIDs, b.ID)
	}
	return &NoteDetail{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Tags:      nonNilSlice(n.Tags),
		Links:     nonNilSlice(n.Links),
		Backlinks: blIDs,
		Color:     n.Color,
		Checksum:  noteChecksum(n),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// noteChecksum is the optimistic concurrency token for a note. It
// covers the fields a client can race on.
func noteChecksum(n *models.Note) string {
	return checksum.SumFields(
		n.ID,
		n.Title,
		n.Body,
		strings.Join(n.Tags, ","),
		n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
