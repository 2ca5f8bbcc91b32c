package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
)

// RouterConfig collects the dependencies of the API router.
type RouterConfig struct {
	Service     *noteservice.Service
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events (SSE).
	Events http.Handler
	// Sync, if non-nil, is mounted at GET /sync (WebSocket relay).
	Sync      http.Handler
	Peers     PeerLister
	ReplicaID string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Service, cfg.Peers, cfg.ReplicaID)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Get("/notes/{id}/backlinks", h.Backlinks)
	r.Get("/notes/{id}/versions", h.Versions)
	r.Get("/notes/{id}/keywords", h.Keywords)

	// Search and queries.
	r.Get("/search", h.Search)
	r.Post("/query", h.Query)
	r.Post("/aggregate", h.Aggregate)

	// Graph.
	r.Get("/graph", h.Graph)

	// Replication.
	r.Get("/replicas", h.Replicas)
	if cfg.Sync != nil {
		r.Get("/sync", cfg.Sync.ServeHTTP)
	}

	// SSE endpoint (protected by same auth middleware).
	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
