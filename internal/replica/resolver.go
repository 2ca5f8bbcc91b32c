package replica

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/bus"
	"github.com/starford/ansuz/internal/models"
)

// NoteStore is the slice of the service layer the resolver needs.
type NoteStore interface {
	// Get returns the local copy of a note.
	Get(id string) (*models.Note, error)
	// Apply writes a remotely-sourced note through the normal upsert
	// pipeline without re-broadcasting it.
	Apply(n *models.Note) (*models.Note, error)
}

// State of one note-sync exchange.
type State int

const (
	StateIdle State = iota
	StateRequested
	StateResolved
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateResolved:
		return "resolved"
	case StateTimedOut:
		return "timed_out"
	default:
		return "idle"
	}
}

// Config tunes the resolver.
type Config struct {
	// Tolerance is the timestamp window within which a remote change is
	// merged directly instead of triggering a sync exchange.
	Tolerance time.Duration
	// Timeout bounds how long a sync request waits for its response.
	Timeout time.Duration
	// Heartbeat is the presence broadcast interval.
	Heartbeat time.Duration
}

func (c *Config) applyDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = 3 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = 15 * time.Second
	}
}

type pendingSync struct {
	correlationID string
	timer         *time.Timer
}

// Resolver reconciles the local collection against remote replicas.
type Resolver struct {
	replicaID string
	store     NoteStore
	ch        bus.Channel
	logger    *slog.Logger
	cfg       Config

	mu      sync.Mutex
	pending map[string]*pendingSync // note id -> outstanding request
	peers   map[string]time.Time    // replica id -> last seen
}

// New creates a resolver for one replica endpoint.
func New(replicaID string, store NoteStore, ch bus.Channel, logger *slog.Logger, cfg Config) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &Resolver{
		replicaID: replicaID,
		store:     store,
		ch:        ch,
		logger:    logger,
		cfg:       cfg,
		pending:   make(map[string]*pendingSync),
		peers:     make(map[string]time.Time),
	}
}

// Run processes bus messages and presence heartbeats until ctx is
// cancelled or the channel closes.
func (r *Resolver) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Heartbeat)
	defer ticker.Stop()
	defer r.cancelPending()

	r.publishPresence()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.publishPresence()
			r.expirePeers()
		case msg, ok := <-r.ch.Receive():
			if !ok {
				return nil
			}
			r.handle(msg)
		}
	}
}

// NotifyLocalChange broadcasts a local mutation to the other replicas.
func (r *Resolver) NotifyLocalChange(n *models.Note) {
	msg := bus.Message{
		Type:      bus.TypeNoteChange,
		ReplicaID: r.replicaID,
		Timestamp: time.Now().UTC(),
		Note:      n,
	}
	if err := r.ch.Publish(msg); err != nil {
		r.logger.Warn("replica: publish note-change failed", slog.String("error", err.Error()))
	}
}

// Peers returns the currently known live replicas.
func (r *Resolver) Peers() []models.Replica {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Replica, 0, len(r.peers))
	for id, seen := range r.peers {
		out = append(out, models.Replica{ID: id, LastSeen: seen})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PendingState reports the exchange state for a note: StateRequested
// while a sync request is outstanding, StateIdle otherwise.
func (r *Resolver) PendingState(noteID string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[noteID]; ok {
		return StateRequested
	}
	return StateIdle
}

func (r *Resolver) handle(msg bus.Message) {
	if msg.ReplicaID == r.replicaID {
		return
	}
	switch msg.Type {
	case bus.TypePresence:
		r.mu.Lock()
		r.peers[msg.ReplicaID] = time.Now().UTC()
		r.mu.Unlock()
	case bus.TypeNoteChange:
		if msg.Note != nil {
			r.handleRemoteChange(msg.Note)
		}
	case bus.TypeSyncRequest:
		r.handleSyncRequest(msg)
	case bus.TypeSyncResponse:
		r.handleSyncResponse(msg)
	default:
		r.logger.Debug("replica: ignoring unknown message type", slog.String("type", msg.Type))
	}
}

// handleRemoteChange merges a remote edit directly when the timestamps
// are within tolerance (or the note is new here). A larger divergence
// means this replica may have missed intermediate changes, so it asks
// the remote side for its authoritative copy first.
func (r *Resolver) handleRemoteChange(remote *models.Note) {
	local, err := r.store.Get(remote.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		if _, err := r.store.Apply(remote.Clone()); err != nil {
			r.logger.Warn("replica: apply new remote note failed",
				slog.String("id", remote.ID), slog.String("error", err.Error()))
		}
		return
	}
	if err != nil {
		r.logger.Warn("replica: local lookup failed",
			slog.String("id", remote.ID), slog.String("error", err.Error()))
		return
	}

	diff := local.UpdatedAt.Sub(remote.UpdatedAt)
	if diff < 0 {
		diff = -diff
	}
	if diff <= r.cfg.Tolerance {
		r.merge(local, remote)
		return
	}
	r.sendSyncRequest(remote.ID)
}

// sendSyncRequest moves the note's exchange to REQUESTED under a fresh
// correlation id. A newer request supersedes an outstanding one, so a
// late response to the old id is discarded.
func (r *Resolver) sendSyncRequest(noteID string) {
	correlationID := uuid.NewString()

	r.mu.Lock()
	if prev, ok := r.pending[noteID]; ok {
		prev.timer.Stop()
	}
	p := &pendingSync{correlationID: correlationID}
	p.timer = time.AfterFunc(r.cfg.Timeout, func() { r.onTimeout(noteID, correlationID) })
	r.pending[noteID] = p
	r.mu.Unlock()

	msg := bus.Message{
		Type:          bus.TypeSyncRequest,
		ReplicaID:     r.replicaID,
		Timestamp:     time.Now().UTC(),
		NoteID:        noteID,
		CorrelationID: correlationID,
	}
	if err := r.ch.Publish(msg); err != nil {
		r.logger.Warn("replica: publish sync-request failed",
			slog.String("note_id", noteID), slog.String("error", err.Error()))
	}
}

// handleSyncRequest answers with the local copy. Notes this replica does
// not hold are simply not answered; the requester times out and keeps
// its own version.
func (r *Resolver) handleSyncRequest(msg bus.Message) {
	local, err := r.store.Get(msg.NoteID)
	if err != nil {
		return
	}
	resp := bus.Message{
		Type:          bus.TypeSyncResponse,
		ReplicaID:     r.replicaID,
		Timestamp:     time.Now().UTC(),
		Note:          local,
		CorrelationID: msg.CorrelationID,
	}
	if err := r.ch.Publish(resp); err != nil {
		r.logger.Warn("replica: publish sync-response failed",
			slog.String("note_id", msg.NoteID), slog.String("error", err.Error()))
	}
}

// handleSyncResponse completes an exchange when the correlation id
// matches the most recent outstanding request for that note; stale and
// duplicate responses are discarded.
func (r *Resolver) handleSyncResponse(msg bus.Message) {
	if msg.Note == nil {
		return
	}
	noteID := msg.Note.ID

	r.mu.Lock()
	p, ok := r.pending[noteID]
	if !ok || p.correlationID != msg.CorrelationID {
		r.mu.Unlock()
		r.logger.Debug("replica: discarding stale sync-response",
			slog.String("note_id", noteID), slog.String("correlation_id", msg.CorrelationID))
		return
	}
	p.timer.Stop()
	delete(r.pending, noteID)
	r.mu.Unlock()

	local, err := r.store.Get(noteID)
	if errors.Is(err, apperr.ErrNotFound) {
		if _, err := r.store.Apply(msg.Note.Clone()); err != nil {
			r.logger.Warn("replica: apply sync-response failed",
				slog.String("id", noteID), slog.String("error", err.Error()))
		}
		return
	}
	if err != nil {
		return
	}
	r.merge(local, msg.Note)
	r.logger.Info("replica: conflict resolved",
		slog.String("note_id", noteID), slog.String("state", StateResolved.String()))
}

func (r *Resolver) merge(local, remote *models.Note) {
	merged := Merge(local, remote)
	if _, err := r.store.Apply(merged); err != nil {
		r.logger.Warn("replica: apply merge failed",
			slog.String("id", merged.ID), slog.String("error", err.Error()))
	}
}

// onTimeout fires when no matching response arrived in time. The local
// version stays authoritative until a later exchange succeeds.
func (r *Resolver) onTimeout(noteID, correlationID string) {
	r.mu.Lock()
	p, ok := r.pending[noteID]
	if !ok || p.correlationID != correlationID {
		r.mu.Unlock()
		return
	}
	delete(r.pending, noteID)
	r.mu.Unlock()

	r.logger.Warn("replica: sync request timed out, keeping local version",
		slog.String("note_id", noteID), slog.String("state", StateTimedOut.String()))
}

func (r *Resolver) publishPresence() {
	msg := bus.Message{
		Type:      bus.TypePresence,
		ReplicaID: r.replicaID,
		Timestamp: time.Now().UTC(),
	}
	if err := r.ch.Publish(msg); err != nil {
		r.logger.Debug("replica: publish presence failed", slog.String("error", err.Error()))
	}
}

// expirePeers drops replicas that missed three heartbeats.
func (r *Resolver) expirePeers() {
	cutoff := time.Now().UTC().Add(-3 * r.cfg.Heartbeat)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, seen := range r.peers {
		if seen.Before(cutoff) {
			delete(r.peers, id)
		}
	}
}

func (r *Resolver) cancelPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pending {
		p.timer.Stop()
		delete(r.pending, id)
	}
}
