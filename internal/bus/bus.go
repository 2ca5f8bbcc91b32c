// Package bus is the broadcast channel replicas communicate over.
// Delivery is at-most-once and unordered: messages may be dropped and no
// ordering holds between replicas. A loopback implementation connects
// replicas in one process; a websocket implementation relays between
// processes through a hub.
package bus

import (
	"time"

	"github.com/starford/ansuz/internal/models"
)

// Message types.
const (
	TypePresence     = "presence"
	TypeNoteChange   = "note-change"
	TypeSyncRequest  = "sync-request"
	TypeSyncResponse = "sync-response"
)

// Message is the wire payload exchanged between replicas.
type Message struct {
	Type      string    `json:"type"`
	ReplicaID string    `json:"replica_id"`
	Timestamp time.Time `json:"timestamp,omitzero"`

	// Note is set on note-change and sync-response.
	Note *models.Note `json:"note,omitempty"`
	// NoteID is set on sync-request.
	NoteID string `json:"note_id,omitempty"`
	// CorrelationID pairs a sync-request with its response.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Channel is one replica's endpoint on the broadcast medium. A replica
// does not receive its own publications.
type Channel interface {
	// Publish broadcasts a message to the other replicas. Best effort:
	// slow receivers may drop it.
	Publish(msg Message) error
	// Receive returns the stream of incoming messages. The channel is
	// closed when the endpoint closes.
	Receive() <-chan Message
	// Close detaches the endpoint.
	Close()
}
