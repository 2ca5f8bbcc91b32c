package api

import (
	"time"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/query"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// QueryRequest carries a query statement.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse wraps query result rows.
type QueryResponse struct {
	Rows  []query.Row `json:"rows"`
	Total int         `json:"total"`
}

// GraphResponse wraps the knowledge graph.
type GraphResponse struct {
	Nodes []noteservice.GraphNode `json:"nodes"`
	Links []noteservice.GraphLink `json:"links"`
}

// ReplicaInfo describes one known peer replica.
type ReplicaInfo struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"last_seen"`
}

// ReplicasResponse wraps the replica listing.
type ReplicasResponse struct {
	Self  string        `json:"self"`
	Peers []ReplicaInfo `json:"peers"`
}
