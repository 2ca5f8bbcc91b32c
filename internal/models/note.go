// Package models defines the domain types for Ansuz.
package models

import (
	"slices"
	"strings"
	"time"
)

// Note is the primary entity: a short text document connected to other
// notes through typed references.
type Note struct {
	// ID is a ULID: globally unique, lexicographically sortable,
	// immutable once assigned.
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`

	// Tags are normalized: lowercase, "#"-prefixed, deduplicated.
	Tags []string `json:"tags,omitempty"`

	// Links holds outgoing references found in Body at last resolution
	// time. Computed, never hand-edited.
	Links []string `json:"links,omitempty"`

	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so that published snapshots stay immutable.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	c.Links = slices.Clone(n.Links)
	return &c
}

// HasLink reports whether the note's outgoing links contain target.
func (n *Note) HasLink(target string) bool {
	return slices.Contains(n.Links, target)
}

// NormalizeTag lowercases a tag and ensures the "#" prefix. Empty input
// (or a bare "#") normalizes to the empty string.
func NormalizeTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = strings.TrimPrefix(t, "#")
	if t == "" {
		return ""
	}
	return "#" + t
}

// NormalizeTags normalizes, deduplicates, and sorts a tag list.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, raw := range tags {
		t := NormalizeTag(raw)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Replica identifies an independently operating copy of the collection.
type Replica struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"last_seen"`
}

// NoteVersion is an archived revision of a note.
type NoteVersion struct {
	NoteID     string    `json:"note_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tags       []string  `json:"tags,omitempty"`
	ArchivedAt time.Time `json:"archived_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
