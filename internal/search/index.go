// Package search implements the inverted full-text index and relevance
// scoring over the note collection.
package search

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/starford/ansuz/internal/models"
)

// Field identifies the source field of a posting.
type Field string

const (
	FieldTitle Field = "title"
	FieldBody  Field = "body"
	FieldTags  Field = "tags"
)

// Scoring weights. A hit contributes:
//
//	substringScore when the full query occurs anywhere in the note text,
//	wordScore per exact word-boundary match of a token,
//	titleScore when a token occurs inside the title,
//	tagScore per tag containing a token as a substring.
const (
	substringScore = 3
	wordScore      = 2
	titleScore     = 5
	tagScore       = 4
)

// Posting records one token occurrence source.
type Posting struct {
	NoteID string
	Field  Field
	Weight int
}

// Result is a single ranked hit.
type Result struct {
	NoteID string
	Title  string
	Score  int
}

// doc is the per-note state the index keeps so queries never have to
// consult the collection.
type doc struct {
	id         string
	titleLower string
	tagsLower  []string
	concat     string         // lowercased title+body+tags
	wordCounts map[string]int // word-boundary token counts over concat
	title      string
	updatedAt  time.Time
	seq        int // original collection order, final tiebreak
}

// Index is an inverted index over note text. It is safe for concurrent
// use: the store updates it under its mutation lock while queries read.
type Index struct {
	mu       sync.RWMutex
	docs     map[string]*doc
	postings map[string][]Posting
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		docs:     make(map[string]*doc),
		postings: make(map[string][]Posting),
	}
}

// Tokenize case-folds s and splits it on runs of non-alphanumeric
// characters. No stemming, no stopword removal.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Rebuild constructs the index from scratch. Rebuilding twice from the
// same collection yields identical query results.
func (ix *Index) Rebuild(notes []*models.Note) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = make(map[string]*doc, len(notes))
	ix.postings = make(map[string][]Posting)
	for i, n := range notes {
		ix.insert(n, i)
	}
}

// Upsert removes the postings for one note and reinserts its current
// state. Equivalent to a full rebuild for query purposes.
func (ix *Index) Upsert(n *models.Note, seq int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.remove(n.ID)
	ix.insert(n, seq)
}

// Remove drops a note from the index.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.remove(id)
}

// Postings returns the postings list for a token.
func (ix *Index) Postings(token string) []Posting {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Posting, len(ix.postings[token]))
	copy(out, ix.postings[token])
	return out
}

func (ix *Index) insert(n *models.Note, seq int) {
	tagsJoined := strings.Join(n.Tags, " ")
	concat := strings.ToLower(n.Title + " " + n.Body + " " + tagsJoined)

	d := &doc{
		id:         n.ID,
		title:      n.Title,
		titleLower: strings.ToLower(n.Title),
		concat:     concat,
		wordCounts: make(map[string]int),
		updatedAt:  n.UpdatedAt,
		seq:        seq,
	}
	for _, t := range n.Tags {
		d.tagsLower = append(d.tagsLower, strings.ToLower(t))
	}
	for _, tok := range Tokenize(concat) {
		d.wordCounts[tok]++
	}
	ix.docs[n.ID] = d

	for field, text := range map[Field]string{
		FieldTitle: n.Title,
		FieldBody:  n.Body,
		FieldTags:  tagsJoined,
	} {
		weight := wordScore
		switch field {
		case FieldTitle:
			weight = titleScore
		case FieldTags:
			weight = tagScore
		}
		for _, tok := range Tokenize(text) {
			ix.postings[tok] = append(ix.postings[tok], Posting{NoteID: n.ID, Field: field, Weight: weight})
		}
	}
}

func (ix *Index) remove(id string) {
	if _, ok := ix.docs[id]; !ok {
		return
	}
	delete(ix.docs, id)
	for tok, list := range ix.postings {
		kept := list[:0]
		for _, p := range list {
			if p.NoteID != id {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(ix.postings, tok)
		} else {
			ix.postings[tok] = kept
		}
	}
}

// Query tokenizes q the same way the index is built and returns notes
// ranked by relevance. Per token a note scores substringScore when the
// full query occurs in its text, wordScore per word-boundary match,
// titleScore for a title hit, and tagScore per matching tag. Zero-score
// notes are excluded. Ties break on most recent UpdatedAt, then on
// original collection order.
func (ix *Index) Query(q string) []Result {
	tokens := Tokenize(q)
	if len(tokens) == 0 {
		return nil
	}
	full := strings.ToLower(strings.TrimSpace(q))

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var results []Result
	order := make(map[string]*doc, len(ix.docs))
	for id, d := range ix.docs {
		score := 0
		for _, tok := range tokens {
			if full != "" && strings.Contains(d.concat, full) {
				score += substringScore
			}
			score += wordScore * d.wordCounts[tok]
			if strings.Contains(d.titleLower, tok) {
				score += titleScore
			}
			for _, tag := range d.tagsLower {
				if strings.Contains(tag, tok) {
					score += tagScore
				}
			}
		}
		if score > 0 {
			order[id] = d
			results = append(results, Result{NoteID: id, Title: d.title, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		da, db := order[a.NoteID], order[b.NoteID]
		if !da.updatedAt.Equal(db.updatedAt) {
			return da.updatedAt.After(db.updatedAt)
		}
		return da.seq < db.seq
	})
	return results
}
