package links

import (
	"slices"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Collection is the read-only view of the note collection that
// resolution runs against. A store snapshot satisfies it.
type Collection interface {
	// ByID returns the note with the given id.
	ByID(id string) (*models.Note, bool)
	// ByTitle returns the note whose title matches after case-folding.
	ByTitle(title string) (*models.Note, bool)
}

// Resolve parses the wikilink tokens out of body and resolves them
// against the collection. Title tokens match case-insensitively and
// exactly; ID:<id> tokens resolve by direct lookup. Tokens that do not
// resolve are dropped. Resolution never creates notes; duplicates
// collapse to a single entry. The result is sorted for determinism.
func Resolve(body string, coll Collection) []string {
	tokens := ExtractTokens(body)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	add := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, tok := range tokens {
		switch {
		case tok.ID != "":
			if _, ok := coll.ByID(tok.ID); ok {
				add(tok.ID)
			}
		default:
			title := strings.TrimSpace(tok.Title)
			if title == "" {
				continue
			}
			if n, ok := coll.ByTitle(title); ok {
				add(n.ID)
			}
		}
	}
	slices.Sort(out)
	return out
}
