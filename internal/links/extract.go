// Package links extracts wikilink references from note bodies, resolves
// them against the live collection, and maintains the backlink index.
package links

import (
	"regexp"
	"strings"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	tagRe      = regexp.MustCompile(`(?i)#[a-z0-9_-]+`)
)

// idPrefix marks a wikilink that references a note by id instead of title.
const idPrefix = "ID:"

// Token is a single wikilink occurrence found in a body.
type Token struct {
	// Raw is the captured text between the brackets.
	Raw string
	// ID is set when the token uses the ID:<id> form.
	ID string
	// Title is set when the token references a note by title.
	Title string
}

// ExtractTokens returns every wikilink token in body, in order of
// appearance, duplicates included.
func ExtractTokens(body string) []Token {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	out := make([]Token, 0, len(matches))
	for _, m := range matches {
		raw := m[1]
		tok := Token{Raw: raw}
		if rest, ok := strings.CutPrefix(raw, idPrefix); ok {
			tok.ID = rest
		} else {
			tok.Title = raw
		}
		out = append(out, tok)
	}
	return out
}

// ExtractTags returns the lowercased #tags found in body, deduplicated,
// in order of first appearance.
func ExtractTags(body string) []string {
	matches := tagRe.FindAllString(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		t := strings.ToLower(m)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
