package search

import (
	"sort"
	"sync"

	"github.com/orsinium-labs/stopwords"
)

// english is loaded lazily; keyword extraction is the only consumer of
// stopword filtering. The core index never filters.
var english = sync.OnceValue(func() *stopwords.Stopwords {
	return stopwords.MustGet("en")
})

// Keywords returns the max most frequent non-stopword tokens of text,
// most frequent first, ties broken alphabetically. Single-character
// tokens are skipped.
func Keywords(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	counts := make(map[string]int)
	sw := english()
	for _, tok := range Tokenize(text) {
		if len(tok) < 2 || sw.Contains(tok) {
			continue
		}
		counts[tok]++
	}
	toks := make([]string, 0, len(counts))
	for tok := range counts {
		toks = append(toks, tok)
	}
	sort.Slice(toks, func(i, j int) bool {
		if counts[toks[i]] != counts[toks[j]] {
			return counts[toks[i]] > counts[toks[j]]
		}
		return toks[i] < toks[j]
	})
	if len(toks) > max {
		toks = toks[:max]
	}
	return toks
}
