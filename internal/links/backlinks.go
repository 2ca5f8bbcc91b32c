package links

import "slices"

// BacklinkIndex is the reverse-reference map: target id -> set of source
// ids whose Links contain it. It is derived state, maintained in the
// same critical section as link recomputation so it can never diverge
// from the forward Links sets. Not safe for concurrent use on its own;
// the owning store serializes access.
type BacklinkIndex struct {
	sources map[string]map[string]struct{}
}

// NewBacklinkIndex returns an empty index.
func NewBacklinkIndex() *BacklinkIndex {
	return &BacklinkIndex{sources: make(map[string]map[string]struct{})}
}

// Apply replaces the outgoing edges of source: old edges are removed,
// new ones added. Either slice may be nil.
func (b *BacklinkIndex) Apply(source string, oldLinks, newLinks []string) {
	for _, target := range oldLinks {
		if set, ok := b.sources[target]; ok {
			delete(set, source)
			if len(set) == 0 {
				delete(b.sources, target)
			}
		}
	}
	for _, target := range newLinks {
		set, ok := b.sources[target]
		if !ok {
			set = make(map[string]struct{})
			b.sources[target] = set
		}
		set[source] = struct{}{}
	}
}

// Remove drops a deleted note from the index: its own key entry and its
// appearances as a source inside other targets' entries.
func (b *BacklinkIndex) Remove(id string, outgoing []string) {
	b.Apply(id, outgoing, nil)
	delete(b.sources, id)
}

// Get returns the sorted source ids that link to target.
func (b *BacklinkIndex) Get(target string) []string {
	set, ok := b.sources[target]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Rebuild discards the index and rebuilds it from the forward Links sets.
func (b *BacklinkIndex) Rebuild(forward map[string][]string) {
	b.sources = make(map[string]map[string]struct{}, len(forward))
	for source, targets := range forward {
		b.Apply(source, nil, targets)
	}
}
