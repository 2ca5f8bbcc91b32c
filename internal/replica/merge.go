// Package replica reconciles divergent concurrent edits across
// replicas: a per-note sync state machine over the broadcast bus and a
// timestamp-ordered, field-level merge.
package replica

import (
	"github.com/starford/ansuz/internal/models"
)

// Merge reconciles two versions of the same note. Scalar fields resolve
// last-write-wins on UpdatedAt; tags merge by set union; links are
// discarded so the resolver pipeline recomputes them from the merged
// body; UpdatedAt becomes the maximum of both sides. Merge is symmetric:
// Merge(a, b) and Merge(b, a) produce the same note.
func Merge(local, remote *models.Note) *models.Note {
	winner, loser := local, remote
	switch {
	case remote.UpdatedAt.After(local.UpdatedAt):
		winner, loser = remote, local
	case local.UpdatedAt.After(remote.UpdatedAt):
		// local wins
	default:
		// Equal timestamps: break the tie deterministically on content
		// so both replicas converge on the same version.
		if lessContent(remote, local) {
			winner, loser = remote, local
		}
	}

	merged := winner.Clone()
	merged.Tags = models.NormalizeTags(append(append([]string{}, local.Tags...), remote.Tags...))
	merged.Links = nil
	merged.UpdatedAt = winner.UpdatedAt
	if loser.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = loser.UpdatedAt
	}
	if loser.CreatedAt.Before(merged.CreatedAt) && !loser.CreatedAt.IsZero() {
		merged.CreatedAt = loser.CreatedAt
	}
	return merged
}

func lessContent(a, b *models.Note) bool {
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Body < b.Body
}
