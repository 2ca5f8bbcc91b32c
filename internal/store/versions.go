package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// versionKey encodes the archive timestamp so the backend's
// lexicographic scan order is chronological.
func versionKey(noteID string, at time.Time) string {
	return fmt.Sprintf("%s%s:%020d", versionPrefix, noteID, at.UnixNano())
}

// archiveVersion stores the prior revision of a note before an update
// overwrites it. Archival is best-effort: a failed archive write is
// logged and does not fail the update.
func (s *Store) archiveVersion(prev *models.Note, at time.Time) {
	v := models.NoteVersion{
		NoteID:     prev.ID,
		Title:      prev.Title,
		Body:       prev.Body,
		Tags:       prev.Tags,
		ArchivedAt: at,
		UpdatedAt:  prev.UpdatedAt,
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.backend.Put(versionKey(prev.ID, at), data); err != nil {
		s.logger.Warn("store: archive version failed",
			slog.String("id", prev.ID), slog.String("error", err.Error()))
		return
	}
	s.pruneVersions(prev.ID)
}

// pruneVersions keeps at most maxVersions archives per note.
func (s *Store) pruneVersions(noteID string) {
	kvs, err := s.backend.Scan(versionPrefix + noteID + ":")
	if err != nil || len(kvs) <= maxVersions {
		return
	}
	for _, kv := range kvs[:len(kvs)-maxVersions] {
		if err := s.backend.Delete(kv.Key); err != nil {
			s.logger.Warn("store: prune version failed",
				slog.String("key", kv.Key), slog.String("error", err.Error()))
		}
	}
}

// deleteVersions removes every archived revision of a deleted note.
func (s *Store) deleteVersions(noteID string) {
	kvs, err := s.backend.Scan(versionPrefix + noteID + ":")
	if err != nil {
		return
	}
	for _, kv := range kvs {
		_ = s.backend.Delete(kv.Key)
	}
}

// Versions returns the archived revisions of a note, newest first.
func (s *Store) Versions(noteID string) ([]models.NoteVersion, error) {
	kvs, err := s.backend.Scan(versionPrefix + noteID + ":")
	if err != nil {
		return nil, fmt.Errorf("store: versions %s: %w", noteID, err)
	}
	out := make([]models.NoteVersion, 0, len(kvs))
	for i := len(kvs) - 1; i >= 0; i-- {
		var v models.NoteVersion
		if err := json.Unmarshal(kvs[i].Value, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
