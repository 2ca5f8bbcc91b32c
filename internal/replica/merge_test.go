package replica

import (
	"reflect"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
)

func TestMerge_LastWriteWins(t *testing.T) {
	t1 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	local := &models.Note{
		ID: "n1", Title: "Old", Body: "old body",
		Tags: []string{"#a"}, Links: []string{"x"},
		CreatedAt: t1, UpdatedAt: t1,
	}
	remote := &models.Note{
		ID: "n1", Title: "New", Body: "new body",
		Tags: []string{"#b"}, Links: []string{"y"},
		CreatedAt: t1, UpdatedAt: t2,
	}

	m := Merge(local, remote)
	if m.Title != "New" || m.Body != "new body" {
		t.Errorf("scalar fields = %q/%q, want remote's", m.Title, m.Body)
	}
	if want := []string{"#a", "#b"}; !reflect.DeepEqual(m.Tags, want) {
		t.Errorf("Tags = %v, want union %v", m.Tags, want)
	}
	if m.Links != nil {
		t.Errorf("Links = %v, want nil (recomputed downstream)", m.Links)
	}
	if !m.UpdatedAt.Equal(t2) {
		t.Errorf("UpdatedAt = %v, want max %v", m.UpdatedAt, t2)
	}
}

func TestMerge_Symmetric(t *testing.T) {
	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	a := &models.Note{ID: "n1", Title: "Aardvark", Body: "a", Tags: []string{"#a"}, CreatedAt: ts, UpdatedAt: ts}
	b := &models.Note{ID: "n1", Title: "Zebra", Body: "z", Tags: []string{"#z"}, CreatedAt: ts, UpdatedAt: ts}

	ab := Merge(a, b)
	ba := Merge(b, a)
	if !reflect.DeepEqual(ab, ba) {
		t.Errorf("Merge not symmetric:\n a,b: %+v\n b,a: %+v", ab, ba)
	}
}

func TestMerge_KeepsEarliestCreatedAt(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.AddDate(0, 0, 5)
	t2 := t1.Add(time.Hour)

	local := &models.Note{ID: "n1", CreatedAt: t0, UpdatedAt: t1}
	remote := &models.Note{ID: "n1", CreatedAt: t1, UpdatedAt: t2}

	m := Merge(local, remote)
	if !m.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want earliest %v", m.CreatedAt, t0)
	}
}
