package search

import (
	"reflect"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Hello World", []string{"hello", "world"}},
		{"foo-bar_baz", []string{"foo", "bar", "baz"}},
		{"#go2 rocks!", []string{"go2", "rocks"}},
		{"  spaces   ", []string{"spaces"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQuery_EmptyQuery(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild([]*models.Note{{ID: "a", Title: "Alpha", Body: "text"}})
	if got := ix.Query(""); got != nil {
		t.Errorf("Query(\"\") = %v, want nil", got)
	}
	if got := ix.Query("  !!  "); got != nil {
		t.Errorf("Query(punctuation) = %v, want nil", got)
	}
}

func TestQuery_ZeroScoreExcluded(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild([]*models.Note{
		{ID: "a", Title: "Alpha", Body: "beta gamma"},
		{ID: "b", Title: "Unrelated", Body: "nothing here"},
	})
	results := ix.Query("beta")
	if len(results) != 1 || results[0].NoteID != "a" {
		t.Fatalf("Query(beta) = %v, want only note a", results)
	}
}

func TestQuery_ScoreComposition(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild([]*models.Note{
		{ID: "a", Title: "Alpha", Body: "beta gamma"},
	})
	results := ix.Query("beta")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	// Full-query substring (3) + one word-boundary hit (2).
	if results[0].Score != 5 {
		t.Errorf("score = %d, want 5", results[0].Score)
	}
}

func TestQuery_TitleHitOutranksBodyHit(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild([]*models.Note{
		{ID: "body", Title: "Other", Body: "beta here"},
		{ID: "title", Title: "Beta", Body: "something else"},
	})
	results := ix.Query("beta")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].NoteID != "title" {
		t.Errorf("top result = %s, want title-matching note", results[0].NoteID)
	}
}

func TestQuery_TagHitScores(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild([]*models.Note{
		{ID: "tagged", Title: "One", Body: "x", Tags: []string{"#beta"}},
		{ID: "plain", Title: "Two", Body: "beta x"},
	})
	results := ix.Query("beta")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Tagged: substring 3 + word 2 + tag 4 = 9. Plain: substring 3 + word 2 = 5.
	if results[0].NoteID != "tagged" {
		t.Errorf("top result = %s, want tagged note", results[0].NoteID)
	}
	if results[0].Score != 9 || results[1].Score != 5 {
		t.Errorf("scores = %d, %d, want 9, 5", results[0].Score, results[1].Score)
	}
}

func TestQuery_MultiTokenFullQueryBonus(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild([]*models.Note{
		{ID: "phrase", Title: "One", Body: "beta gamma together"},
		{ID: "partial", Title: "Two", Body: "beta alone"},
	})
	results := ix.Query("beta gamma")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Phrase note: full-query substring per token (3+3) + words beta, gamma (2+2) = 10.
	// Partial note: word beta only = 2.
	if results[0].NoteID != "phrase" || results[0].Score != 10 {
		t.Errorf("top = %s score %d, want phrase score 10", results[0].NoteID, results[0].Score)
	}
	if results[1].Score != 2 {
		t.Errorf("partial score = %d, want 2", results[1].Score)
	}
}

func TestQuery_TiesBreakOnUpdatedAtThenOrder(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	ix := NewIndex()
	ix.Rebuild([]*models.Note{
		{ID: "old", Title: "X", Body: "beta", UpdatedAt: t1},
		{ID: "new", Title: "Y", Body: "beta", UpdatedAt: t2},
	})
	results := ix.Query("beta")
	if results[0].NoteID != "new" {
		t.Errorf("top = %s, want more recently updated note", results[0].NoteID)
	}

	// Equal timestamps fall back to collection order.
	ix.Rebuild([]*models.Note{
		{ID: "first", Title: "X", Body: "beta", UpdatedAt: t1},
		{ID: "second", Title: "Y", Body: "beta", UpdatedAt: t1},
	})
	results = ix.Query("beta")
	if results[0].NoteID != "first" {
		t.Errorf("top = %s, want collection-order winner", results[0].NoteID)
	}
}

func TestRebuild_Idempotent(t *testing.T) {
	notes := []*models.Note{
		{ID: "a", Title: "Alpha", Body: "beta gamma", Tags: []string{"#x"}},
		{ID: "b", Title: "Beta", Body: "alpha", Tags: []string{"#y"}},
	}
	ix := NewIndex()
	ix.Rebuild(notes)
	first := ix.Query("alpha beta")
	ix.Rebuild(notes)
	second := ix.Query("alpha beta")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rebuild changed results: %v vs %v", first, second)
	}
}

func TestUpsertAndRemove(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild([]*models.Note{{ID: "a", Title: "Alpha", Body: "beta"}})

	ix.Upsert(&models.Note{ID: "a", Title: "Alpha", Body: "delta"}, 0)
	if got := ix.Query("beta"); got != nil {
		t.Errorf("Query(beta) after upsert = %v, want nil", got)
	}
	if got := ix.Query("delta"); len(got) != 1 {
		t.Errorf("Query(delta) after upsert = %v, want one hit", got)
	}

	ix.Remove("a")
	if got := ix.Query("delta"); got != nil {
		t.Errorf("Query(delta) after remove = %v, want nil", got)
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("the quick quick quick fox and the fox", 2)
	want := []string{"quick", "fox"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}

	// Ties break alphabetically.
	got = Keywords("banana apple banana apple", 5)
	want = []string{"apple", "banana"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords tie = %v, want %v", got, want)
	}

	if got := Keywords("whatever", 0); got != nil {
		t.Errorf("Keywords max=0 = %v, want nil", got)
	}
}
