package store_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

func TestUpsert_AssignsIDAndTimestamps(t *testing.T) {
	st, _ := testutil.Store(t)

	n, err := st.Upsert(&models.Note{Title: "Alpha", Body: "hello"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if n.ID == "" {
		t.Error("ID not assigned")
	}
	if n.CreatedAt.IsZero() || n.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}

	got, err := st.Get(n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Alpha" {
		t.Errorf("Title = %q, want Alpha", got.Title)
	}
}

func TestUpsert_MergesBodyTags(t *testing.T) {
	st, _ := testutil.Store(t)

	n := testutil.Seed(t, st, "Alpha", "working on #Work stuff", "Go")
	want := []string{"#go", "#work"}
	if !reflect.DeepEqual(n.Tags, want) {
		t.Errorf("Tags = %v, want %v", n.Tags, want)
	}
}

func TestUpsert_ResolvesLinks(t *testing.T) {
	st, _ := testutil.Store(t)

	beta := testutil.Seed(t, st, "Beta", "")
	alpha := testutil.Seed(t, st, "Alpha", fmt.Sprintf("by title [[Beta]] and by id [[ID:%s]]", beta.ID))

	if !reflect.DeepEqual(alpha.Links, []string{beta.ID}) {
		t.Errorf("Links = %v, want [%s]", alpha.Links, beta.ID)
	}
}

func TestUpsert_SelfLinkResolves(t *testing.T) {
	st, _ := testutil.Store(t)

	n := testutil.Seed(t, st, "Recursive", "this note cites [[Recursive]]")
	if !n.HasLink(n.ID) {
		t.Errorf("Links = %v, want self reference", n.Links)
	}
}

func TestUpsert_ForwardReferenceResolvesOnCreate(t *testing.T) {
	st, _ := testutil.Store(t)

	alpha := testutil.Seed(t, st, "Alpha", "see [[Future Note]]")
	if len(alpha.Links) != 0 {
		t.Fatalf("Links = %v, want none before target exists", alpha.Links)
	}

	future := testutil.Seed(t, st, "Future Note", "")

	got, err := st.Get(alpha.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.HasLink(future.ID) {
		t.Errorf("Links = %v, want link to %s after target created", got.Links, future.ID)
	}
}

func TestUpsert_TitleChangeRecomputesLinks(t *testing.T) {
	st, _ := testutil.Store(t)

	beta := testutil.Seed(t, st, "Beta", "")
	alpha := testutil.Seed(t, st, "Alpha", "see [[Beta]]")
	if !alpha.HasLink(beta.ID) {
		t.Fatalf("setup: Links = %v", alpha.Links)
	}

	// Renaming the target breaks the title reference.
	if _, err := st.Upsert(&models.Note{ID: beta.ID, Title: "Renamed"}); err != nil {
		t.Fatal(err)
	}
	got, _ := st.Get(alpha.ID)
	if got.HasLink(beta.ID) {
		t.Errorf("Links = %v, want reference gone after rename", got.Links)
	}

	// Renaming back restores it.
	if _, err := st.Upsert(&models.Note{ID: beta.ID, Title: "Beta"}); err != nil {
		t.Fatal(err)
	}
	got, _ = st.Get(alpha.ID)
	if !got.HasLink(beta.ID) {
		t.Errorf("Links = %v, want reference restored", got.Links)
	}
}

func TestBacklinks(t *testing.T) {
	st, _ := testutil.Store(t)

	beta := testutil.Seed(t, st, "Beta", "")
	alpha := testutil.Seed(t, st, "Alpha", "see [[Beta]]")

	back := st.Backlinks(beta.ID)
	if len(back) != 1 || back[0].ID != alpha.ID {
		t.Errorf("Backlinks = %v, want [%s]", back, alpha.ID)
	}
	if got := st.Backlinks(alpha.ID); len(got) != 0 {
		t.Errorf("Backlinks(alpha) = %v, want none", got)
	}
}

func TestDelete(t *testing.T) {
	st, _ := testutil.Store(t)

	beta := testutil.Seed(t, st, "Beta", "")
	alpha := testutil.Seed(t, st, "Alpha", "see [[Beta]]")

	if err := st.Delete(beta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(beta.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get deleted = %v, want ErrNotFound", err)
	}

	// The dangling reference disappears from the source note.
	got, _ := st.Get(alpha.ID)
	if len(got.Links) != 0 {
		t.Errorf("Links = %v, want none after target deleted", got.Links)
	}

	if err := st.Delete(beta.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestVersions(t *testing.T) {
	st, _ := testutil.Store(t)

	n := testutil.Seed(t, st, "Alpha", "v1")
	if _, err := st.Upsert(&models.Note{ID: n.ID, Title: "Alpha", Body: "v2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Upsert(&models.Note{ID: n.ID, Title: "Alpha", Body: "v3"}); err != nil {
		t.Fatal(err)
	}

	versions, err := st.Versions(n.ID)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("%d versions, want 2", len(versions))
	}
	// Newest archive first.
	if versions[0].Body != "v2" || versions[1].Body != "v1" {
		t.Errorf("version bodies = %q, %q, want v2, v1", versions[0].Body, versions[1].Body)
	}

	if err := st.Delete(n.ID); err != nil {
		t.Fatal(err)
	}
	versions, _ = st.Versions(n.ID)
	if len(versions) != 0 {
		t.Errorf("%d versions after delete, want 0", len(versions))
	}
}

func TestNew_ReloadsFromBackend(t *testing.T) {
	backend := testutil.Backend(t)

	st1, err := store.New(backend, nil, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	beta, err := st1.Upsert(&models.Note{Title: "Beta"})
	if err != nil {
		t.Fatal(err)
	}
	alpha, err := st1.Upsert(&models.Note{Title: "Alpha", Body: "see [[Beta]]"})
	if err != nil {
		t.Fatal(err)
	}

	st2, err := store.New(backend, nil, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if st2.Snapshot().Len() != 2 {
		t.Fatalf("reloaded %d notes, want 2", st2.Snapshot().Len())
	}
	got, err := st2.Get(alpha.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.HasLink(beta.ID) {
		t.Errorf("Links = %v, want link preserved across reload", got.Links)
	}
	back := st2.Backlinks(beta.ID)
	if len(back) != 1 || back[0].ID != alpha.ID {
		t.Errorf("Backlinks after reload = %v, want [%s]", back, alpha.ID)
	}
}

func TestUpsert_IndexesForSearch(t *testing.T) {
	st, ix := testutil.Store(t)

	n := testutil.Seed(t, st, "Searchable", "unique zebra content")
	results := ix.Query("zebra")
	if len(results) != 1 || results[0].NoteID != n.ID {
		t.Fatalf("Query(zebra) = %v, want the seeded note", results)
	}

	if err := st.Delete(n.ID); err != nil {
		t.Fatal(err)
	}
	if results := ix.Query("zebra"); len(results) != 0 {
		t.Errorf("Query after delete = %v, want none", results)
	}
}

func TestSnapshot_ByTitleCaseInsensitive(t *testing.T) {
	st, _ := testutil.Store(t)
	n := testutil.Seed(t, st, "Mixed Case", "")

	got, ok := st.Snapshot().ByTitle("mixed case")
	if !ok || got.ID != n.ID {
		t.Errorf("ByTitle(mixed case) = %v %v, want the note", got, ok)
	}
	if _, ok := st.Snapshot().ByTitle("missing"); ok {
		t.Error("ByTitle(missing) = true, want false")
	}
}
