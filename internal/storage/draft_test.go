package storage

import (
	"path/filepath"
	"testing"

	"pagesmith/internal/domain"
)

func testStore(t *testing.T) *DraftStore {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "editor.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDraftStore(db)
}

func testPage(slug, title string) domain.Page {
	return domain.Page{
		Slug:   slug,
		Title:  title,
		Status: domain.PageStatusDraft,
		Sections: []domain.Section{
			{ID: "s1", Type: domain.SectionTypeText, Order: 0, Text: &domain.TextData{Heading: "Intro"}},
		},
	}
}

func TestDraftStore_SaveLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	if err := store.SaveDraft(&domain.Draft{Slug: "about", Page: testPage("about", "About Us (draft)")}); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadDraft("about")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a draft")
	}
	if got.Page.Title != "About Us (draft)" {
		t.Errorf("title = %q", got.Page.Title)
	}
	if got.Version != domain.DraftVersion {
		t.Errorf("version = %d", got.Version)
	}
	if len(got.Page.Sections) != 1 || got.Page.Sections[0].Text.Heading != "Intro" {
		t.Errorf("sections did not round-trip: %+v", got.Page.Sections)
	}
}

func TestDraftStore_LoadMissingReturnsNil(t *testing.T) {
	store := testStore(t)
	got, err := store.LoadDraft("nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestDraftStore_SaveOverwrites(t *testing.T) {
	store := testStore(t)
	if err := store.SaveDraft(&domain.Draft{Slug: "home", Page: testPage("home", "First")}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveDraft(&domain.Draft{Slug: "home", Page: testPage("home", "Second")}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.LoadDraft("home")
	if got.Page.Title != "Second" {
		t.Errorf("expected last write to win, got %q", got.Page.Title)
	}
}

func TestDraftStore_StaleVersionTreatedAsAbsent(t *testing.T) {
	store := testStore(t)
	if err := store.SaveDraft(&domain.Draft{Slug: "old", Page: testPage("old", "Old")}); err != nil {
		t.Fatal(err)
	}
	// Simulate a draft written by an earlier build.
	if _, err := store.db.Conn().Exec(`UPDATE drafts SET version = ? WHERE slug = ?`, domain.DraftVersion-1, "old"); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadDraft("old")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("stale draft should read as absent, got %+v", got)
	}
}

func TestDraftStore_Delete(t *testing.T) {
	store := testStore(t)
	if err := store.SaveDraft(&domain.Draft{Slug: "gone", Page: testPage("gone", "Gone")}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteDraft("gone"); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.LoadDraft("gone"); got != nil {
		t.Error("draft survived delete")
	}
}

func TestDraftStore_PurgeStale(t *testing.T) {
	store := testStore(t)
	for _, slug := range []string{"a", "b", "c"} {
		if err := store.SaveDraft(&domain.Draft{Slug: slug, Page: testPage(slug, slug)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.db.Conn().Exec(`UPDATE drafts SET version = 1 WHERE slug IN ('a', 'b')`); err != nil {
		t.Fatal(err)
	}

	n, err := store.PurgeStale()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("purged %d, want 2", n)
	}
	if got, _ := store.LoadDraft("c"); got == nil {
		t.Error("current-version draft should survive the purge")
	}
}
