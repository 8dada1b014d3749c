package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"pagesmith/internal/catalog"
	"pagesmith/internal/domain"
	"pagesmith/internal/gitstore"
	"pagesmith/internal/service"
	"pagesmith/internal/tree"
)

// ─────────────────────────────────────────────────────────────
// In-memory fakes for the external store contracts
// ─────────────────────────────────────────────────────────────

type fakeDocStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saveErr error
	saves   int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[string][]byte{}}
}

func (f *fakeDocStore) Load(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.docs[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raw, nil
}

func (f *fakeDocStore) Save(_ context.Context, path string, content []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.docs[path] = content
	return nil
}

func (f *fakeDocStore) Delete(_ context.Context, path string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[path]; !ok {
		return domain.ErrNotFound
	}
	delete(f.docs, path)
	return nil
}

func (f *fakeDocStore) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var paths []string
	for p := range f.docs {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *fakeDocStore) putPage(t *testing.T, page domain.Page) {
	t.Helper()
	raw, err := json.Marshal(page)
	if err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	f.docs[gitstore.PagePath(page.Slug)] = raw
	f.mu.Unlock()
}

type fakeDraftStore struct {
	mu      sync.Mutex
	drafts  map[string]domain.Draft
	saveErr error
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{drafts: map[string]domain.Draft{}}
}

func (f *fakeDraftStore) SaveDraft(d *domain.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	d.Version = domain.DraftVersion
	d.SavedAt = time.Now()
	f.drafts[d.Slug] = *d
	return nil
}

func (f *fakeDraftStore) LoadDraft(slug string) (*domain.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[slug]
	if !ok || d.Version != domain.DraftVersion {
		return nil, nil
	}
	out := d
	return &out, nil
}

func (f *fakeDraftStore) DeleteDraft(slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, slug)
	return nil
}

func (f *fakeDraftStore) PurgeStale() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for slug, d := range f.drafts {
		if d.Version != domain.DraftVersion {
			delete(f.drafts, slug)
			n++
		}
	}
	return n, nil
}

func testCatalog() catalog.Static {
	return catalog.Static{
		Primitives: []domain.Primitive{
			{ID: "prim-heading", Name: "Heading"},
		},
		Composites: []domain.Composite{
			{ID: "comp-feature", Name: "Feature Card", MinColumns: 4, DefaultColumns: 6},
		},
	}
}

type deps struct {
	store   *fakeDocStore
	drafts  *fakeDraftStore
	emitter *service.MockEmitter
	svc     *service.EditorService
}

func newDeps(t *testing.T, autosave time.Duration) *deps {
	t.Helper()
	d := &deps{
		store:   newFakeDocStore(),
		drafts:  newFakeDraftStore(),
		emitter: &service.MockEmitter{},
	}
	d.svc = service.NewEditorService(d.store, d.drafts, testCatalog(), d.emitter, autosave)
	return d
}

// ─────────────────────────────────────────────────────────────
// Slugify
// ─────────────────────────────────────────────────────────────

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Our Teams & Events!!  ", "our-teams-events"},
		{"Hello World", "hello-world"},
		{"already-a-slug", "already-a-slug"},
		{"Ünïcodeämlaut", "n-code-mlaut"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := service.Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Load / draft precedence
// ─────────────────────────────────────────────────────────────

func TestOpenPage_PrefersLocalDraftAndStartsDirty(t *testing.T) {
	d := newDeps(t, time.Hour)
	d.store.putPage(t, domain.Page{Slug: "about", Title: "About", Status: domain.PageStatusPublished})
	draftPage := domain.Page{Slug: "about", Title: "About Us (draft)", Status: domain.PageStatusDraft}
	if err := d.drafts.SaveDraft(&domain.Draft{Slug: "about", Page: draftPage}); err != nil {
		t.Fatal(err)
	}

	ed, err := d.svc.OpenPage(context.Background(), "about")
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close()

	if got := ed.Page().Title; got != "About Us (draft)" {
		t.Errorf("title = %q, want the draft's title", got)
	}
	if ed.State() != service.StateDirty {
		t.Errorf("state = %q, want dirty (an unresolved draft is unsaved work)", ed.State())
	}
}

func TestOpenPage_WithoutDraftIsClean(t *testing.T) {
	d := newDeps(t, time.Hour)
	d.store.putPage(t, domain.Page{Slug: "about", Title: "About", Status: domain.PageStatusPublished})

	ed, err := d.svc.OpenPage(context.Background(), "about")
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close()

	if ed.State() != service.StateClean {
		t.Errorf("state = %q, want clean", ed.State())
	}
}

func TestOpenPage_Missing(t *testing.T) {
	d := newDeps(t, time.Hour)
	_, err := d.svc.OpenPage(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────
// Slug immutability
// ─────────────────────────────────────────────────────────────

func TestSetTitle_SlugTracksTitleOnlyWhileNew(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, err := d.svc.NewPage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close()

	ed.SetTitle("Our Teams & Events!!")
	if got := ed.Page().Slug; got != "our-teams-events" {
		t.Fatalf("slug = %q, want derived slug", got)
	}

	if err := ed.Publish(context.Background()); err != nil {
		t.Fatal(err)
	}
	ed.SetTitle("Renamed After Publish")
	if got := ed.Page().Slug; got != "our-teams-events" {
		t.Errorf("slug changed after first persist: %q", got)
	}
}

func TestOpenPage_SlugIsImmutable(t *testing.T) {
	d := newDeps(t, time.Hour)
	d.store.putPage(t, domain.Page{Slug: "about", Title: "About", Status: domain.PageStatusPublished})
	ed, err := d.svc.OpenPage(context.Background(), "about")
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close()

	ed.SetTitle("Completely Different")
	if got := ed.Page().Slug; got != "about" {
		t.Errorf("slug = %q, want about", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Publish
// ─────────────────────────────────────────────────────────────

func TestPublish_RequiresTitleAndSlug(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	err := ed.Publish(context.Background())
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Error("expected a title error")
	}
	if _, ok := verr.Fields["slug"]; !ok {
		t.Error("expected a slug error")
	}
	if d.store.saves != 0 {
		t.Error("validation failure must not write to the store")
	}
}

func TestPublish_LandingPageUniqueness(t *testing.T) {
	d := newDeps(t, time.Hour)
	d.store.putPage(t, domain.Page{Slug: "home", Title: "Home", IsLandingPage: true, Status: domain.PageStatusPublished})

	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()
	ed.SetTitle("Another Landing")
	ed.SetLandingPage(true)

	err := ed.Publish(context.Background())
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["isLandingPage"]; !ok {
		t.Errorf("expected a landing page error, got %v", verr.Fields)
	}
	if d.store.saves != 0 {
		t.Error("no store write on a blocked publish")
	}
}

func TestPublish_RepublishingTheLandingPageItselfIsAllowed(t *testing.T) {
	d := newDeps(t, time.Hour)
	d.store.putPage(t, domain.Page{Slug: "home", Title: "Home", IsLandingPage: true, Status: domain.PageStatusPublished})

	ed, err := d.svc.OpenPage(context.Background(), "home")
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close()
	ed.SetTitle("Home Again")
	if err := ed.Publish(context.Background()); err != nil {
		t.Errorf("republishing the current holder should pass: %v", err)
	}
}

func TestPublish_Success(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()
	ed.SetTitle("Pricing")
	if _, err := ed.AddSection(domain.SectionTypeHero, "", -1); err != nil {
		t.Fatal(err)
	}
	if err := ed.SaveDraftNow(); err != nil {
		t.Fatal(err)
	}
	if draft, _ := d.drafts.LoadDraft("pricing"); draft == nil {
		t.Fatal("expected a draft before publish")
	}

	if err := ed.Publish(context.Background()); err != nil {
		t.Fatal(err)
	}

	if ed.State() != service.StatePublished {
		t.Errorf("state = %q, want published", ed.State())
	}
	raw, err := d.store.Load(context.Background(), gitstore.PagePath("pricing"))
	if err != nil {
		t.Fatal(err)
	}
	var stored domain.Page
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.PageStatusPublished {
		t.Errorf("stored status = %q", stored.Status)
	}
	if draft, _ := d.drafts.LoadDraft("pricing"); draft != nil {
		t.Error("publish must discard the local draft")
	}
}

func TestPublish_StoreFailureLeavesStateUntouched(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()
	ed.SetTitle("Flaky")
	if err := ed.SaveDraftNow(); err != nil {
		t.Fatal(err)
	}

	d.store.saveErr = errors.New("remote unavailable")
	err := ed.Publish(context.Background())
	if err == nil {
		t.Fatal("expected a store error")
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		t.Fatal("store failure is not a validation error")
	}
	if ed.State() != service.StateDraftSaved {
		t.Errorf("state = %q, want unchanged draft-saved", ed.State())
	}
	if draft, _ := d.drafts.LoadDraft("flaky"); draft == nil {
		t.Error("draft must survive a failed publish")
	}

	// Retry after the store recovers.
	d.store.saveErr = nil
	if err := ed.Publish(context.Background()); err != nil {
		t.Errorf("retry should succeed: %v", err)
	}
}

func TestPublish_EditingAfterPublishGoesDirtyAgain(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()
	ed.SetTitle("Blog")
	if err := ed.Publish(context.Background()); err != nil {
		t.Fatal(err)
	}
	ed.SetTitle("Blog v2")
	if ed.State() != service.StateDirty {
		t.Errorf("state = %q, want dirty", ed.State())
	}
}

// ─────────────────────────────────────────────────────────────
// Autosave debounce
// ─────────────────────────────────────────────────────────────

func TestAutosave_FiresAfterDebounce(t *testing.T) {
	d := newDeps(t, 40*time.Millisecond)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	ed.SetTitle("Autosaved Page")
	if ed.State() != service.StateDirty {
		t.Fatalf("state = %q, want dirty", ed.State())
	}
	if draft, _ := d.drafts.LoadDraft("autosaved-page"); draft != nil {
		t.Fatal("draft written before the debounce elapsed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ed.State() == service.StateDraftSaved {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if ed.State() != service.StateDraftSaved {
		t.Fatalf("state = %q, want draft-saved", ed.State())
	}
	draft, _ := d.drafts.LoadDraft("autosaved-page")
	if draft == nil {
		t.Fatal("expected an autosaved draft")
	}
	if draft.Page.Title != "Autosaved Page" {
		t.Errorf("draft title = %q", draft.Page.Title)
	}
}

func TestAutosave_LastWriteWins(t *testing.T) {
	d := newDeps(t, 40*time.Millisecond)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	ed.SetTitle("First Title")
	ed.SetTitle("Second Title")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ed.State() == service.StateDraftSaved {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	draft, _ := d.drafts.LoadDraft("second-title")
	if draft == nil {
		t.Fatal("expected a draft for the final slug")
	}
	if draft.Page.Title != "Second Title" {
		t.Errorf("draft title = %q, want the last write", draft.Page.Title)
	}
}

func TestSaveDraft_RetitleDropsSupersededDraft(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	ed.SetTitle("First Title")
	if err := ed.SaveDraftNow(); err != nil {
		t.Fatal(err)
	}
	ed.SetTitle("Second Title")
	if err := ed.SaveDraftNow(); err != nil {
		t.Fatal(err)
	}

	if draft, _ := d.drafts.LoadDraft("first-title"); draft != nil {
		t.Error("draft under the superseded slug should be gone")
	}
	if draft, _ := d.drafts.LoadDraft("second-title"); draft == nil {
		t.Error("expected a draft under the current slug")
	}
}

func TestPublish_DropsDraftSavedUnderEarlierSlug(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	ed.SetTitle("Working Title")
	if err := ed.SaveDraftNow(); err != nil {
		t.Fatal(err)
	}
	ed.SetTitle("Final Title")
	if err := ed.Publish(context.Background()); err != nil {
		t.Fatal(err)
	}

	if draft, _ := d.drafts.LoadDraft("working-title"); draft != nil {
		t.Error("draft under the pre-publish slug should be gone")
	}
	if draft, _ := d.drafts.LoadDraft("final-title"); draft != nil {
		t.Error("publish must discard the local draft")
	}
}

func TestClose_CancelsPendingAutosave(t *testing.T) {
	d := newDeps(t, 40*time.Millisecond)
	ed, _ := d.svc.NewPage(context.Background())
	ed.SetTitle("Abandoned")
	ed.Close()

	time.Sleep(150 * time.Millisecond)
	if draft, _ := d.drafts.LoadDraft("abandoned"); draft != nil {
		t.Error("autosave fired after close")
	}
}

// ─────────────────────────────────────────────────────────────
// Section editing through the editor
// ─────────────────────────────────────────────────────────────

func TestEditor_SectionLifecycle(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	hero, err := ed.AddSection(domain.SectionTypeHero, "", -1)
	if err != nil {
		t.Fatal(err)
	}
	group, err := ed.AddSection(domain.SectionTypeCardGrid, "", -1)
	if err != nil {
		t.Fatal(err)
	}
	child, err := ed.AddSection(domain.SectionTypeText, group.ID, -1)
	if err != nil {
		t.Fatal(err)
	}

	pos, ok := ed.SectionInfo(child.ID)
	if !ok || pos.ParentID != group.ID {
		t.Fatalf("child position = %+v", pos)
	}

	if err := ed.MoveSection(group.ID, tree.DirectionUp); err != nil {
		t.Fatal(err)
	}
	sections := ed.Sections()
	if sections[0].ID != group.ID || sections[1].ID != hero.ID {
		t.Errorf("move up did not reorder: %s, %s", sections[0].ID, sections[1].ID)
	}

	if err := ed.DeleteSection(group.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := ed.SectionInfo(child.ID); ok {
		t.Error("deleting the group should discard its subtree")
	}
	if got := ed.Sections(); len(got) != 1 || got[0].Order != 0 {
		t.Errorf("survivors not renumbered: %+v", got)
	}
}

func TestEditor_UnknownSectionErrors(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	if err := ed.DeleteSection("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete: %v", err)
	}
	if err := ed.MoveSection("nope", tree.DirectionUp); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("move: %v", err)
	}
	if _, err := ed.AddSection(domain.SectionTypeText, "nope", -1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("add under unknown parent: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────
// Component references
// ─────────────────────────────────────────────────────────────

func TestEditor_ComponentColumnsClamp(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	section, err := ed.AddComponentSection("comp-feature", domain.ComponentTypeComposite, "", -1)
	if err != nil {
		t.Fatal(err)
	}
	if section.Component.Columns != 6 {
		t.Errorf("seed columns = %d, want defaultColumns 6", section.Component.Columns)
	}

	if err := ed.SetComponentColumns(section.ID, 2); err == nil {
		t.Fatal("expected rejection below minColumns")
	}
	got, _ := ed.ResolveComponent(section.ID)
	sections := ed.Sections()
	if sections[0].Component.Columns < got.MinColumns {
		t.Errorf("columns dropped below the floor: %d", sections[0].Component.Columns)
	}

	if err := ed.SetComponentColumns(section.ID, 8); err != nil {
		t.Fatal(err)
	}
	if got := ed.Sections()[0].Component.Columns; got != 8 {
		t.Errorf("columns = %d, want 8", got)
	}
}

func TestEditor_DanglingComponentResolvesToPlaceholder(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	section, err := ed.AddComponentSection("deleted-component", domain.ComponentTypeComposite, "", -1)
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := ed.ResolveComponent(section.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.Missing {
		t.Error("expected a missing-component placeholder")
	}
	// The section itself stays in the tree.
	if _, ok := ed.SectionInfo(section.ID); !ok {
		t.Error("dangling reference must not be auto-deleted")
	}
}

// ─────────────────────────────────────────────────────────────
// Drag and drop through the editor
// ─────────────────────────────────────────────────────────────

func TestEditor_PaletteDragDrop(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	ed.BeginPaletteDrag(domain.SectionTypeCallToAct)
	ed.HoverGap("", 0)
	if err := ed.Drop(); err != nil {
		t.Fatal(err)
	}
	sections := ed.Sections()
	if len(sections) != 1 || sections[0].Type != domain.SectionTypeCallToAct {
		t.Fatalf("unexpected sections: %+v", sections)
	}
	if ed.State() != service.StateDirty {
		t.Errorf("state = %q, want dirty after drop", ed.State())
	}
}

func TestEditor_NodeDragReparent(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	a, _ := ed.AddSection(domain.SectionTypeText, "", -1)
	b, _ := ed.AddSection(domain.SectionTypeCardGrid, "", -1)

	if err := ed.BeginNodeDrag(a.ID); err != nil {
		t.Fatal(err)
	}
	ed.HoverNest(b.ID)
	if err := ed.Drop(); err != nil {
		t.Fatal(err)
	}

	pos, ok := ed.SectionInfo(a.ID)
	if !ok || pos.ParentID != b.ID {
		t.Errorf("a not nested under b: %+v", pos)
	}
}

func TestEditor_CancelledDragMutatesNothing(t *testing.T) {
	d := newDeps(t, time.Hour)
	ed, _ := d.svc.NewPage(context.Background())
	defer ed.Close()

	ed.BeginPaletteDrag(domain.SectionTypeHero)
	ed.HoverGap("", 0)
	ed.CancelDrag()
	if err := ed.Drop(); err != nil {
		t.Fatal(err)
	}
	if len(ed.Sections()) != 0 {
		t.Error("cancelled drag still mutated the forest")
	}
}

// ─────────────────────────────────────────────────────────────
// Cross-page operations
// ─────────────────────────────────────────────────────────────

func TestListPages(t *testing.T) {
	d := newDeps(t, time.Hour)
	d.store.putPage(t, domain.Page{Slug: "about", Title: "About"})
	d.store.putPage(t, domain.Page{Slug: "home", Title: "Home"})

	pages, err := d.svc.ListPages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages", len(pages))
	}
	if pages[0].Slug != "about" || pages[1].Slug != "home" {
		t.Errorf("unexpected order: %s, %s", pages[0].Slug, pages[1].Slug)
	}
}

func TestDeletePage_RemovesDraftToo(t *testing.T) {
	d := newDeps(t, time.Hour)
	d.store.putPage(t, domain.Page{Slug: "gone", Title: "Gone"})
	if err := d.drafts.SaveDraft(&domain.Draft{Slug: "gone", Page: domain.Page{Slug: "gone"}}); err != nil {
		t.Fatal(err)
	}

	if err := d.svc.DeletePage(context.Background(), "gone"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.store.Load(context.Background(), gitstore.PagePath("gone")); !errors.Is(err, domain.ErrNotFound) {
		t.Error("page still in store")
	}
	if draft, _ := d.drafts.LoadDraft("gone"); draft != nil {
		t.Error("draft still present")
	}
}
