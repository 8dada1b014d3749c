package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagesmith/internal/catalog"
	"pagesmith/internal/domain"
	"pagesmith/internal/dragdrop"
	"pagesmith/internal/gitstore"
	"pagesmith/internal/tree"
)

// State is the lifecycle state of one editing session. Loading is the
// synchronous span inside EditorService.OpenPage and is never observable on
// an Editor.
type State string

const (
	StateNew        State = "new"
	StateClean      State = "clean"
	StateDirty      State = "dirty"
	StateDraftSaved State = "draft-saved"
	StatePublished  State = "published"
)

// Editor is a single-page editing session. It exclusively owns its section
// tree; all operations run synchronously to completion. Mutations mark the
// session dirty and (re)arm the autosave debounce; only the most recent
// pending mutation survives the window.
type Editor struct {
	svc      *EditorService
	resolver *catalog.Resolver
	drag     *dragdrop.Session

	mu        sync.Mutex
	state     State
	page      domain.Page
	persisted bool   // slug frozen once the page has been loaded or published
	draftSlug string // slug the latest draft row is keyed by, "" when none
	timer     *time.Timer
	closed    bool
}

func newEditor(svc *EditorService, resolver *catalog.Resolver, page domain.Page, state State, persisted bool) *Editor {
	page.Sections = tree.Normalize(page.Sections)
	e := &Editor{
		svc:       svc,
		resolver:  resolver,
		state:     state,
		page:      page,
		persisted: persisted,
	}
	e.drag = dragdrop.NewSession(e.mintSection)
	if state == StateDirty {
		// Dirty at open means the session began from a stored draft.
		e.draftSlug = page.Slug
		e.svc.emitter.Emit(context.Background(), EventPageDirty, page.Slug)
	}
	return e
}

// Page returns a snapshot of the page being edited.
func (e *Editor) Page() domain.Page {
	e.mu.Lock()
	defer e.mu.Unlock()
	page := e.page
	page.Sections = tree.Clone(e.page.Sections)
	return page
}

// State returns the lifecycle state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Close cancels any pending autosave. Pending edits not yet flushed by the
// debounce are lost, matching navigate-away semantics.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// ─────────────────────────────────────────────────────────────
// Page field edits
// ─────────────────────────────────────────────────────────────

// SetTitle updates the title. While the page has never been loaded or
// published, the slug keeps tracking the title; afterwards it is immutable.
func (e *Editor) SetTitle(title string) {
	e.mu.Lock()
	e.page.Title = title
	if !e.persisted {
		e.page.Slug = Slugify(title)
	}
	e.markDirtyLocked()
	e.mu.Unlock()
}

// SetLandingPage flags this page to render at the site root. Uniqueness
// across pages is checked at publish time.
func (e *Editor) SetLandingPage(isLanding bool) {
	e.mu.Lock()
	e.page.IsLandingPage = isLanding
	e.markDirtyLocked()
	e.mu.Unlock()
}

// SetLayout points the page at a layout document.
func (e *Editor) SetLayout(layout string) {
	e.mu.Lock()
	e.page.Layout = layout
	e.markDirtyLocked()
	e.mu.Unlock()
}

// ─────────────────────────────────────────────────────────────
// Section tree edits
// ─────────────────────────────────────────────────────────────

// Sections returns a copy of the section forest.
func (e *Editor) Sections() []domain.Section {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tree.Clone(e.page.Sections)
}

// AddSection creates a new built-in section under parentID ("" for top
// level) at index (negative appends) and returns it.
func (e *Editor) AddSection(sectionType domain.SectionType, parentID string, index int) (domain.Section, error) {
	node, err := e.mintSection(dragdrop.Source{Kind: dragdrop.SourceKindPalette, SectionType: sectionType})
	if err != nil {
		return domain.Section{}, err
	}
	return e.insert(node, parentID, index)
}

// AddComponentSection creates a new component-reference section. The column
// span is seeded from the composite's defaultColumns.
func (e *Editor) AddComponentSection(componentID string, componentType domain.ComponentType, parentID string, index int) (domain.Section, error) {
	node, err := e.mintSection(dragdrop.Source{
		Kind:          dragdrop.SourceKindCatalog,
		ComponentID:   componentID,
		ComponentType: componentType,
	})
	if err != nil {
		return domain.Section{}, err
	}
	return e.insert(node, parentID, index)
}

func (e *Editor) insert(node domain.Section, parentID string, index int) (domain.Section, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if parentID != "" {
		if _, ok := tree.FindByID(e.page.Sections, parentID); !ok {
			return domain.Section{}, fmt.Errorf("parent section %s: %w", parentID, domain.ErrNotFound)
		}
	}
	e.page.Sections = tree.InsertAt(e.page.Sections, parentID, node, index)
	e.markDirtyLocked()
	return node, nil
}

// UpdateSection replaces the section with the given id, keeping its place
// in the tree.
func (e *Editor) UpdateSection(id string, section domain.Section) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := tree.FindByID(e.page.Sections, id); !ok {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	section.ID = id
	e.page.Sections = tree.UpdateByID(e.page.Sections, id, section)
	e.markDirtyLocked()
	return nil
}

// DeleteSection removes a section and its entire subtree.
func (e *Editor) DeleteSection(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := tree.FindByID(e.page.Sections, id); !ok {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	e.page.Sections = tree.DeleteByID(e.page.Sections, id)
	e.markDirtyLocked()
	return nil
}

// MoveSection swaps a section with its neighbor. At either boundary the
// move is a no-op and the session stays in its current state.
func (e *Editor) MoveSection(id string, dir tree.Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := tree.SiblingInfo(e.page.Sections, id)
	if !ok {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	if (dir == tree.DirectionUp && pos.IsFirst) || (dir == tree.DirectionDown && pos.IsLast) {
		return nil
	}
	e.page.Sections = tree.MoveSibling(e.page.Sections, id, dir)
	e.markDirtyLocked()
	return nil
}

// ReorderSections moves the element at fromIndex to toIndex within the
// sibling list owned by parentID ("" for top level).
func (e *Editor) ReorderSections(parentID string, fromIndex, toIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if parentID != "" {
		if _, ok := tree.FindByID(e.page.Sections, parentID); !ok {
			return fmt.Errorf("parent section %s: %w", parentID, domain.ErrNotFound)
		}
	}
	e.page.Sections = tree.ReorderWithinParent(e.page.Sections, parentID, fromIndex, toIndex)
	e.markDirtyLocked()
	return nil
}

// SectionInfo reports a section's position, gating move affordances.
func (e *Editor) SectionInfo(id string) (tree.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tree.SiblingInfo(e.page.Sections, id)
}

// ─────────────────────────────────────────────────────────────
// Component resolution
// ─────────────────────────────────────────────────────────────

// ResolveComponent resolves a component-reference section against the
// session catalogs. Dangling references resolve to a placeholder, never an
// error.
func (e *Editor) ResolveComponent(id string) (catalog.Resolved, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	section, ok := tree.FindByID(e.page.Sections, id)
	if !ok {
		return catalog.Resolved{}, fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	if section.Component == nil {
		return catalog.Resolved{}, fmt.Errorf("section %s is not a component reference", id)
	}
	return e.resolver.Resolve(*section.Component), nil
}

// SetComponentColumns updates a component section's span. A composite's
// minColumns is a hard floor; a request below it is rejected and the value
// stays where it was.
func (e *Editor) SetComponentColumns(id string, columns int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	section, ok := tree.FindByID(e.page.Sections, id)
	if !ok {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	if section.Component == nil {
		return fmt.Errorf("section %s is not a component reference", id)
	}
	if err := e.resolver.ValidateColumns(*section.Component, columns); err != nil {
		return err
	}
	section.Component.Columns = columns
	e.page.Sections = tree.UpdateByID(e.page.Sections, id, section)
	e.markDirtyLocked()
	return nil
}

// SetComponentField writes one entry of a component section's data bag.
func (e *Editor) SetComponentField(id, field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	section, ok := tree.FindByID(e.page.Sections, id)
	if !ok {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	if section.Component == nil {
		return fmt.Errorf("section %s is not a component reference", id)
	}
	if section.Component.Data == nil {
		section.Component.Data = map[string]string{}
	}
	section.Component.Data[field] = value
	e.page.Sections = tree.UpdateByID(e.page.Sections, id, section)
	e.markDirtyLocked()
	return nil
}

// ─────────────────────────────────────────────────────────────
// Drag and drop
// ─────────────────────────────────────────────────────────────

// BeginPaletteDrag starts dragging a new built-in section kind.
func (e *Editor) BeginPaletteDrag(sectionType domain.SectionType) {
	e.drag.Begin(dragdrop.Source{Kind: dragdrop.SourceKindPalette, SectionType: sectionType})
}

// BeginCatalogDrag starts dragging a catalog component.
func (e *Editor) BeginCatalogDrag(componentID string, componentType domain.ComponentType) {
	e.drag.Begin(dragdrop.Source{
		Kind:          dragdrop.SourceKindCatalog,
		ComponentID:   componentID,
		ComponentType: componentType,
	})
}

// BeginNodeDrag starts dragging an existing canvas section.
func (e *Editor) BeginNodeDrag(id string) error {
	e.mu.Lock()
	pos, ok := tree.SiblingInfo(e.page.Sections, id)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	e.drag.Begin(dragdrop.Source{
		Kind:         dragdrop.SourceKindNode,
		NodeID:       id,
		FromParentID: pos.ParentID,
		FromIndex:    pos.Index,
	})
	return nil
}

// HoverGap records an insertion gap as the pending drop target.
func (e *Editor) HoverGap(parentID string, index int) {
	e.drag.HoverGap(parentID, index)
}

// HoverNest records "drop inside this node" as the pending drop target.
func (e *Editor) HoverNest(nodeID string) {
	e.drag.HoverNest(nodeID)
}

// CancelDrag abandons the drag with no mutation.
func (e *Editor) CancelDrag() {
	e.drag.Cancel()
}

// Drop resolves the in-flight drag into a single tree operation.
func (e *Editor) Drop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	forest, changed, err := e.drag.Drop(e.page.Sections)
	if err != nil {
		return err
	}
	if changed {
		e.page.Sections = forest
		e.markDirtyLocked()
	}
	return nil
}

// mintSection builds a fresh section for a palette or catalog source.
func (e *Editor) mintSection(src dragdrop.Source) (domain.Section, error) {
	id := uuid.New().String()
	switch src.Kind {
	case dragdrop.SourceKindCatalog:
		return domain.Section{
			ID:   id,
			Type: domain.SectionTypeComponent,
			Component: &domain.ComponentRefData{
				ComponentID:   src.ComponentID,
				ComponentType: src.ComponentType,
				Columns:       e.resolver.SeedColumns(src.ComponentType, src.ComponentID),
				Data:          map[string]string{},
			},
		}, nil
	case dragdrop.SourceKindPalette:
		section := domain.Section{ID: id, Type: src.SectionType}
		switch src.SectionType {
		case domain.SectionTypeHero:
			section.Hero = &domain.HeroData{}
		case domain.SectionTypeText:
			section.Text = &domain.TextData{}
		case domain.SectionTypeCardGrid:
			section.CardGrid = &domain.CardGridData{}
		case domain.SectionTypeCallToAct:
			section.CallToAct = &domain.CallToActionData{ButtonStyle: "primary"}
		case domain.SectionTypeContentList:
			section.ContentList = &domain.ContentListData{Limit: 10, Layout: "list"}
		default:
			return domain.Section{}, fmt.Errorf("unknown section type %q", src.SectionType)
		}
		return section, nil
	}
	return domain.Section{}, fmt.Errorf("source kind %q cannot mint a section", src.Kind)
}

// ─────────────────────────────────────────────────────────────
// Autosave and publish
// ─────────────────────────────────────────────────────────────

// markDirtyLocked moves the session to dirty and re-arms the autosave
// debounce. Callers hold e.mu.
func (e *Editor) markDirtyLocked() {
	e.state = StateDirty
	e.svc.emitter.Emit(context.Background(), EventPageDirty, e.page.Slug)
	if e.closed {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.svc.autosave, e.autosaveFire)
}

func (e *Editor) autosaveFire() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != StateDirty {
		return
	}
	if err := e.saveDraftLocked(); err != nil {
		// Stay dirty; the next mutation re-arms the debounce and retries.
		log.Printf("editor: autosave failed for %q: %v", e.page.Slug, err)
	}
}

// SaveDraftNow flushes the current state to the local draft store without
// waiting for the debounce.
func (e *Editor) SaveDraftNow() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	return e.saveDraftLocked()
}

func (e *Editor) saveDraftLocked() error {
	// A brand-new page has no slug until it has a title; there is nothing
	// addressable to key a draft by yet.
	if e.page.Slug == "" {
		return nil
	}
	page := e.page
	page.Sections = tree.Clone(e.page.Sections)
	if err := e.svc.drafts.SaveDraft(&domain.Draft{Slug: e.page.Slug, Page: page}); err != nil {
		return err
	}
	// While the slug still tracks the title, a retitle moves the draft to a
	// new key; the row under the old key would otherwise linger forever.
	if e.draftSlug != "" && e.draftSlug != e.page.Slug {
		if err := e.svc.drafts.DeleteDraft(e.draftSlug); err != nil {
			log.Printf("editor: drop superseded draft %q: %v", e.draftSlug, err)
		}
	}
	e.draftSlug = e.page.Slug
	e.state = StateDraftSaved
	e.svc.emitter.Emit(context.Background(), EventPageDraftSaved, e.page.Slug)
	return nil
}

// Publish validates the page and persists it with status published,
// discarding the local draft. Validation failures return *ValidationError
// and write nothing. A store failure leaves the session exactly where it
// was; the caller may retry.
func (e *Editor) Publish(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := map[string]string{}
	if e.page.Title == "" {
		fields["title"] = "title is required"
	}
	if e.page.Slug == "" {
		fields["slug"] = "slug is required"
	}
	if e.page.IsLandingPage {
		holder, err := e.svc.landingPageHolder(ctx, e.page.Slug)
		if err != nil {
			return fmt.Errorf("check landing page: %w", err)
		}
		if holder != "" {
			fields["isLandingPage"] = fmt.Sprintf("%q is already the landing page", holder)
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	now := time.Now()
	snapshot := e.page
	snapshot.Sections = tree.Clone(e.page.Sections)
	snapshot.Status = domain.PageStatusPublished
	snapshot.UpdatedAt = now
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = now
	}

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	if err := e.svc.store.Save(ctx, gitstore.PagePath(snapshot.Slug), raw, "Publish page "+snapshot.Slug); err != nil {
		return fmt.Errorf("publish page: %w", err)
	}

	if err := e.svc.drafts.DeleteDraft(snapshot.Slug); err != nil {
		// The page is published; a lingering draft only costs disk space.
		log.Printf("editor: discard draft for %q: %v", snapshot.Slug, err)
	}
	if e.draftSlug != "" && e.draftSlug != snapshot.Slug {
		if err := e.svc.drafts.DeleteDraft(e.draftSlug); err != nil {
			log.Printf("editor: drop superseded draft %q: %v", e.draftSlug, err)
		}
	}
	e.draftSlug = ""
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.page = snapshot
	e.persisted = true
	e.state = StatePublished
	e.svc.emitter.Emit(ctx, EventPagePublished, snapshot.Slug)
	return nil
}
