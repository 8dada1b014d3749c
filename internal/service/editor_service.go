package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pagesmith/internal/catalog"
	"pagesmith/internal/domain"
	"pagesmith/internal/gitstore"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: opens page editing sessions
// ─────────────────────────────────────────────────────────────

// DefaultAutosaveDelay is the debounce window between the last mutation and
// the local draft write.
const DefaultAutosaveDelay = 3 * time.Second

// EditorService loads pages into editing sessions and answers cross-page
// questions (page listing, landing-page uniqueness).
type EditorService struct {
	store    domain.DocumentStore
	drafts   domain.DraftStore
	provider domain.CatalogProvider
	emitter  EventEmitter
	autosave time.Duration
}

// NewEditorService creates an EditorService. autosave <= 0 selects the
// default debounce delay.
func NewEditorService(store domain.DocumentStore, drafts domain.DraftStore, provider domain.CatalogProvider, emitter EventEmitter, autosave time.Duration) *EditorService {
	if autosave <= 0 {
		autosave = DefaultAutosaveDelay
	}
	return &EditorService{
		store:    store,
		drafts:   drafts,
		provider: provider,
		emitter:  emitter,
		autosave: autosave,
	}
}

// resolver builds a catalog resolver from the session's component catalogs.
func (s *EditorService) resolver(ctx context.Context) (*catalog.Resolver, error) {
	primitives, err := s.provider.ListPrimitives(ctx)
	if err != nil {
		return nil, fmt.Errorf("load primitive catalog: %w", err)
	}
	composites, err := s.provider.ListComposites(ctx)
	if err != nil {
		return nil, fmt.Errorf("load composite catalog: %w", err)
	}
	return catalog.NewResolver(primitives, composites), nil
}

// NewPage starts an editing session for a brand-new page. The slug keeps
// tracking the title until the page is first loaded or published.
func (s *EditorService) NewPage(ctx context.Context) (*Editor, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	ed := newEditor(s, resolver, domain.Page{Status: domain.PageStatusDraft}, StateNew, false)
	return ed, nil
}

// OpenPage starts an editing session for an existing page. A local draft
// takes precedence over the persisted copy, and its presence means unsaved
// work: the session starts dirty.
func (s *EditorService) OpenPage(ctx context.Context, slug string) (*Editor, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafts.LoadDraft(slug)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if draft != nil {
		return newEditor(s, resolver, draft.Page, StateDirty, true), nil
	}

	page, err := s.loadPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	return newEditor(s, resolver, *page, StateClean, true), nil
}

// ListPages loads every page known to the document store.
func (s *EditorService) ListPages(ctx context.Context) ([]domain.Page, error) {
	paths, err := s.store.List(ctx, "pages")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make([]domain.Page, 0, len(paths))
	for _, p := range paths {
		raw, err := s.store.Load(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		var page domain.Page
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// DeletePage removes a page document and any local draft for it.
func (s *EditorService) DeletePage(ctx context.Context, slug string) error {
	if err := s.store.Delete(ctx, gitstore.PagePath(slug), "Delete page "+slug); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if err := s.drafts.DeleteDraft(slug); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *EditorService) loadPage(ctx context.Context, slug string) (*domain.Page, error) {
	raw, err := s.store.Load(ctx, gitstore.PagePath(slug))
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", slug, err)
	}
	var page domain.Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode page %s: %w", slug, err)
	}
	return &page, nil
}

// landingPageHolder returns the slug of the page currently flagged as the
// landing page, excluding the given slug, or "" when none holds the flag.
func (s *EditorService) landingPageHolder(ctx context.Context, excludeSlug string) (string, error) {
	pages, err := s.ListPages(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range pages {
		if p.IsLandingPage && p.Slug != excludeSlug {
			return p.Slug, nil
		}
	}
	return "", nil
}
