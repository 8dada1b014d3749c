package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"pagesmith/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages in the site with their slug, title, and status"),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Start editing a brand-new page. The slug is derived from the title until the page is first published."),
		mcp.WithString("title",
			mcp.Description("Title of the new page"),
			mcp.Required(),
		),
	), s.handleCreatePage)

	// ── open_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_page",
		mcp.WithDescription("Open an existing page for editing. A local draft takes precedence over the published copy and the session starts dirty."),
		mcp.WithString("slug",
			mcp.Description("Slug of the page to open"),
			mcp.Required(),
		),
	), s.handleOpenPage)

	// ── close_page ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_page",
		mcp.WithDescription("Close an editing session. Edits not yet flushed by autosave are lost."),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleClosePage)

	// ── get_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get the full state of an open page, including its section tree and lifecycle state"),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleGetPage)

	// ── set_page_title ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_page_title",
		mcp.WithDescription("Set the page title. While the page has never been published, the slug keeps tracking the title."),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleSetPageTitle)

	// ── set_landing_page ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_landing_page",
		mcp.WithDescription("Flag or unflag this page as the site landing page. Uniqueness is enforced at publish time."),
		mcp.WithBoolean("isLandingPage", mcp.Description("Whether this page renders at the site root"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleSetLandingPage)

	// ── set_page_layout ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_page_layout",
		mcp.WithDescription("Point the page at a layout document"),
		mcp.WithString("layout", mcp.Description("Layout name"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleSetPageLayout)

	// ── save_draft ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_draft",
		mcp.WithDescription("Flush the current editing state to the local draft store without waiting for autosave"),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleSaveDraft)

	// ── publish_page ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_page",
		mcp.WithDescription("Validate and publish the page, discarding the local draft. Validation failures report per-field messages and write nothing."),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handlePublishPage)

	// ── delete_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a page document and any local draft for it."),
		mcp.WithString("slug", mcp.Description("Slug of the page to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.editors.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	type pageSummary struct {
		Slug          string `json:"slug"`
		Title         string `json:"title"`
		Status        string `json:"status"`
		IsLandingPage bool   `json:"isLandingPage,omitempty"`
	}
	summaries := make([]pageSummary, len(pages))
	for i, p := range pages {
		summaries[i] = pageSummary{
			Slug:          p.Slug,
			Title:         p.Title,
			Status:        string(p.Status),
			IsLandingPage: p.IsLandingPage,
		}
	}
	return jsonResult(summaries)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	ed, err := s.editors.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	ed.SetTitle(title)
	page := ed.Page()
	s.trackEditor(page.Slug, ed)
	return jsonResult(map[string]any{
		"slug":  page.Slug,
		"title": page.Title,
		"state": ed.State(),
	})
}

func (s *Server) handleOpenPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := req.GetString("slug", "")
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	ed, err := s.editors.OpenPage(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.trackEditor(slug, ed)
	page := ed.Page()
	return jsonResult(map[string]any{
		"slug":     page.Slug,
		"title":    page.Title,
		"state":    ed.State(),
		"sections": len(page.Sections),
	})
}

func (s *Server) handleClosePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ed, err := s.resolveEditor(args)
	if err != nil {
		return nil, err
	}
	slug := ed.Page().Slug
	ed.Close()
	delete(s.sessions, slug)
	if s.activeSlug == slug {
		s.activeSlug = ""
	}
	return textResult(fmt.Sprintf("Closed editing session for %q", slug)), nil
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{
		"page":  ed.Page(),
		"state": ed.State(),
	})
}

func (s *Server) handleSetPageTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	args := req.GetArguments()
	ed, err := s.resolveEditor(args)
	if err != nil {
		return nil, err
	}
	oldSlug := ed.Page().Slug
	ed.SetTitle(title)
	s.retrackEditor(oldSlug, ed)
	page := ed.Page()
	return jsonResult(map[string]any{"slug": page.Slug, "title": page.Title})
}

func (s *Server) handleSetLandingPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ed, err := s.resolveEditor(args)
	if err != nil {
		return nil, err
	}
	ed.SetLandingPage(getBool(args, "isLandingPage", false))
	return textResult(fmt.Sprintf("Landing page flag set to %v", ed.Page().IsLandingPage)), nil
}

func (s *Server) handleSetPageLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layout := req.GetString("layout", "")
	if layout == "" {
		return nil, fmt.Errorf("layout is required")
	}
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	ed.SetLayout(layout)
	return textResult(fmt.Sprintf("Layout set to %q", layout)), nil
}

func (s *Server) handleSaveDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := ed.SaveDraftNow(); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return textResult(fmt.Sprintf("Draft saved for %q", ed.Page().Slug)), nil
}

func (s *Server) handlePublishPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := ed.Publish(ctx); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return jsonResult(map[string]any{
				"published": false,
				"errors":    verr.Fields,
			})
		}
		return nil, fmt.Errorf("publish page: %w", err)
	}
	return jsonResult(map[string]any{
		"published": true,
		"slug":      ed.Page().Slug,
	})
}

func (s *Server) handleDeletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := req.GetString("slug", "")
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	if ed, ok := s.sessions[slug]; ok {
		ed.Close()
		delete(s.sessions, slug)
		if s.activeSlug == slug {
			s.activeSlug = ""
		}
	}
	if err := s.editors.DeletePage(ctx, slug); err != nil {
		return nil, fmt.Errorf("delete page: %w", err)
	}
	return textResult(fmt.Sprintf("Deleted page %q", slug)), nil
}
