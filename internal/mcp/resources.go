package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── pagesmith://pages ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"pagesmith://pages",
		"All Pages",
		mcp.WithMIMEType("application/json"),
	), s.handlePagesResource)

	// ── pagesmith://page/{slug}/sections ───────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"pagesmith://page/{slug}/sections",
			"Section Tree of a Page",
		),
		s.handlePageSectionsResource,
	)
}

func (s *Server) handlePagesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	pages, err := s.editors.ListPages(ctx)
	if err != nil {
		return nil, err
	}

	type pageSummary struct {
		Slug   string `json:"slug"`
		Title  string `json:"title"`
		Status string `json:"status"`
	}

	var summaries []pageSummary
	for _, p := range pages {
		summaries = append(summaries, pageSummary{Slug: p.Slug, Title: p.Title, Status: string(p.Status)})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "pagesmith://pages",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePageSectionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	slug := extractSlugFromURI(uri)
	if slug == "" {
		return nil, fmt.Errorf("could not extract slug from URI: %s", uri)
	}

	// Prefer the live session; fall back to the persisted copy.
	ed, ok := s.sessions[slug]
	if !ok {
		opened, err := s.editors.OpenPage(ctx, slug)
		if err != nil {
			return nil, err
		}
		defer opened.Close()
		ed = opened
	}

	data, _ := json.MarshalIndent(ed.Sections(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractSlugFromURI extracts the slug from "pagesmith://page/{slug}/sections"
func extractSlugFromURI(uri string) string {
	const prefix = "pagesmith://page/"
	const suffix = "/sections"
	if strings.HasPrefix(uri, prefix) && strings.HasSuffix(uri, suffix) {
		return strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	}
	return ""
}
