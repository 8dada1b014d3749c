package mcpserver

import (
	"context"
	"fmt"

	"pagesmith/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerContentTools() {
	// ── list_collections ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List the collections available from each configured content source"),
	), s.handleListCollections)

	// ── preview_collection ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_collection",
		mcp.WithDescription("Fetch sample entries from a content collection, as a content list section would render them"),
		mcp.WithString("collection",
			mcp.Description("Collection reference, either \"collection\" or \"source/collection\""),
			mcp.Required(),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to fetch (optional)")),
	), s.handlePreviewCollection)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.content == nil {
		return textResult("No content sources configured"), nil
	}
	byName, err := s.content.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return jsonResult(byName)
}

func (s *Server) handlePreviewCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection := req.GetString("collection", "")
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if s.content == nil {
		return nil, fmt.Errorf("no content sources configured")
	}
	entries, err := s.content.Preview(ctx, domain.ContentListData{
		Collection: collection,
		Limit:      getInt(req.GetArguments(), "limit", 0),
	})
	if err != nil {
		return nil, fmt.Errorf("preview collection: %w", err)
	}
	return jsonResult(entries)
}
