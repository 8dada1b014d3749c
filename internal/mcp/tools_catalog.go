package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCatalogTools() {
	// ── list_components ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List all primitive and composite components available in the catalogs"),
	), s.handleListComponents)

	// ── resolve_component ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resolve_component",
		mcp.WithDescription("Resolve a component-reference section against the catalogs. Dangling references resolve to a placeholder."),
		mcp.WithString("sectionId", mcp.Description("Component section ID"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleResolveComponent)

	// ── set_component_columns ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_component_columns",
		mcp.WithDescription("Set the grid column span of a component section. A composite's minColumns is a hard floor."),
		mcp.WithString("sectionId", mcp.Description("Component section ID"), mcp.Required()),
		mcp.WithNumber("columns", mcp.Description("Column span, 1 to 12"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleSetComponentColumns)

	// ── set_component_field ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_component_field",
		mcp.WithDescription("Set one data field of a component section, substituted into the component's placeholders at render time"),
		mcp.WithString("sectionId", mcp.Description("Component section ID"), mcp.Required()),
		mcp.WithString("field", mcp.Description("Field name"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Field value"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleSetComponentField)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	primitives, err := s.provider.ListPrimitives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list primitives: %w", err)
	}
	composites, err := s.provider.ListComposites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list composites: %w", err)
	}
	return jsonResult(map[string]any{
		"primitives": primitives,
		"composites": composites,
	})
}

func (s *Server) handleResolveComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID := req.GetString("sectionId", "")
	if sectionID == "" {
		return nil, fmt.Errorf("sectionId is required")
	}
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	resolved, err := ed.ResolveComponent(sectionID)
	if err != nil {
		return nil, fmt.Errorf("resolve component: %w", err)
	}
	return jsonResult(resolved)
}

func (s *Server) handleSetComponentColumns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID := req.GetString("sectionId", "")
	if sectionID == "" {
		return nil, fmt.Errorf("sectionId is required")
	}
	args := req.GetArguments()
	columns := getInt(args, "columns", 0)
	ed, err := s.resolveEditor(args)
	if err != nil {
		return nil, err
	}
	if err := ed.SetComponentColumns(sectionID, columns); err != nil {
		return nil, fmt.Errorf("set columns: %w", err)
	}
	return textResult(fmt.Sprintf("Section %s now spans %d columns", sectionID, columns)), nil
}

func (s *Server) handleSetComponentField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID := req.GetString("sectionId", "")
	field := req.GetString("field", "")
	if sectionID == "" || field == "" {
		return nil, fmt.Errorf("sectionId and field are required")
	}
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := ed.SetComponentField(sectionID, field, req.GetString("value", "")); err != nil {
		return nil, fmt.Errorf("set field: %w", err)
	}
	return textResult(fmt.Sprintf("Set %s on section %s", field, sectionID)), nil
}
