package mcpserver

import (
	"context"
	"fmt"

	"pagesmith/internal/domain"
	"pagesmith/internal/tree"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSectionTools() {
	// ── list_sections ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sections",
		mcp.WithDescription("List the section tree of an open page"),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleListSections)

	// ── add_section ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_section",
		mcp.WithDescription("Add a new built-in section to an open page"),
		mcp.WithString("type",
			mcp.Description("Section type: hero, text, cardGrid, callToAction, contentList"),
			mcp.Required(),
		),
		mcp.WithString("parentId", mcp.Description("Parent section ID (optional, omit for top level)")),
		mcp.WithNumber("index", mcp.Description("Insertion index among siblings (optional, appends if omitted)")),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleAddSection)

	// ── add_component_section ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_component_section",
		mcp.WithDescription("Add a section referencing a catalog component. The column span is seeded from the composite's default."),
		mcp.WithString("componentId", mcp.Description("Catalog component ID"), mcp.Required()),
		mcp.WithString("componentType",
			mcp.Description("Component type: primitive or composite"),
			mcp.Required(),
		),
		mcp.WithString("parentId", mcp.Description("Parent section ID (optional, omit for top level)")),
		mcp.WithNumber("index", mcp.Description("Insertion index among siblings (optional, appends if omitted)")),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleAddComponentSection)

	// ── update_section ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_section",
		mcp.WithDescription("Replace a section's content in place, keeping its position and children handling per the payload. Pass the full section as JSON."),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Required()),
		mcp.WithString("section",
			mcp.Description("Full section object as JSON"),
			mcp.Required(),
		),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleUpdateSection)

	// ── delete_section (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("delete_section",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a section and its entire subtree."),
		mcp.WithString("sectionId", mcp.Description("Section ID to delete"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSection)

	// ── move_section ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_section",
		mcp.WithDescription("Swap a section with its previous or next sibling. Moves at the boundary are no-ops."),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("Direction: up or down"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleMoveSection)

	// ── reorder_sections ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_sections",
		mcp.WithDescription("Move a section from one index to another within the same sibling list"),
		mcp.WithString("parentId", mcp.Description("Parent section ID (optional, omit for top level)")),
		mcp.WithNumber("fromIndex", mcp.Description("Current index"), mcp.Required()),
		mcp.WithNumber("toIndex", mcp.Description("Target index"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleReorderSections)

	// ── nest_section ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("nest_section",
		mcp.WithDescription("Move a section (with its subtree) to the end of another section's children. Nesting a section into its own descendant is a no-op."),
		mcp.WithString("sectionId", mcp.Description("Section ID to move"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Section ID that becomes the new parent"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("Slug of the open page (optional, defaults to active page)")),
	), s.handleNestSection)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(ed.Sections())
}

func (s *Server) handleAddSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionType := req.GetString("type", "")
	if sectionType == "" {
		return nil, fmt.Errorf("type is required")
	}
	args := req.GetArguments()
	ed, err := s.resolveEditor(args)
	if err != nil {
		return nil, err
	}
	parentID := req.GetString("parentId", "")
	index := getInt(args, "index", -1)

	section, err := ed.AddSection(domain.SectionType(sectionType), parentID, index)
	if err != nil {
		return nil, fmt.Errorf("add section: %w", err)
	}
	return jsonResult(section)
}

func (s *Server) handleAddComponentSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	componentID := req.GetString("componentId", "")
	componentType := req.GetString("componentType", "")
	if componentID == "" || componentType == "" {
		return nil, fmt.Errorf("componentId and componentType are required")
	}
	args := req.GetArguments()
	ed, err := s.resolveEditor(args)
	if err != nil {
		return nil, err
	}
	parentID := req.GetString("parentId", "")
	index := getInt(args, "index", -1)

	section, err := ed.AddComponentSection(componentID, domain.ComponentType(componentType), parentID, index)
	if err != nil {
		return nil, fmt.Errorf("add component section: %w", err)
	}
	return jsonResult(section)
}

func (s *Server) handleUpdateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID := req.GetString("sectionId", "")
	raw := req.GetString("section", "")
	if sectionID == "" || raw == "" {
		return nil, fmt.Errorf("sectionId and section are required")
	}
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}

	var section domain.Section
	if err := parseJSON(raw, &section); err != nil {
		return nil, fmt.Errorf("parse section: %w", err)
	}
	if err := ed.UpdateSection(sectionID, section); err != nil {
		return nil, fmt.Errorf("update section: %w", err)
	}
	return textResult(fmt.Sprintf("Updated section %s", sectionID)), nil
}

func (s *Server) handleDeleteSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID := req.GetString("sectionId", "")
	if sectionID == "" {
		return nil, fmt.Errorf("sectionId is required")
	}
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := ed.DeleteSection(sectionID); err != nil {
		return nil, fmt.Errorf("delete section: %w", err)
	}
	return textResult(fmt.Sprintf("Deleted section %s and its subtree", sectionID)), nil
}

func (s *Server) handleMoveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID := req.GetString("sectionId", "")
	direction := req.GetString("direction", "")
	if sectionID == "" {
		return nil, fmt.Errorf("sectionId is required")
	}
	var dir tree.Direction
	switch direction {
	case "up":
		dir = tree.DirectionUp
	case "down":
		dir = tree.DirectionDown
	default:
		return nil, fmt.Errorf("direction must be up or down, got %q", direction)
	}
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := ed.MoveSection(sectionID, dir); err != nil {
		return nil, fmt.Errorf("move section: %w", err)
	}
	return textResult(fmt.Sprintf("Moved section %s %s", sectionID, direction)), nil
}

func (s *Server) handleReorderSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ed, err := s.resolveEditor(args)
	if err != nil {
		return nil, err
	}
	parentID := req.GetString("parentId", "")
	fromIndex := getInt(args, "fromIndex", -1)
	toIndex := getInt(args, "toIndex", -1)
	if fromIndex < 0 || toIndex < 0 {
		return nil, fmt.Errorf("fromIndex and toIndex are required")
	}
	if err := ed.ReorderSections(parentID, fromIndex, toIndex); err != nil {
		return nil, fmt.Errorf("reorder sections: %w", err)
	}
	return textResult(fmt.Sprintf("Moved index %d to %d", fromIndex, toIndex)), nil
}

func (s *Server) handleNestSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID := req.GetString("sectionId", "")
	targetID := req.GetString("targetId", "")
	if sectionID == "" || targetID == "" {
		return nil, fmt.Errorf("sectionId and targetId are required")
	}
	ed, err := s.resolveEditor(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := ed.BeginNodeDrag(sectionID); err != nil {
		return nil, fmt.Errorf("nest section: %w", err)
	}
	ed.HoverNest(targetID)
	if err := ed.Drop(); err != nil {
		return nil, fmt.Errorf("nest section: %w", err)
	}
	pos, ok := ed.SectionInfo(sectionID)
	if ok && pos.ParentID == targetID {
		return textResult(fmt.Sprintf("Nested section %s under %s", sectionID, targetID)), nil
	}
	return textResult(fmt.Sprintf("Section %s was not moved (target missing or inside its own subtree)", sectionID)), nil
}
