package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"pagesmith/internal/domain"
	"pagesmith/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the page builder. It exposes tools and
// resources so AI agents can compose, edit, and publish pages.
type Server struct {
	mcp      *server.MCPServer
	provider domain.CatalogProvider

	// Services (injected from the entry point)
	editors *service.EditorService
	content *service.ContentService

	// Open editing sessions keyed by slug. Stdio requests arrive one at a
	// time, so no locking is needed around this map.
	sessions   map[string]*service.Editor
	activeSlug string
}

// Deps holds all dependencies passed to the MCP server.
type Deps struct {
	Editors  *service.EditorService
	Content  *service.ContentService
	Provider domain.CatalogProvider
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		provider: deps.Provider,
		editors:  deps.Editors,
		content:  deps.Content,
		sessions: map[string]*service.Editor{},
	}

	s.mcp = server.NewMCPServer(
		"pagesmith-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerPageTools()
	s.registerSectionTools()
	s.registerCatalogTools()
	s.registerContentTools()
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Close shuts down every open editing session.
func (s *Server) Close() {
	for slug, ed := range s.sessions {
		ed.Close()
		delete(s.sessions, slug)
	}
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveEditor returns the open session for the slug from tool args, or the
// active session when no slug is given.
func (s *Server) resolveEditor(args map[string]any) (*service.Editor, error) {
	slug, _ := args["slug"].(string)
	if slug == "" {
		slug = s.activeSlug
	}
	if slug == "" {
		return nil, fmt.Errorf("no slug provided and no page open (use open_page or create_page first)")
	}
	ed, ok := s.sessions[slug]
	if !ok {
		return nil, fmt.Errorf("page %q is not open (use open_page first)", slug)
	}
	return ed, nil
}

// trackEditor registers an open session as the active one. Untitled new
// pages are tracked under an empty slug until SetTitle names them.
func (s *Server) trackEditor(slug string, ed *service.Editor) {
	if old, ok := s.sessions[slug]; ok && old != ed {
		old.Close()
	}
	s.sessions[slug] = ed
	s.activeSlug = slug
}

// retrackEditor follows a session whose slug changed while it was still
// tracking the title.
func (s *Server) retrackEditor(oldSlug string, ed *service.Editor) {
	newSlug := ed.Page().Slug
	if newSlug == oldSlug {
		return
	}
	delete(s.sessions, oldSlug)
	s.sessions[newSlug] = ed
	if s.activeSlug == oldSlug {
		s.activeSlug = newSlug
	}
}
