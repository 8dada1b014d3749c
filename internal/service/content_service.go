package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"pagesmith/internal/collections"
	"pagesmith/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Content Service: previews for dynamic content list sections
// ─────────────────────────────────────────────────────────────

// ContentService resolves a content list section's collection reference
// against configured external sources. Connections open lazily and are
// reused for the session. A collection reference is "collection" (first
// configured source) or "source/collection".
type ContentService struct {
	sources []collections.Source

	mu    sync.Mutex
	conns map[string]collections.Connector
}

func NewContentService(sources []collections.Source) *ContentService {
	return &ContentService{
		sources: sources,
		conns:   map[string]collections.Connector{},
	}
}

// Preview fetches entries for a content list section. Failures here are
// referential, not fatal: the caller renders a placeholder and editing
// continues.
func (s *ContentService) Preview(ctx context.Context, list domain.ContentListData) ([]collections.Entry, error) {
	sourceName, collection := splitCollectionRef(list.Collection)
	conn, err := s.connector(sourceName)
	if err != nil {
		return nil, err
	}
	entries, err := conn.Entries(ctx, collection, list.Limit)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", list.Collection, err)
	}
	return entries, nil
}

// Collections lists every collection each configured source offers.
func (s *ContentService) Collections(ctx context.Context) (map[string][]string, error) {
	out := map[string][]string{}
	for _, src := range s.sources {
		conn, err := s.connector(src.Name)
		if err != nil {
			return nil, err
		}
		names, err := conn.Collections(ctx)
		if err != nil {
			return nil, fmt.Errorf("list collections for %s: %w", src.Name, err)
		}
		out[src.Name] = names
	}
	return out, nil
}

// Close closes every open connection.
func (s *ContentService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, conn := range s.conns {
		if err := conn.Close(); err != nil {
			log.Printf("content: close %s: %v", name, err)
		}
	}
	s.conns = map[string]collections.Connector{}
}

func (s *ContentService) connector(name string) (collections.Connector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.findSource(name)
	if !ok {
		return nil, fmt.Errorf("content source %q is not configured", name)
	}
	if conn, open := s.conns[src.Name]; open {
		return conn, nil
	}
	conn, err := collections.NewConnector(src)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", src.Name, err)
	}
	s.conns[src.Name] = conn
	return conn, nil
}

func (s *ContentService) findSource(name string) (collections.Source, bool) {
	if name == "" && len(s.sources) > 0 {
		return s.sources[0], true
	}
	for _, src := range s.sources {
		if src.Name == name {
			return src, true
		}
	}
	return collections.Source{}, false
}

func splitCollectionRef(ref string) (source, collection string) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "", ref
}
