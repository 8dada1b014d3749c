// Package dragdrop holds the transient interaction state of one editing
// surface: which thing is being dragged and where it would land. The session
// never touches a forest until Drop, which resolves the whole gesture into a
// single tree operation.
package dragdrop

import (
	"sync"

	"pagesmith/internal/domain"
	"pagesmith/internal/tree"
)

type SourceKind string

const (
	// SourceKindPalette creates a new built-in section on drop.
	SourceKindPalette SourceKind = "palette"
	// SourceKindCatalog creates a new component-reference section on drop.
	SourceKindCatalog SourceKind = "catalog"
	// SourceKindNode repositions an existing canvas node on drop.
	SourceKindNode SourceKind = "node"
)

// Source identifies what is being dragged. Exactly the fields for its Kind
// are meaningful.
type Source struct {
	Kind SourceKind

	// Palette drags.
	SectionType domain.SectionType

	// Catalog drags.
	ComponentID   string
	ComponentType domain.ComponentType

	// Node drags.
	NodeID       string
	FromParentID string
	FromIndex    int
}

// target is either a gap between siblings or the body of a node ("nest").
type target struct {
	nest     bool
	nodeID   string // nest target
	parentID string // gap target, "" = top level
	index    int    // gap target
}

// SectionFactory mints a new section for a palette or catalog source. The
// editor supplies it so id assignment and catalog defaults (a composite's
// defaultColumns seed) stay out of this package.
type SectionFactory func(src Source) (domain.Section, error)

// Session is the single-flight drag state: idle → dragging(source) → idle.
// It is owned by one editing surface, resolved synchronously on pointer
// release, and never persisted.
type Session struct {
	mu      sync.Mutex
	active  bool
	source  Source
	target  *target
	factory SectionFactory
}

func NewSession(factory SectionFactory) *Session {
	return &Session{factory: factory}
}

// Begin starts a drag, replacing any drag already in flight.
func (s *Session) Begin(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.source = src
	s.target = nil
}

// Dragging reports whether a drag is in flight.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// HoverGap records a gap between siblings as the pending drop target.
func (s *Session) HoverGap(parentID string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.target = &target{parentID: parentID, index: index}
}

// HoverNest records "drop inside this node's children" as the pending drop
// target. A node hovering over itself is ignored.
func (s *Session) HoverNest(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	if s.source.Kind == SourceKindNode && s.source.NodeID == nodeID {
		return
	}
	s.target = &target{nest: true, nodeID: nodeID}
}

// Cancel returns to idle with no forest mutation.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.target = nil
}

// Drop resolves the gesture against the forest and returns the resulting
// forest plus whether anything changed. Releasing with no valid target, or
// any resolution that cannot complete, leaves the forest untouched. The
// session returns to idle either way.
func (s *Session) Drop(forest []domain.Section) ([]domain.Section, bool, error) {
	s.mu.Lock()
	active, src, tgt := s.active, s.source, s.target
	s.active = false
	s.target = nil
	s.mu.Unlock()

	if !active || tgt == nil {
		return forest, false, nil
	}

	parentID, index := tgt.parentID, tgt.index
	if tgt.nest {
		parentID, index = tgt.nodeID, -1
	}
	// The target may have been deleted after it was hovered. InsertAt would
	// quietly no-op then, which must not read as a mutation.
	if parentID != "" {
		if _, found := tree.FindByID(forest, parentID); !found {
			return forest, false, nil
		}
	}

	switch src.Kind {
	case SourceKindPalette, SourceKindCatalog:
		node, err := s.factory(src)
		if err != nil {
			return forest, false, err
		}
		return tree.InsertAt(forest, parentID, node, index), true, nil

	case SourceKindNode:
		if !tgt.nest && parentID == src.FromParentID {
			return tree.ReorderWithinParent(forest, parentID, src.FromIndex, index), true, nil
		}
		// Re-parent: extract the node with its subtree, then insert it at
		// the new location. If the target parent lived inside the extracted
		// subtree the insert has nowhere to go, so the whole move is a no-op.
		node, rest, ok := tree.ExtractByID(forest, src.NodeID)
		if !ok {
			return forest, false, nil
		}
		if parentID != "" {
			if _, found := tree.FindByID(rest, parentID); !found {
				return forest, false, nil
			}
		}
		return tree.InsertAt(rest, parentID, node, index), true, nil
	}
	return forest, false, nil
}
