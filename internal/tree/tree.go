// Package tree implements pure operations over a page's section forest.
// Every operation returns a new forest; inputs are never mutated. After any
// operation, every sibling list it touched satisfies list[i].Order == i.
package tree

import "pagesmith/internal/domain"

// Direction selects which neighbor MoveSibling swaps with.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Position describes where a node sits within its sibling list.
// ParentID is "" for top-level nodes.
type Position struct {
	ParentID string
	Index    int
	IsFirst  bool
	IsLast   bool
}

// FindByID returns a copy of the first node with the given id, depth-first.
// Ids are expected unique; on corrupted data with duplicates the first
// depth-first match is authoritative.
func FindByID(forest []domain.Section, id string) (domain.Section, bool) {
	for i := range forest {
		if forest[i].ID == id {
			return cloneSection(forest[i]), true
		}
		if found, ok := FindByID(forest[i].Children, id); ok {
			return found, true
		}
	}
	return domain.Section{}, false
}

// UpdateByID replaces the first node with the given id, keeping its position
// and order. The replacement's children are kept in the order supplied but
// renumbered, so the contiguity guarantee holds even for a replacement built
// outside this package. Unknown id returns the forest unchanged.
func UpdateByID(forest []domain.Section, id string, replacement domain.Section) []domain.Section {
	out := Clone(forest)
	updateInPlace(out, id, replacement)
	return out
}

func updateInPlace(list []domain.Section, id string, replacement domain.Section) bool {
	for i := range list {
		if list[i].ID == id {
			replacement = cloneSection(replacement)
			replacement.Order = list[i].Order
			normalizeInPlace(replacement.Children)
			list[i] = replacement
			return true
		}
	}
	for i := range list {
		if updateInPlace(list[i].Children, id, replacement) {
			return true
		}
	}
	return false
}

// DeleteByID removes the first node with the given id together with its
// entire subtree, then renumbers the surviving siblings. Unknown id returns
// the forest unchanged.
func DeleteByID(forest []domain.Section, id string) []domain.Section {
	out := Clone(forest)
	out, _ = deleteInPlace(out, id)
	return out
}

func deleteInPlace(list []domain.Section, id string) ([]domain.Section, bool) {
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			renumber(list)
			return list, true
		}
	}
	for i := range list {
		if children, ok := deleteInPlace(list[i].Children, id); ok {
			list[i].Children = children
			return list, true
		}
	}
	return list, false
}

// MoveSibling swaps the node with its immediate predecessor (up) or
// successor (down) within its own sibling list. Moving the first node up or
// the last node down is a no-op, as is an unknown id.
func MoveSibling(forest []domain.Section, id string, dir Direction) []domain.Section {
	out := Clone(forest)
	moveInPlace(out, id, dir)
	return out
}

func moveInPlace(list []domain.Section, id string, dir Direction) bool {
	for i := range list {
		if list[i].ID != id {
			continue
		}
		j := i + 1
		if dir == DirectionUp {
			j = i - 1
		}
		if j < 0 || j >= len(list) {
			return true
		}
		list[i], list[j] = list[j], list[i]
		renumber(list)
		return true
	}
	for i := range list {
		if moveInPlace(list[i].Children, id, dir) {
			return true
		}
	}
	return false
}

// InsertAt inserts node into the sibling list owned by parentID ("" for the
// top level) at the given index. A negative or out-of-range index appends.
// A missing parent's children list is created. Unknown parentID returns the
// forest unchanged.
func InsertAt(forest []domain.Section, parentID string, node domain.Section, index int) []domain.Section {
	out := Clone(forest)
	node = cloneSection(node)
	if parentID == "" {
		return insertIntoList(out, node, index)
	}
	insertUnderParent(out, parentID, node, index)
	return out
}

func insertUnderParent(list []domain.Section, parentID string, node domain.Section, index int) bool {
	for i := range list {
		if list[i].ID == parentID {
			list[i].Children = insertIntoList(list[i].Children, node, index)
			return true
		}
	}
	for i := range list {
		if insertUnderParent(list[i].Children, parentID, node, index) {
			return true
		}
	}
	return false
}

func insertIntoList(list []domain.Section, node domain.Section, index int) []domain.Section {
	if index < 0 || index > len(list) {
		index = len(list)
	}
	list = append(list, domain.Section{})
	copy(list[index+1:], list[index:])
	list[index] = node
	renumber(list)
	return list
}

// ReorderWithinParent moves the element at fromIndex to toIndex within the
// sibling list owned by parentID ("" for the top level). The insertion index
// is corrected by one when moving forward, compensating for the removal
// shifting later indices down. Out-of-range indices are a no-op.
func ReorderWithinParent(forest []domain.Section, parentID string, fromIndex, toIndex int) []domain.Section {
	out := Clone(forest)
	if parentID == "" {
		return reorderList(out, fromIndex, toIndex)
	}
	reorderUnderParent(out, parentID, fromIndex, toIndex)
	return out
}

func reorderUnderParent(list []domain.Section, parentID string, fromIndex, toIndex int) bool {
	for i := range list {
		if list[i].ID == parentID {
			list[i].Children = reorderList(list[i].Children, fromIndex, toIndex)
			return true
		}
	}
	for i := range list {
		if reorderUnderParent(list[i].Children, parentID, fromIndex, toIndex) {
			return true
		}
	}
	return false
}

func reorderList(list []domain.Section, fromIndex, toIndex int) []domain.Section {
	if fromIndex < 0 || fromIndex >= len(list) || toIndex < 0 || toIndex > len(list) {
		return list
	}
	node := list[fromIndex]
	list = append(list[:fromIndex], list[fromIndex+1:]...)
	insertAt := toIndex
	if fromIndex < toIndex {
		insertAt = toIndex - 1
	}
	return insertIntoList(list, node, insertAt)
}

// SiblingInfo reports the position of the node with the given id, used to
// gate move-up/move-down affordances and to resolve which sibling list an
// active node belongs to.
func SiblingInfo(forest []domain.Section, id string) (Position, bool) {
	return siblingInfo(forest, "", id)
}

func siblingInfo(list []domain.Section, parentID, id string) (Position, bool) {
	for i := range list {
		if list[i].ID == id {
			return Position{
				ParentID: parentID,
				Index:    i,
				IsFirst:  i == 0,
				IsLast:   i == len(list)-1,
			}, true
		}
	}
	for i := range list {
		if pos, ok := siblingInfo(list[i].Children, list[i].ID, id); ok {
			return pos, true
		}
	}
	return Position{}, false
}

// ExtractByID removes the node with the given id and returns it with its
// subtree intact, together with the forest it was removed from. Used by
// re-parenting moves, where the extracted node is re-inserted elsewhere.
func ExtractByID(forest []domain.Section, id string) (domain.Section, []domain.Section, bool) {
	node, ok := FindByID(forest, id)
	if !ok {
		return domain.Section{}, forest, false
	}
	rest := Clone(forest)
	rest, _ = deleteInPlace(rest, id)
	return node, rest, true
}

// Walk visits every node depth-first, parents before children. The visit
// callback receives the node and the id of its parent ("" at the top level).
func Walk(forest []domain.Section, visit func(s domain.Section, parentID string)) {
	walk(forest, "", visit)
}

func walk(list []domain.Section, parentID string, visit func(s domain.Section, parentID string)) {
	for i := range list {
		visit(list[i], parentID)
		walk(list[i].Children, list[i].ID, visit)
	}
}

// Normalize renumbers every sibling list in the forest. Used after loading
// persisted data that may predate the contiguity guarantee.
func Normalize(forest []domain.Section) []domain.Section {
	out := Clone(forest)
	normalizeInPlace(out)
	return out
}

func normalizeInPlace(list []domain.Section) {
	renumber(list)
	for i := range list {
		normalizeInPlace(list[i].Children)
	}
}

// Clone deep-copies a forest.
func Clone(forest []domain.Section) []domain.Section {
	if forest == nil {
		return nil
	}
	out := make([]domain.Section, len(forest))
	for i := range forest {
		out[i] = cloneSection(forest[i])
	}
	return out
}

func cloneSection(s domain.Section) domain.Section {
	out := s
	out.Children = Clone(s.Children)
	if s.Hero != nil {
		v := *s.Hero
		out.Hero = &v
	}
	if s.Text != nil {
		v := *s.Text
		out.Text = &v
	}
	if s.CardGrid != nil {
		v := *s.CardGrid
		v.Cards = append([]domain.Card(nil), s.CardGrid.Cards...)
		out.CardGrid = &v
	}
	if s.CallToAct != nil {
		v := *s.CallToAct
		out.CallToAct = &v
	}
	if s.ContentList != nil {
		v := *s.ContentList
		out.ContentList = &v
	}
	if s.Component != nil {
		v := *s.Component
		if s.Component.Data != nil {
			v.Data = make(map[string]string, len(s.Component.Data))
			for k, val := range s.Component.Data {
				v.Data[k] = val
			}
		}
		out.Component = &v
	}
	if s.Style != nil {
		v := *s.Style
		out.Style = &v
	}
	return out
}

func renumber(list []domain.Section) {
	for i := range list {
		list[i].Order = i
	}
}
