// Package catalog resolves component-reference sections against the
// primitive and composite component catalogs. The catalogs are read-mostly
// lookup tables loaded once per editing session; the editor never writes to
// them.
package catalog

import (
	"fmt"

	"pagesmith/internal/domain"
)

const (
	// MaxColumns is the width of the layout grid.
	MaxColumns = 12
	// MinColumnsFloor applies when a definition declares no floor of its own.
	MinColumnsFloor = 1
)

// Resolved is the display metadata and data-entry schema produced for a
// component-reference section.
type Resolved struct {
	// Missing marks a dangling reference: the id was found in neither
	// catalog. The section itself is left untouched; editors surface this
	// as a visible warning.
	Missing bool

	ComponentID string
	Type        domain.ComponentType
	Name        string
	Fields      []domain.Field

	// Composite-only constraints.
	MinColumns     int
	DefaultColumns int

	// Preview holds each bound primitive instance with its prop templates
	// substituted from the section's data bag.
	Preview []PreviewInstance
}

// PreviewInstance is one primitive placement inside a composite preview.
type PreviewInstance struct {
	PrimitiveID   string
	PrimitiveName string
	Props         map[string]string
}

// Resolver indexes the session's component catalogs by id.
type Resolver struct {
	primitives map[string]domain.Primitive
	composites map[string]domain.Composite
}

func NewResolver(primitives []domain.Primitive, composites []domain.Composite) *Resolver {
	r := &Resolver{
		primitives: make(map[string]domain.Primitive, len(primitives)),
		composites: make(map[string]domain.Composite, len(composites)),
	}
	for _, p := range primitives {
		r.primitives[p.ID] = p
	}
	for _, c := range composites {
		r.composites[c.ID] = c
	}
	return r
}

// Resolve produces display metadata for a component-reference section. An
// unresolved id yields a missing-component placeholder; broken references
// are tolerated, never fatal.
func (r *Resolver) Resolve(ref domain.ComponentRefData) Resolved {
	switch ref.ComponentType {
	case domain.ComponentTypePrimitive:
		p, ok := r.primitives[ref.ComponentID]
		if !ok {
			return missing(ref)
		}
		return Resolved{
			ComponentID:    p.ID,
			Type:           domain.ComponentTypePrimitive,
			Name:           p.Name,
			Fields:         p.Fields,
			MinColumns:     MinColumnsFloor,
			DefaultColumns: MaxColumns,
		}
	case domain.ComponentTypeComposite:
		c, ok := r.composites[ref.ComponentID]
		if !ok {
			return missing(ref)
		}
		return Resolved{
			ComponentID:    c.ID,
			Type:           domain.ComponentTypeComposite,
			Name:           c.Name,
			Fields:         c.Fields,
			MinColumns:     clampFloor(c.MinColumns),
			DefaultColumns: r.SeedColumns(domain.ComponentTypeComposite, c.ID),
			Preview:        r.preview(c, ref.Data),
		}
	}
	return missing(ref)
}

func missing(ref domain.ComponentRefData) Resolved {
	return Resolved{
		Missing:        true,
		ComponentID:    ref.ComponentID,
		Type:           ref.ComponentType,
		Name:           fmt.Sprintf("Missing component (%s)", ref.ComponentID),
		MinColumns:     MinColumnsFloor,
		DefaultColumns: MaxColumns,
	}
}

func (r *Resolver) preview(c domain.Composite, data map[string]string) []PreviewInstance {
	out := make([]PreviewInstance, 0, len(c.Instances))
	for _, inst := range c.Instances {
		name := inst.PrimitiveID
		if p, ok := r.primitives[inst.PrimitiveID]; ok {
			name = p.Name
		}
		props := make(map[string]string, len(inst.Props))
		for k, v := range inst.Props {
			props[k] = ResolveTemplate(v, data)
		}
		out = append(out, PreviewInstance{
			PrimitiveID:   inst.PrimitiveID,
			PrimitiveName: name,
			Props:         props,
		})
	}
	return out
}

// ValidateColumns rejects a requested span below the component's hard floor
// or outside the grid. A missing definition only enforces grid bounds.
func (r *Resolver) ValidateColumns(ref domain.ComponentRefData, columns int) error {
	if columns < 1 || columns > MaxColumns {
		return fmt.Errorf("columns must be between 1 and %d, got %d", MaxColumns, columns)
	}
	resolved := r.Resolve(ref)
	if columns < resolved.MinColumns {
		return fmt.Errorf("component %q requires at least %d columns, got %d",
			resolved.Name, resolved.MinColumns, columns)
	}
	return nil
}

// SeedColumns returns the span a newly created reference starts with. A
// composite's defaultColumns is only this creation seed, not an ongoing
// constraint; primitives start full width.
func (r *Resolver) SeedColumns(componentType domain.ComponentType, id string) int {
	if componentType != domain.ComponentTypeComposite {
		return MaxColumns
	}
	c, ok := r.composites[id]
	if !ok {
		return MaxColumns
	}
	seed := c.DefaultColumns
	if seed < 1 || seed > MaxColumns {
		seed = MaxColumns
	}
	if floor := clampFloor(c.MinColumns); seed < floor {
		seed = floor
	}
	return seed
}

func clampFloor(min int) int {
	if min < MinColumnsFloor {
		return MinColumnsFloor
	}
	if min > MaxColumns {
		return MaxColumns
	}
	return min
}
