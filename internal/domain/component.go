package domain

import "context"

type ComponentType string

const (
	ComponentTypePrimitive ComponentType = "primitive"
	ComponentTypeComposite ComponentType = "composite"
)

type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeImage  FieldType = "image"
	FieldTypeURL    FieldType = "url"
	FieldTypeBool   FieldType = "boolean"
)

// Field is one entry in a component's declared data schema.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Default  string    `json:"default,omitempty"`
}

// Primitive is an atomic catalog component with a flat field schema.
type Primitive struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// PrimitiveInstance is one primitive placed inside a composite, with prop
// values bound at composition time. Prop values may contain {{fieldName}}
// placeholders resolved against a section's data bag at display time.
type PrimitiveInstance struct {
	PrimitiveID string            `json:"primitiveId"`
	Props       map[string]string `json:"props,omitempty"`
}

// Composite is a reusable arrangement of primitive instances with its own
// externally-facing data schema and column constraints.
type Composite struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Instances      []PrimitiveInstance `json:"instances"`
	Fields         []Field             `json:"fields"`
	MinColumns     int                 `json:"minColumns"`
	DefaultColumns int                 `json:"defaultColumns"`
}

// CatalogProvider supplies component definitions. The editor only reads from
// the catalog; definitions are owned elsewhere.
type CatalogProvider interface {
	ListPrimitives(ctx context.Context) ([]Primitive, error)
	ListComposites(ctx context.Context) ([]Composite, error)
}
