package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a document or draft does not exist.
var ErrNotFound = errors.New("not found")

type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// Page is the aggregate root of the editor: a slug-addressed document owning
// an ordered forest of sections. Slug is immutable once the page has been
// persisted for the first time.
type Page struct {
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Status        PageStatus `json:"status"`
	IsLandingPage bool       `json:"isLandingPage"`
	Layout        string     `json:"layout,omitempty"`
	Sections      []Section  `json:"sections"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// DocumentStore persists JSON documents at deterministic paths, one per
// page/layout/component. The production implementation commits each write to
// a git repository; any document store satisfies the contract. Conflicting
// writers are resolved last-write-wins by the store.
type DocumentStore interface {
	// Load returns the document at path, or ErrNotFound.
	Load(ctx context.Context, path string) ([]byte, error)
	// Save writes the document, recording message in the store's history.
	Save(ctx context.Context, path string, content []byte, message string) error
	// Delete removes the document, recording message in the store's history.
	Delete(ctx context.Context, path string, message string) error
	// List returns the paths of all documents under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
