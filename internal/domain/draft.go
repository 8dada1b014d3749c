package domain

import "time"

// DraftVersion is the current draft snapshot format. Drafts written with a
// different version are treated as absent rather than migrated.
const DraftVersion = 2

// Draft is a locally cached snapshot of an in-progress page edit, keyed by
// slug and distinct from the persisted copy.
type Draft struct {
	Slug    string    `json:"slug"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	Page    Page      `json:"page"`
}

// DraftStore persists local draft snapshots.
type DraftStore interface {
	SaveDraft(d *Draft) error
	// LoadDraft returns nil (no error) when no current-version draft exists.
	LoadDraft(slug string) (*Draft, error)
	DeleteDraft(slug string) error
	// PurgeStale removes drafts whose format version is not current.
	PurgeStale() (int, error)
}
