package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagesmith/internal/domain"
)

// DraftStore implements domain.DraftStore on SQLite. Snapshots are stored as
// JSON keyed by slug, tagged with the format version they were written
// under. A draft written under any other version is treated as absent.
type DraftStore struct {
	db *DB
}

func NewDraftStore(db *DB) *DraftStore {
	return &DraftStore{db: db}
}

func (s *DraftStore) SaveDraft(d *domain.Draft) error {
	d.Version = domain.DraftVersion
	d.SavedAt = time.Now()
	snapshot, err := json.Marshal(d.Page)
	if err != nil {
		return fmt.Errorf("marshal draft snapshot: %w", err)
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO drafts (slug, version, snapshot, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET version = excluded.version, snapshot = excluded.snapshot, saved_at = excluded.saved_at`,
		d.Slug, d.Version, string(snapshot), d.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LoadDraft returns the draft for slug, or nil when none exists. A stale
// format version counts as absent; the row is discarded, not migrated.
func (s *DraftStore) LoadDraft(slug string) (*domain.Draft, error) {
	var (
		version  int
		snapshot string
		savedAt  time.Time
	)
	err := s.db.Conn().QueryRow(
		`SELECT version, snapshot, saved_at FROM drafts WHERE slug = ?`, slug,
	).Scan(&version, &snapshot, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	if version != domain.DraftVersion {
		_ = s.DeleteDraft(slug)
		return nil, nil
	}

	var page domain.Page
	if err := json.Unmarshal([]byte(snapshot), &page); err != nil {
		return nil, fmt.Errorf("decode draft snapshot: %w", err)
	}
	return &domain.Draft{Slug: slug, Version: version, SavedAt: savedAt, Page: page}, nil
}

func (s *DraftStore) DeleteDraft(slug string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM drafts WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// PurgeStale removes every draft whose format version is not current and
// reports how many rows went away.
func (s *DraftStore) PurgeStale() (int, error) {
	res, err := s.db.Conn().Exec(`DELETE FROM drafts WHERE version != ?`, domain.DraftVersion)
	if err != nil {
		return 0, fmt.Errorf("purge stale drafts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
