package service

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"pagesmith/internal/domain"
)

// DraftJanitor periodically purges drafts written under an old format
// version. Stale drafts are already invisible to the editor; the janitor
// just reclaims the rows.
type DraftJanitor struct {
	drafts   domain.DraftStore
	schedule string
	cron     *cron.Cron
}

// NewDraftJanitor creates a janitor. schedule is a cron expression;
// "@hourly" is used when empty.
func NewDraftJanitor(drafts domain.DraftStore, schedule string) *DraftJanitor {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &DraftJanitor{drafts: drafts, schedule: schedule}
}

// Start begins the sweep schedule. An immediate sweep runs first so a
// version bump cleans up on startup rather than an hour later.
func (j *DraftJanitor) Start() error {
	j.sweep()

	c := cron.New()
	if _, err := c.AddFunc(j.schedule, j.sweep); err != nil {
		return fmt.Errorf("schedule draft sweep: %w", err)
	}
	c.Start()
	j.cron = c
	return nil
}

// Stop halts the schedule. A sweep already in flight finishes.
func (j *DraftJanitor) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

func (j *DraftJanitor) sweep() {
	n, err := j.drafts.PurgeStale()
	if err != nil {
		log.Printf("drafts: stale sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("drafts: purged %d stale draft(s)", n)
	}
}
