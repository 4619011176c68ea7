// Package draft persists wizard drafts keyed by owner and drives the
// submission workflow on top of them.
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/projectdraft/internal/model"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no record matches a key
	ErrNotFound = errors.New("draft not found")
	// ErrStaleRevision is returned when an upsert is older than the stored revision
	ErrStaleRevision = errors.New("stale draft revision")
	// ErrStatusConflict is returned when a status transition lost a race
	ErrStatusConflict = errors.New("draft status changed concurrently")
	// ErrNotAllowed is returned for workflow transitions the caller may not perform
	ErrNotAllowed = errors.New("transition not allowed")
	// ErrCorrupt is returned when the backing document cannot be parsed
	ErrCorrupt = errors.New("draft storage is corrupt")
	// ErrNoOwner is returned when a draft is written without an owner id
	ErrNoOwner = errors.New("owner id is required")
)

// Store persists drafts. Implementations are safe for concurrent use.
//
// Upsert replaces the data of the owner's draft-status record or creates one.
// A positive revision must be greater than the stored one and becomes the
// stored revision; revision 0 always wins and bumps the stored one by one, so
// every accepted write changes the revision.
// Get returns the owner's draft-status record, or nil when there is none.
// UpdateStatus moves a record from one status to another only while it still
// has the given revision; otherwise it returns ErrStatusConflict.
type Store interface {
	Upsert(ctx context.Context, ownerID string, data model.ProjectFormData, revision int64) error
	Get(ctx context.Context, ownerID string) (*model.Draft, error)
	Find(ctx context.Context, key string) (*model.Draft, error)
	UpdateStatus(ctx context.Context, key string, from, to model.Status, revision int64) error
	AppendAudit(ctx context.Context, entry model.AuditEntry) error
	ListAudit(ctx context.Context, key string) ([]model.AuditEntry, error)
	Close() error
}

func newKey() string {
	return uuid.New().String()
}

// checkRevision applies the monotonic revision guard
func checkRevision(stored, incoming int64) error {
	if incoming > 0 && incoming <= stored {
		return fmt.Errorf("%w: have %d, got %d", ErrStaleRevision, stored, incoming)
	}
	return nil
}

// nextRevision is the revision stored after an accepted write
func nextRevision(stored, incoming int64) int64 {
	if incoming > 0 {
		return incoming
	}
	return stored + 1
}

// upsertRecords applies Upsert semantics to an in-memory record list
func upsertRecords(records []model.Draft, ownerID string, data model.ProjectFormData, revision int64, now time.Time) ([]model.Draft, error) {
	if ownerID == "" {
		return records, ErrNoOwner
	}

	for i := range records {
		r := &records[i]
		if r.ID != ownerID || r.Status != model.StatusDraft {
			continue
		}
		if err := checkRevision(r.Revision, revision); err != nil {
			return records, err
		}
		r.Data = data.Clone()
		r.Revision = nextRevision(r.Revision, revision)
		r.UpdatedAt = now
		return records, nil
	}

	d := model.NewDraft(newKey(), ownerID, data.Clone(), revision)
	d.CreatedAt, d.UpdatedAt = now, now
	return append(records, d), nil
}

func findActive(records []model.Draft, ownerID string) *model.Draft {
	for i := range records {
		if records[i].ID == ownerID && records[i].Status == model.StatusDraft {
			return copyDraft(records[i])
		}
	}
	return nil
}

func findByKey(records []model.Draft, key string) *model.Draft {
	for i := range records {
		if records[i].Key == key {
			return copyDraft(records[i])
		}
	}
	return nil
}

func updateStatus(records []model.Draft, key string, from, to model.Status, revision int64, now time.Time) error {
	for i := range records {
		r := &records[i]
		if r.Key != key {
			continue
		}
		if r.Status != from {
			return fmt.Errorf("%w: %s is %s, expected %s", ErrStatusConflict, key, r.Status, from)
		}
		if r.Revision != revision {
			return fmt.Errorf("%w: %s changed since revision %d", ErrStatusConflict, key, revision)
		}
		r.Status = to
		r.UpdatedAt = now
		return nil
	}
	return ErrNotFound
}

func auditFor(entries []model.AuditEntry, key string) []model.AuditEntry {
	out := []model.AuditEntry{}
	for _, e := range entries {
		if e.DraftKey == key {
			out = append(out, e)
		}
	}
	return out
}

func copyDraft(d model.Draft) *model.Draft {
	d.Data = d.Data.Clone()
	return &d
}
