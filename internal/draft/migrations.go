package draft

import (
	"context"
	"fmt"
)

// migrate runs all database migrations
func (s *SQLStore) migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateDrafts,
		migrationDraftsOwnerIndex,
		migrationDraftsActiveUnique,
		migrationCreateAudit,
		migrationAuditKeyIndex,
	}

	for i, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// Timestamps are RFC3339 text so both drivers round-trip them the same way.
const migrationCreateDrafts = `
CREATE TABLE IF NOT EXISTS drafts (
    key TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    data TEXT NOT NULL,
    revision BIGINT NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

const migrationDraftsOwnerIndex = `
CREATE INDEX IF NOT EXISTS idx_drafts_owner ON drafts(owner_id, status)
`

// One editable draft per owner
const migrationDraftsActiveUnique = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_drafts_owner_active ON drafts(owner_id) WHERE status = 'draft'
`

const migrationCreateAudit = `
CREATE TABLE IF NOT EXISTS draft_audit (
    id TEXT PRIMARY KEY,
    draft_key TEXT NOT NULL REFERENCES drafts(key),
    owner_id TEXT NOT NULL,
    action TEXT NOT NULL,
    actor TEXT NOT NULL,
    at TEXT NOT NULL
)
`

const migrationAuditKeyIndex = `
CREATE INDEX IF NOT EXISTS idx_draft_audit_key ON draft_audit(draft_key)
`
