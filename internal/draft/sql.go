package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/model"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so text columns sort chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLStore persists drafts through database/sql on SQLite or PostgreSQL
type SQLStore struct {
	db     *sql.DB
	driver string
	sealer *Sealer
}

// OpenSQL opens the database, applies migrations and returns the store.
// driver is "sqlite" or "postgres"; sealer may be nil.
func OpenSQL(ctx context.Context, driver, dsn string, sealer *Sealer) (*SQLStore, error) {
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	if driver == "sqlite" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway; one connection also keeps :memory: databases shared
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s := &SQLStore{db: db, driver: driver, sealer: sealer}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// q rewrites ? placeholders to $n for postgres
func (s *SQLStore) q(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func (s *SQLStore) Upsert(ctx context.Context, ownerID string, data model.ProjectFormData, revision int64) error {
	if ownerID == "" {
		return ErrNoOwner
	}
	stored, err := encodeData(s.sealer, data)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	raced, err := s.upsertOnce(ctx, ownerID, stored, revision)
	if raced {
		// a concurrent insert won the unique index; the retry updates its row
		_, err = s.upsertOnce(ctx, ownerID, stored, revision)
	}
	return err
}

// upsertOnce reports raced when the insert branch failed
func (s *SQLStore) upsertOnce(ctx context.Context, ownerID, stored string, revision int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := `SELECT key, revision FROM drafts WHERE owner_id = ? AND status = ?`
	if s.driver == "postgres" {
		query += ` FOR UPDATE`
	}

	now := formatTime(time.Now())
	var key string
	var current int64
	err = tx.QueryRowContext(ctx, s.q(query), ownerID, string(model.StatusDraft)).Scan(&key, &current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO drafts (key, owner_id, status, data, revision, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			newKey(), ownerID, string(model.StatusDraft), stored, revision, now, now)
		if err != nil {
			return true, fmt.Errorf("failed to insert draft: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("failed to query draft: %w", err)
	default:
		if err := checkRevision(current, revision); err != nil {
			return false, err
		}
		next := nextRevision(current, revision)
		_, err = tx.ExecContext(ctx, s.q(`UPDATE drafts SET data = ?, revision = ?, updated_at = ? WHERE key = ?`),
			stored, next, now, key)
		if err != nil {
			return false, fmt.Errorf("failed to update draft: %w", err)
		}
	}

	return false, tx.Commit()
}

const draftColumns = `key, owner_id, status, data, revision, created_at, updated_at`

func (s *SQLStore) scanDraft(row *sql.Row) (*model.Draft, error) {
	var (
		d                  model.Draft
		status, stored     string
		created, updatedAt string
	)
	if err := row.Scan(&d.Key, &d.ID, &status, &stored, &d.Revision, &created, &updatedAt); err != nil {
		return nil, err
	}
	d.Status = model.Status(status)

	data, err := decodeData(s.sealer, stored)
	if err != nil {
		return nil, fmt.Errorf("%w: draft %s: %v", ErrCorrupt, d.Key, err)
	}
	d.Data = data

	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("%w: draft %s: %v", ErrCorrupt, d.Key, err)
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("%w: draft %s: %v", ErrCorrupt, d.Key, err)
	}
	return &d, nil
}

// Get treats an undecodable record as absent
func (s *SQLStore) Get(ctx context.Context, ownerID string) (*model.Draft, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+draftColumns+` FROM drafts WHERE owner_id = ? AND status = ?`),
		ownerID, string(model.StatusDraft))

	d, err := s.scanDraft(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case errors.Is(err, ErrCorrupt):
		logger.Warn("Skipping malformed draft record",
			logger.F("owner", ownerID),
			logger.F("error", err.Error()))
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

func (s *SQLStore) Find(ctx context.Context, key string) (*model.Draft, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+draftColumns+` FROM drafts WHERE key = ?`), key)
	d, err := s.scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *SQLStore) UpdateStatus(ctx context.Context, key string, from, to model.Status, revision int64) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE drafts SET status = ?, updated_at = ? WHERE key = ? AND status = ? AND revision = ?`),
		string(to), formatTime(time.Now()), key, string(from), revision)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current string
	var currentRev int64
	err = s.db.QueryRowContext(ctx, s.q(`SELECT status, revision FROM drafts WHERE key = ?`), key).Scan(&current, &currentRev)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if current != string(from) {
		return fmt.Errorf("%w: %s is %s, expected %s", ErrStatusConflict, key, current, from)
	}
	return fmt.Errorf("%w: %s changed since revision %d", ErrStatusConflict, key, revision)
}

func (s *SQLStore) AppendAudit(ctx context.Context, e model.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO draft_audit (id, draft_key, owner_id, action, actor, at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		e.ID, e.DraftKey, e.OwnerID, e.Action, e.Actor, formatTime(e.At))
	if err != nil {
		return fmt.Errorf("failed to append audit: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAudit(ctx context.Context, key string) ([]model.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, draft_key, owner_id, action, actor, at
		FROM draft_audit WHERE draft_key = ? ORDER BY at, id`), key)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit: %w", err)
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		var at string
		if err := rows.Scan(&e.ID, &e.DraftKey, &e.OwnerID, &e.Action, &e.Actor, &at); err != nil {
			return nil, err
		}
		if e.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("%w: audit %s: %v", ErrCorrupt, e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
