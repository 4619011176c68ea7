package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/model"
)

// FileStore keeps every draft in one JSON document that is rewritten on each mutation
type FileStore struct {
	mu     sync.Mutex
	path   string
	sealer *Sealer
}

// fileDocument is the on-disk layout: {"drafts": [...], "audit": [...]}
type fileDocument struct {
	Drafts []json.RawMessage `json:"drafts"`
	Audit  []json.RawMessage `json:"audit"`
}

type fileRecord struct {
	Key       string          `json:"key"`
	ID        string          `json:"id"`
	Status    model.Status    `json:"status"`
	Data      json.RawMessage `json:"data"`
	Revision  int64           `json:"revision,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// fileState is a parsed document. Records that failed to parse are kept
// verbatim so a rewrite never loses them.
type fileState struct {
	drafts       []model.Draft
	audit        []model.AuditEntry
	badDrafts    []json.RawMessage
	badAuditRows []json.RawMessage
}

// NewFileStore creates a store backed by path. sealer may be nil.
func NewFileStore(path string, sealer *Sealer) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create draft directory: %w", err)
	}
	return &FileStore{path: path, sealer: sealer}, nil
}

func (f *FileStore) load() (*fileState, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read drafts: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &fileState{}, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}

	st := &fileState{}
	for _, r := range doc.Drafts {
		d, err := f.decodeRecord(r)
		if err != nil {
			logger.Warn("Skipping malformed draft record",
				logger.F("path", f.path),
				logger.F("error", err.Error()))
			st.badDrafts = append(st.badDrafts, r)
			continue
		}
		st.drafts = append(st.drafts, d)
	}
	for _, r := range doc.Audit {
		var e model.AuditEntry
		if err := json.Unmarshal(r, &e); err != nil || e.DraftKey == "" {
			st.badAuditRows = append(st.badAuditRows, r)
			continue
		}
		st.audit = append(st.audit, e)
	}
	return st, nil
}

func (f *FileStore) decodeRecord(raw json.RawMessage) (model.Draft, error) {
	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Draft{}, err
	}
	if rec.Key == "" || rec.ID == "" || !rec.Status.Valid() {
		return model.Draft{}, errors.New("record is missing key, id or status")
	}

	stored := string(rec.Data)
	if f.sealer != nil {
		if err := json.Unmarshal(rec.Data, &stored); err != nil {
			return model.Draft{}, fmt.Errorf("sealed data: %w", err)
		}
	}
	data, err := decodeData(f.sealer, stored)
	if err != nil {
		return model.Draft{}, err
	}

	return model.Draft{
		Key:       rec.Key,
		ID:        rec.ID,
		Status:    rec.Status,
		Data:      data,
		Revision:  rec.Revision,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (f *FileStore) encodeRecord(d model.Draft) (json.RawMessage, error) {
	stored, err := encodeData(f.sealer, d.Data)
	if err != nil {
		return nil, err
	}
	data := json.RawMessage(stored)
	if f.sealer != nil {
		if data, err = json.Marshal(stored); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fileRecord{
		Key:       d.Key,
		ID:        d.ID,
		Status:    d.Status,
		Data:      data,
		Revision:  d.Revision,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	})
}

// save writes the document to a temp file and renames it into place
func (f *FileStore) save(st *fileState) error {
	doc := fileDocument{
		Drafts: make([]json.RawMessage, 0, len(st.drafts)+len(st.badDrafts)),
		Audit:  make([]json.RawMessage, 0, len(st.audit)+len(st.badAuditRows)),
	}
	for _, d := range st.drafts {
		r, err := f.encodeRecord(d)
		if err != nil {
			return fmt.Errorf("failed to encode draft %s: %w", d.Key, err)
		}
		doc.Drafts = append(doc.Drafts, r)
	}
	doc.Drafts = append(doc.Drafts, st.badDrafts...)
	for _, e := range st.audit {
		r, err := json.Marshal(e)
		if err != nil {
			return err
		}
		doc.Audit = append(doc.Audit, r)
	}
	doc.Audit = append(doc.Audit, st.badAuditRows...)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".drafts-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write drafts: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace drafts: %w", err)
	}
	return nil
}

// mutate loads, applies fn and saves while holding the lock
func (f *FileStore) mutate(fn func(st *fileState) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.load()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return f.save(st)
}

func (f *FileStore) read() (*fileState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) Upsert(ctx context.Context, ownerID string, data model.ProjectFormData, revision int64) error {
	return f.mutate(func(st *fileState) error {
		drafts, err := upsertRecords(st.drafts, ownerID, data, revision, time.Now().UTC())
		if err != nil {
			return err
		}
		st.drafts = drafts
		return nil
	})
}

// Get treats an unreadable document as having no draft
func (f *FileStore) Get(ctx context.Context, ownerID string) (*model.Draft, error) {
	st, err := f.read()
	if errors.Is(err, ErrCorrupt) {
		logger.Warn("Draft document is corrupt, treating as empty",
			logger.F("path", f.path),
			logger.F("error", err.Error()))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return findActive(st.drafts, ownerID), nil
}

func (f *FileStore) Find(ctx context.Context, key string) (*model.Draft, error) {
	st, err := f.read()
	if err != nil {
		return nil, err
	}
	if d := findByKey(st.drafts, key); d != nil {
		return d, nil
	}
	return nil, ErrNotFound
}

func (f *FileStore) UpdateStatus(ctx context.Context, key string, from, to model.Status, revision int64) error {
	return f.mutate(func(st *fileState) error {
		return updateStatus(st.drafts, key, from, to, revision, time.Now().UTC())
	})
}

func (f *FileStore) AppendAudit(ctx context.Context, entry model.AuditEntry) error {
	return f.mutate(func(st *fileState) error {
		st.audit = append(st.audit, entry)
		return nil
	})
}

func (f *FileStore) ListAudit(ctx context.Context, key string) ([]model.AuditEntry, error) {
	st, err := f.read()
	if err != nil {
		return nil, err
	}
	return auditFor(st.audit, key), nil
}

func (f *FileStore) Close() error { return nil }
