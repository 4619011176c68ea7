package draft

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/projectdraft/internal/model"
)

// MemoryStore keeps drafts in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	drafts []model.Draft
	audit  []model.AuditEntry
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Upsert(ctx context.Context, ownerID string, data model.ProjectFormData, revision int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	drafts, err := upsertRecords(m.drafts, ownerID, data, revision, time.Now().UTC())
	if err != nil {
		return err
	}
	m.drafts = drafts
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, ownerID string) (*model.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return findActive(m.drafts, ownerID), nil
}

func (m *MemoryStore) Find(ctx context.Context, key string) (*model.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if d := findByKey(m.drafts, key); d != nil {
		return d, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, key string, from, to model.Status, revision int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return updateStatus(m.drafts, key, from, to, revision, time.Now().UTC())
}

func (m *MemoryStore) AppendAudit(ctx context.Context, entry model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *MemoryStore) ListAudit(ctx context.Context, key string) ([]model.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return auditFor(m.audit, key), nil
}

func (m *MemoryStore) Close() error { return nil }
