package draft

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/projectdraft/internal/model"
	"github.com/existflow/projectdraft/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "drafts.json"), nil)
			require.NoError(t, err)
			return s
		},
		"file-sealed": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "drafts.json"), testSealer(t))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQL(context.Background(), "sqlite", ":memory:", nil)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sqlite-sealed": func(t *testing.T) Store {
			s, err := OpenSQL(context.Background(), "sqlite", ":memory:", testSealer(t))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func TestStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		first := testutil.ValidForm()
		second := testutil.ValidForm()
		second.GeneralInfo.Name = "Cart Revamp v2"
		second.Step = 2

		require.NoError(t, s.Upsert(ctx, "u-1", first, 0))
		d1, err := s.Get(ctx, "u-1")
		require.NoError(t, err)
		require.NotNil(t, d1)

		require.NoError(t, s.Upsert(ctx, "u-1", second, 0))
		d2, err := s.Get(ctx, "u-1")
		require.NoError(t, err)
		require.NotNil(t, d2)

		assert.Equal(t, d1.Key, d2.Key, "second upsert must update the same record")
		assert.Equal(t, "Cart Revamp v2", d2.Data.GeneralInfo.Name)
		assert.Equal(t, model.StatusDraft, d2.Status)
		assert.Equal(t, "u-1", d2.ID)
	})
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		for owner, data := range map[string]model.ProjectFormData{
			"valid":   testutil.ValidForm(),
			"initial": model.InitialData(),
		} {
			require.NoError(t, s.Upsert(ctx, owner, data, 0))
			got, err := s.Get(ctx, owner)
			require.NoError(t, err)
			require.NotNil(t, got)
			if diff := cmp.Diff(data, got.Data, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("%s: round trip mismatch (-want +got):\n%s", owner, diff)
			}
		}
	})
}

func TestStore_GetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		d, err := s.Get(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Nil(t, d)

		_, err = s.Find(context.Background(), "no-such-key")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_RequiresOwner(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		err := s.Upsert(context.Background(), "", testutil.ValidForm(), 0)
		assert.ErrorIs(t, err, ErrNoOwner)
	})
}

func TestStore_RevisionGuard(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		newer := testutil.ValidForm()
		newer.GeneralInfo.Name = "newer"
		older := testutil.ValidForm()
		older.GeneralInfo.Name = "older"

		require.NoError(t, s.Upsert(ctx, "u-1", newer, 10))
		err := s.Upsert(ctx, "u-1", older, 5)
		assert.ErrorIs(t, err, ErrStaleRevision)
		err = s.Upsert(ctx, "u-1", older, 10)
		assert.ErrorIs(t, err, ErrStaleRevision)

		got, err := s.Get(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "newer", got.Data.GeneralInfo.Name)
		assert.Equal(t, int64(10), got.Revision)

		// unversioned writers keep last-write-wins and still move the revision
		require.NoError(t, s.Upsert(ctx, "u-1", older, 0))
		got, err = s.Get(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "older", got.Data.GeneralInfo.Name)
		assert.Equal(t, int64(11), got.Revision)

		assert.ErrorIs(t, s.Upsert(ctx, "u-1", newer, 11), ErrStaleRevision)
		require.NoError(t, s.Upsert(ctx, "u-1", newer, 12))
	})
}

func TestStore_SubmittedDraftIsNotEditable(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Upsert(ctx, "u-1", testutil.ValidForm(), 0))
		d, err := s.Get(ctx, "u-1")
		require.NoError(t, err)

		require.NoError(t, s.UpdateStatus(ctx, d.Key, model.StatusDraft, model.StatusSubmitted, d.Revision))

		got, err := s.Get(ctx, "u-1")
		require.NoError(t, err)
		assert.Nil(t, got, "submitted records are not returned as the owner's draft")

		next := model.InitialData()
		require.NoError(t, s.Upsert(ctx, "u-1", next, 0))
		fresh, err := s.Get(ctx, "u-1")
		require.NoError(t, err)
		require.NotNil(t, fresh)
		assert.NotEqual(t, d.Key, fresh.Key)

		submitted, err := s.Find(ctx, d.Key)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSubmitted, submitted.Status)
		assert.Equal(t, "Cart Revamp", submitted.Data.GeneralInfo.Name)
	})
}

func TestStore_UpdateStatusConflicts(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Upsert(ctx, "u-1", testutil.ValidForm(), 0))
		d, err := s.Get(ctx, "u-1")
		require.NoError(t, err)

		err = s.UpdateStatus(ctx, d.Key, model.StatusSubmitted, model.StatusReviewed, d.Revision)
		assert.ErrorIs(t, err, ErrStatusConflict)

		err = s.UpdateStatus(ctx, "missing", model.StatusDraft, model.StatusSubmitted, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_UpdateStatusRequiresSameRevision(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Upsert(ctx, "u-1", testutil.ValidForm(), 0))
		checked, err := s.Get(ctx, "u-1")
		require.NoError(t, err)

		// an autosave lands after the caller read the record
		require.NoError(t, s.Upsert(ctx, "u-1", model.InitialData(), 0))

		err = s.UpdateStatus(ctx, checked.Key, model.StatusDraft, model.StatusSubmitted, checked.Revision)
		assert.ErrorIs(t, err, ErrStatusConflict)

		current, err := s.Get(ctx, "u-1")
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, model.StatusDraft, current.Status)
		assert.Equal(t, checked.Revision+1, current.Revision)

		require.NoError(t, s.UpdateStatus(ctx, current.Key, model.StatusDraft, model.StatusSubmitted, current.Revision))
	})
}

func TestStore_Audit(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Upsert(ctx, "u-1", testutil.ValidForm(), 0))
		d, err := s.Get(ctx, "u-1")
		require.NoError(t, err)

		at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, s.AppendAudit(ctx, model.AuditEntry{ID: "a1", DraftKey: d.Key, OwnerID: "u-1", Action: model.ActionSubmitted, Actor: "u-1", At: at}))
		require.NoError(t, s.AppendAudit(ctx, model.AuditEntry{ID: "a2", DraftKey: d.Key, OwnerID: "u-1", Action: model.ActionReviewed, Actor: "r-1", At: at.Add(time.Hour)}))

		entries, err := s.ListAudit(ctx, d.Key)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "a1", entries[0].ID)
		assert.Equal(t, model.ActionReviewed, entries[1].Action)
		assert.True(t, entries[1].At.Equal(at.Add(time.Hour)))

		none, err := s.ListAudit(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_StoredCopyIsIsolated(t *testing.T) {
	ctx := context.Background()
	forEachStore(t, func(t *testing.T, s Store) {
		data := testutil.ValidForm()
		require.NoError(t, s.Upsert(ctx, "u-1", data, 0))
		data.Resources.ExtendedEmployees[0].Name = "mutated"

		got, err := s.Get(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "Asha", got.Data.Resources.ExtendedEmployees[0].Name)
	})
}

func TestStore_Errors(t *testing.T) {
	wrapped := checkRevision(5, 3)
	assert.True(t, errors.Is(wrapped, ErrStaleRevision))
	assert.NoError(t, checkRevision(5, 0))
	assert.NoError(t, checkRevision(5, 6))
}
