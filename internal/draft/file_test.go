package draft

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/existflow/projectdraft/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	salt, err := GenerateSalt()
	require.NoError(t, err)
	s, err := NewSealer("correct horse battery staple", salt)
	require.NoError(t, err)
	return s
}

func TestFileStore_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drafts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"drafts": [`), 0644))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)

	d, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, d)

	err = s.Upsert(ctx, "u-1", testutil.ValidForm(), 0)
	assert.ErrorIs(t, err, ErrCorrupt)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"drafts": [`, string(raw), "a corrupt document must not be overwritten")
}

func TestFileStore_MalformedRecordIsSkippedAndPreserved(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drafts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"drafts": [
			{"key": "k-bad", "id": "u-1", "status": "draft", "data": {"generalInfo": {"name": 12}}}
		],
		"audit": []
	}`), 0644))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)

	d, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, d, "a malformed record reads as no draft")

	require.NoError(t, s.Upsert(ctx, "u-2", testutil.ValidForm(), 0))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "k-bad")

	got, err := s.Get(ctx, "u-2")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestFileStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), "u-1", testutil.ValidForm(), 0))
}

func TestFileStore_SealedAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drafts.json")
	sealer := testSealer(t)

	s, err := NewFileStore(path, sealer)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "u-1", testutil.ValidForm(), 0))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Cart Revamp")

	// a store opened with another key cannot read the record
	other, err := NewFileStore(path, testSealer(t))
	require.NoError(t, err)
	d, err := other.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, d)

	again, err := NewFileStore(path, sealer)
	require.NoError(t, err)
	d, err = again.Get(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Cart Revamp", d.Data.GeneralInfo.Name)
}

func TestSealer(t *testing.T) {
	s := testSealer(t)
	sealed, err := s.Seal([]byte("hello"))
	require.NoError(t, err)

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))

	_, err = testSealer(t).Open(sealed)
	assert.Error(t, err)

	_, err = NewSealer("", "")
	assert.Error(t, err)
	_, err = NewSealer("key", "c2hvcnQ=")
	assert.Error(t, err, "short salt")
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := &SQLStore{driver: "postgres"}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.q("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &SQLStore{driver: "sqlite"}
	assert.Equal(t, "x = ?", lite.q("x = ?"))
}
