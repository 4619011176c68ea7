package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("verbose"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestNewWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, WARN)

	l.Info("quiet message")
	l.Warn("draft save failed", F("owner", "u-42"), F("attempt", 3))

	out := buf.String()
	assert.NotContains(t, out, "quiet message")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "draft save failed")
	assert.Contains(t, out, "u-42")
	assert.Contains(t, out, "logger_test.go")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, DEBUG).WithFields(F("component", "autosave"))

	l.Debug("scheduled")
	assert.Contains(t, buf.String(), "autosave")
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("ignored")
		assert.Nil(t, l.WithFields(F("a", 1)))
		assert.NoError(t, l.Close())
	})
}

func TestFileOutputAndRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "app.log")

	l, err := New(Config{Level: INFO, FilePath: path, MaxSize: 1024, MaxAge: 7, MaxBackups: 2})
	require.NoError(t, err)

	l.Info("before rotation", F("owner", "u-1"))
	require.NoError(t, l.file.Rotate())
	l.Info("after rotation")
	require.NoError(t, l.Close())

	backups, err := filepath.Glob(filepath.Join(dir, "logs", "app-*.log"))
	require.NoError(t, err)
	require.Len(t, backups, 1, "expected a rotated backup")

	old, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(old), "before rotation")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotation")
	assert.NotContains(t, string(data), "before rotation")
}

func TestMegabytes(t *testing.T) {
	assert.Equal(t, 0, megabytes(0))
	assert.Equal(t, 1, megabytes(256))
	assert.Equal(t, 1, megabytes(1<<20))
	assert.Equal(t, 10, megabytes(10*1024*1024))
	assert.Equal(t, 2, megabytes(1<<20+1))
}
