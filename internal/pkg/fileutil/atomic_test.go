package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicOverwrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "report.json")

	require.NoError(t, WriteFileAtomic(target, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(target, []byte("second"), 0o644))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteReaderAtomicFailureKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "logo.png")
	require.NoError(t, WriteFileAtomic(target, []byte("old"), 0o644))

	_, err := WriteReaderAtomic(target, iotest.ErrReader(errors.New("client went away")), 0o644)
	require.Error(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "old", string(data))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteReaderAtomicReportsSize(t *testing.T) {
	target := filepath.Join(t.TempDir(), "logo.png")
	n, err := WriteReaderAtomic(target, strings.NewReader("\x89PNG"), 0o644)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestIsTempFile(t *testing.T) {
	require.True(t, IsTempFile(filepath.Join("data", TempFilePrefix+"123")))
	require.False(t, IsTempFile(filepath.Join("data", "report.json")))
}
