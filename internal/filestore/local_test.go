package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fedro86/almost-a-cms/internal/config"
	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

func newLocal(t *testing.T) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := New(config.StoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	return store, dir
}

func TestLocalStoreSaveLoad(t *testing.T) {
	store, dir := newLocal(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "report", []byte(`{"title": "Q1"}`)))
	data, err := store.Load(ctx, "report")
	require.NoError(t, err)
	require.Equal(t, `{"title": "Q1"}`, string(data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	require.Equal(t, data, onDisk)

	require.NoError(t, store.Save(ctx, "report", []byte(`[]`)))
	data, err = store.Load(ctx, "report")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(data))
}

func TestLocalStoreLoadMissing(t *testing.T) {
	store, _ := newLocal(t)
	_, err := store.Load(context.Background(), "report")
	require.Error(t, err)
	require.True(t, appErr.IsNotFound(err))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, dir := newLocal(t)
	ctx := context.Background()
	err := store.Save(ctx, "../escape", []byte(`{}`))
	require.True(t, appErr.IsInvalidName(err))
	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	require.True(t, os.IsNotExist(statErr))

	_, err = store.Load(ctx, "a/b")
	require.True(t, appErr.IsInvalidName(err))
}

func TestLocalStoreList(t *testing.T) {
	store, dir := newLocal(t)
	ctx := context.Background()

	names, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, names)

	require.NoError(t, store.Save(ctx, "hero", []byte(`{}`)))
	require.NoError(t, store.Save(ctx, "faq", []byte(`[]`)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad name.json"), []byte("{}"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	names, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"faq", "hero"}, names)
}

func TestLocalStoreMissingDirListsEmpty(t *testing.T) {
	store := NewLocal(filepath.Join(t.TempDir(), "absent"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.StoreConfig{Type: "ftp", Data: map[string]interface{}{}})
	require.Error(t, err)

	_, err = New(config.StoreConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
}

func TestLocalDir(t *testing.T) {
	store, dir := newLocal(t)
	got, ok := LocalDir(store)
	require.True(t, ok)
	require.Equal(t, dir, got)

	got, ok = LocalDir(WrapLRUCache(store, 8, time.Minute))
	require.True(t, ok)
	require.Equal(t, dir, got)
}
