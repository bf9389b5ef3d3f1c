package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("2024/doc.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "2024/doc.pdf", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "%PDF-1.4", string(data))

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "2024/doc.pdf", files[0].Name)
	require.Equal(t, int64(8), files[0].Size)

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	require.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../escape.pdf", []byte("x"))
	require.ErrorIs(t, err, ErrOutsideBase)
	_, err = store.Open("/etc/passwd")
	require.ErrorIs(t, err, ErrOutsideBase)
	require.Empty(t, store.Path("a/../../b"))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.pdf", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("new.pdf", []byte("new"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.pdf"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"old.pdf"}, deleted)

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "new.pdf", files[0].Name)
}
