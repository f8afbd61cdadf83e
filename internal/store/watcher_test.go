package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReportsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	require.NoError(t, err)

	w, err := fs.NewWatcher()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Another process writing the cart file.
	other, err := NewFileStorage(dir)
	require.NoError(t, err)
	require.NoError(t, other.Write(CartKey, []byte(`[{"product_id":3,"quantity":1}]`)))

	// Files that are not ours must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case key := <-w.Changes():
		require.Equal(t, CartKey, key)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	w, err := fs.NewWatcher()
	require.NoError(t, err)
	w.Stop()
}
