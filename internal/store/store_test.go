package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"medstore/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-redis keeps a pool reaper goroutine until Close returns.
		goleak.IgnoreTopFunction("github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper"),
		// database/sql connection opener
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

// setupTestRedis creates a miniredis instance for storage testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	db, err := NewSQLite(filepath.Join(t.TempDir(), "medstore.db"))
	require.NoError(t, err)

	_, client := setupTestRedis(t)

	return map[string]Storage{
		"memory": NewMemory(),
		"file":   fs,
		"sqlite": db,
		"redis":  NewRedisClient(client, "test:"),
	}
}

func TestStorageContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			_, err := s.Read(CartKey)
			assert.True(t, errors.Is(err, ErrNotFound), "missing key should be ErrNotFound, got %v", err)

			require.NoError(t, s.Write(CartKey, []byte(`[{"product_id":1,"quantity":2}]`)))
			got, err := s.Read(CartKey)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"product_id":1,"quantity":2}]`, string(got))

			require.NoError(t, s.Write(CartKey, []byte(`[]`)))
			got, err = s.Read(CartKey)
			require.NoError(t, err)
			assert.Equal(t, "[]", string(got))

			require.NoError(t, s.Delete(CartKey))
			require.NoError(t, s.Delete(CartKey), "deleting a missing key is not an error")
			_, err = s.Read(CartKey)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestRedisKeyPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	r := NewRedisClient(client, "shop1:")
	defer r.Close()

	require.NoError(t, r.Write(LastOrderKey, []byte(`null`)))
	assert.True(t, mr.Exists("shop1:"+LastOrderKey))
}

func TestNewRedisPing(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	r, err := NewRedis("redis://"+mr.Addr()+"/0", "p:")
	require.NoError(t, err)
	r.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedis("redis://"+addr+"/0", "p:")
	assert.Error(t, err)

	_, err = NewRedis("not a url", "p:")
	assert.Error(t, err)
}

func TestDecodeOr(t *testing.T) {
	s := NewMemory()

	assert.Equal(t, []int{9}, DecodeOr(s, CartKey, []int{9}), "missing key")

	require.NoError(t, s.Write(CartKey, []byte("not json")))
	assert.Equal(t, []int{9}, DecodeOr(s, CartKey, []int{9}), "malformed JSON")

	require.NoError(t, s.Write(CartKey, []byte(`{"a":1}`)))
	assert.Equal(t, []int{9}, DecodeOr(s, CartKey, []int{9}), "wrong shape")

	require.NoError(t, Encode(s, CartKey, []int{1, 2}))
	assert.Equal(t, []int{1, 2}, DecodeOr(s, CartKey, []int{9}))
}

func TestFileStorageRejectsBadKeys(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	for _, k := range []string{"", "../x", "a/b", ".hidden"} {
		assert.Error(t, fs.Write(k, []byte("1")), k)
	}
}

func TestFileStorageLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Write(CartKey, []byte("[]")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, CartKey+".json", entries[0].Name())
}

func TestOpen(t *testing.T) {
	ws := t.TempDir()

	s, err := Open(config.StorageConfig{Backend: config.BackendMemory}, ws)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.StorageConfig{Backend: config.BackendFile, Dir: "state"}, ws)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, "state"), s.(*FileStorage).Dir())

	s, err = Open(config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: "db/m.db"}, ws)
	require.NoError(t, err)
	s.Close()

	_, err = Open(config.StorageConfig{Backend: "etcd"}, ws)
	assert.Error(t, err)
}
