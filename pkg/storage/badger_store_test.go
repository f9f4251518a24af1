package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/utils"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// storeContract runs the behaviour every PreferenceStore must share.
func storeContract(t *testing.T, store PreferenceStore) {
	t.Helper()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, found, "missing key is not an error")

	require.NoError(t, store.Put(ctx, "theme", []byte("dark")))
	value, found, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", string(value))

	require.NoError(t, store.Put(ctx, "theme", []byte("light")))
	value, _, err = store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", string(value), "put overwrites")
}

func TestBadgerStore_Contract(t *testing.T) {
	storeContract(t, newTestStore(t))
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestRedisStore_Contract(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	storeContract(t, store)

	raw, err := mr.Get("pref:theme")
	require.NoError(t, err)
	assert.Equal(t, "light", raw, "keys are namespaced")
	assert.False(t, mr.Exists("theme"))
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store1, err := NewBadgerStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, store1.Put(ctx, "theme", []byte("dark")))
	require.NoError(t, store1.Close())

	store2, err := NewBadgerStore(dir, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store2.Close() })

	value, found, err := store2.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", string(value))
}

func TestBadgerStore_CanceledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "theme", []byte("dark")), context.Canceled)
	_, _, err := store.Get(ctx, "theme")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerStore_CloseTwice(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestBadgerStore_RunGCStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		store.RunGC(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunGC did not stop after context cancellation")
	}
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), "redis://"+addr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrStore))
}

func TestRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrStore))
}

func TestOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	t.Run("memory", func(t *testing.T) {
		store, err := Open(ctx, &config.AppConfig{PreferenceStore: config.StoreMemory}, testLogger())
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	})

	t.Run("badger", func(t *testing.T) {
		cfg := &config.AppConfig{PreferenceStore: config.StoreBadger, StateDir: t.TempDir(), StoreGCInterval: time.Hour}
		store, err := Open(ctx, cfg, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		assert.IsType(t, &BadgerStore{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.AppConfig{PreferenceStore: config.StoreRedis, RedisURL: "redis://" + mr.Addr()}
		store, err := Open(ctx, cfg, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		assert.IsType(t, &RedisStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, &config.AppConfig{PreferenceStore: "sqlite"}, testLogger())
		assert.ErrorIs(t, err, utils.ErrConfigValidation)
	})
}
