package theme

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/storage"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type failingStore struct{ storage.MemoryStore }

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (f *failingStore) Put(context.Context, string, []byte) error {
	return errors.New("store down")
}

func TestLoad_DefaultsToLight(t *testing.T) {
	c := Load(context.Background(), storage.NewMemoryStore(), testLogger())
	assert.Equal(t, models.ThemeLight, c.Mode())
	assert.False(t, c.Dark())
}

func TestLoad_ReadsStoredMode(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, StoreKey, []byte("dark")))

	c := Load(ctx, store, testLogger())
	assert.True(t, c.Dark())
}

func TestLoad_InvalidStoredMode(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, StoreKey, []byte("sepia")))

	assert.Equal(t, models.ThemeLight, Load(ctx, store, testLogger()).Mode())
}

func TestLoad_StoreError(t *testing.T) {
	c := Load(context.Background(), &failingStore{}, testLogger())
	assert.Equal(t, models.ThemeLight, c.Mode())
}

func TestToggle_PersistsAndFlips(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := Load(ctx, store, testLogger())

	mode, err := c.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, mode)
	assert.True(t, c.Dark())

	raw, found, err := store.Get(ctx, StoreKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "dark", string(raw))

	mode, err = c.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, mode)

	assert.Equal(t, models.ThemeLight, Load(ctx, store, testLogger()).Mode(), "a fresh load sees the last toggle")
}

func TestToggle_StoreFailureStillFlips(t *testing.T) {
	c := Load(context.Background(), &failingStore{}, testLogger())

	mode, err := c.Toggle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.ThemeDark, mode)
	assert.True(t, c.Dark())
}

func TestToggle_WithoutStore(t *testing.T) {
	c := Load(context.Background(), nil, testLogger())
	mode, err := c.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, mode)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	c := Load(ctx, storage.NewMemoryStore(), testLogger())

	var got []models.ThemeMode
	cancel := c.Subscribe(func(m models.ThemeMode) {
		got = append(got, m)
		assert.Equal(t, m, c.Mode(), "subscribers run outside the lock")
	})

	_, _ = c.Toggle(ctx)
	_, _ = c.Toggle(ctx)
	cancel()
	_, _ = c.Toggle(ctx)

	assert.Equal(t, []models.ThemeMode{models.ThemeDark, models.ThemeLight}, got)
}

func TestToggle_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := Load(ctx, store, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Toggle(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, models.ThemeLight, c.Mode(), "an even number of toggles returns to light")
	raw, found, err := store.Get(ctx, StoreKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, string(c.Mode()), string(raw))
}

// slowStore delays its first Put so a second toggle can start while it is in flight.
type slowStore struct {
	*storage.MemoryStore
	puts atomic.Int32
}

func (s *slowStore) Put(ctx context.Context, key string, value []byte) error {
	if s.puts.Add(1) == 1 {
		time.Sleep(50 * time.Millisecond)
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func TestToggle_OverlappingPersistsLastMode(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{MemoryStore: storage.NewMemoryStore()}
	c := Load(ctx, store, testLogger())

	var mu sync.Mutex
	var notified []models.ThemeMode
	c.Subscribe(func(m models.ThemeMode) {
		mu.Lock()
		notified = append(notified, m)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.Toggle(ctx)
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		_, _ = c.Toggle(ctx)
	}()
	wg.Wait()

	raw, found, err := store.Get(ctx, StoreKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.ThemeLight, c.Mode())
	assert.Equal(t, string(c.Mode()), string(raw), "stored mode matches in-memory mode")
	assert.Equal(t, []models.ThemeMode{models.ThemeDark, models.ThemeLight}, notified)
}
