// Package theme holds the site-wide light/dark mode and persists it across restarts.
package theme

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/storage"
)

// StoreKey is the preference key the mode is persisted under.
const StoreKey = "theme"

// Context is the single owner of the current theme mode. Toggle is the only mutation;
// every subscriber is told about each change.
type Context struct {
	toggleMu sync.Mutex // serializes Toggle: flip, persist, notify

	mu     sync.RWMutex
	mode   models.ThemeMode
	store  storage.PreferenceStore
	log    *logrus.Entry
	nextID int
	subs   map[int]func(models.ThemeMode)
}

// Load reads the persisted mode from store. A missing or unreadable value starts in
// light mode; a read error is logged, not returned.
func Load(ctx context.Context, store storage.PreferenceStore, log *logrus.Entry) *Context {
	c := &Context{
		mode:  models.ThemeLight,
		store: store,
		log:   log,
		subs:  make(map[int]func(models.ThemeMode)),
	}
	if store == nil {
		return c
	}

	raw, found, err := store.Get(ctx, StoreKey)
	switch {
	case err != nil:
		log.Warnf("Failed to read stored theme, starting in light mode: %v", err)
	case found:
		mode := models.ThemeMode(raw)
		if mode.IsValid() {
			c.mode = mode
		} else {
			log.Warnf("Ignoring invalid stored theme %q", string(raw))
		}
	}
	log.Debugf("Theme mode: %s", c.mode)
	return c
}

// Mode returns the current mode.
func (c *Context) Mode() models.ThemeMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Dark reports whether dark mode is on.
func (c *Context) Dark() bool {
	return c.Mode().IsDark()
}

// Toggle flips the mode, persists it, and notifies subscribers. When persisting fails the
// in-memory mode still flips and the error is returned so the caller can log it.
// Concurrent toggles run one after another, so the stored value always ends equal to Mode
// and subscribers see the modes in the order they were persisted. Subscribers must not
// call Toggle.
func (c *Context) Toggle(ctx context.Context) (models.ThemeMode, error) {
	c.toggleMu.Lock()
	defer c.toggleMu.Unlock()

	c.mu.Lock()
	c.mode = c.mode.Toggled()
	mode := c.mode
	subs := make([]func(models.ThemeMode), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	var err error
	if c.store != nil {
		err = c.store.Put(ctx, StoreKey, []byte(mode))
	}

	for _, fn := range subs {
		fn(mode)
	}
	return mode, err
}

// Subscribe registers fn to be called after every toggle. The returned func removes it.
func (c *Context) Subscribe(fn func(models.ThemeMode)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
