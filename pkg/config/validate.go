package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/folio-blog/folio/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// SiteTitle
	if strings.TrimSpace(c.SiteTitle) == "" {
		c.SiteTitle = "Blog"
	}

	// BaseURL
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return warnings, fmt.Errorf("%w: base_url must be an absolute http(s) URL, got %q",
				utils.ErrConfigValidation, c.BaseURL)
		}
		c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}

	// Home
	switch c.Home {
	case "":
		c.Home = HomeBlog
	case HomeBlog, HomePortfolio:
	default:
		return warnings, fmt.Errorf("%w: home must be %q or %q, got %q",
			utils.ErrConfigValidation, HomeBlog, HomePortfolio, c.Home)
	}

	// ContentDir
	if c.ContentDir == "" {
		warnings = append(warnings, "content_dir is empty, defaulting to './content'")
		c.ContentDir = "./content"
	}

	// DefaultCategory
	if strings.TrimSpace(c.DefaultCategory) == "" {
		c.DefaultCategory = "Uncategorized"
	}

	// PreferredCategories
	if c.PreferredCategories == nil {
		c.PreferredCategories = append([]string(nil), DefaultPreferredCategories...)
	}
	seen := make(map[string]bool, len(c.PreferredCategories))
	deduped := c.PreferredCategories[:0]
	for _, name := range c.PreferredCategories {
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("preferred_categories lists %q more than once, keeping the first", name))
			continue
		}
		seen[name] = true
		deduped = append(deduped, name)
	}
	c.PreferredCategories = deduped

	// ListenAddr
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}

	// OutputDir
	if c.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to './public'")
		c.OutputDir = "./public"
	}

	// StateDir
	if c.StateDir == "" {
		c.StateDir = "./.folio_state"
	}

	// PreferenceStore
	switch c.PreferenceStore {
	case "":
		c.PreferenceStore = StoreBadger
	case StoreBadger, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return warnings, fmt.Errorf("%w: preference_store is 'redis' but redis_url is empty", utils.ErrConfigValidation)
		}
	default:
		return warnings, fmt.Errorf("%w: unknown preference_store %q (supported: badger, redis, memory)",
			utils.ErrConfigValidation, c.PreferenceStore)
	}
	if c.RedisURL != "" && c.PreferenceStore != StoreRedis {
		warnings = append(warnings, fmt.Sprintf("redis_url is set but preference_store is '%s', ignoring it", c.PreferenceStore))
	}

	// RootMargin
	if strings.TrimSpace(c.RootMargin) == "" {
		c.RootMargin = DefaultRootMargin
	}

	// RenderWorkers
	if c.RenderWorkers <= 0 {
		c.RenderWorkers = 4
	}

	// WatchDebounce
	if c.WatchDebounce < 0 {
		warnings = append(warnings, "watch_debounce cannot be negative, defaulting to 500ms")
		c.WatchDebounce = 0
	}
	if c.WatchDebounce == 0 {
		c.WatchDebounce = 500 * time.Millisecond
	}

	// StoreGCInterval
	if c.StoreGCInterval <= 0 {
		c.StoreGCInterval = 10 * time.Minute
	}

	// TokenizerEncoding
	if c.TokenizerEncoding == "" {
		c.TokenizerEncoding = "cl100k_base"
	}

	c.validateChunking(&warnings)
	c.validateHTTPServerSettings()

	// Profile
	if c.Profile.Name == "" {
		c.Profile.Name = c.SiteTitle
	}
	for i, sec := range c.Profile.Sections {
		if sec.ID == "" {
			c.Profile.Sections[i].ID = utils.Slugify(sec.Title)
		}
	}

	return warnings, nil
}

// validateChunking applies defaults to the section chunker settings.
func (c *AppConfig) validateChunking(warnings *[]string) {
	ch := &c.Chunking
	if ch.MaxChunkSize <= 0 {
		ch.MaxChunkSize = 512
	}
	if ch.ChunkOverlap < 0 {
		*warnings = append(*warnings, "chunking.chunk_overlap cannot be negative, setting to 0")
		ch.ChunkOverlap = 0
	}
	if ch.ChunkOverlap >= ch.MaxChunkSize {
		*warnings = append(*warnings, fmt.Sprintf(
			"chunking.chunk_overlap (%d) >= max_chunk_size (%d), using 10%% of max_chunk_size",
			ch.ChunkOverlap, ch.MaxChunkSize))
		ch.ChunkOverlap = ch.MaxChunkSize / 10
	}
}

// validateHTTPServerSettings applies defaults to HTTP server settings.
func (c *AppConfig) validateHTTPServerSettings() {
	h := &c.HTTPServerSettings
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 15 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30 * time.Second
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 120 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}
