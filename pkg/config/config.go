package config

import (
	"path/filepath"
	"time"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	SiteTitle           string           `yaml:"site_title"`
	BaseURL             string           `yaml:"base_url,omitempty"` // Absolute site root used in sitemap.xml
	Home                string           `yaml:"home,omitempty"` // "blog" or "portfolio": what "/" renders
	ContentDir          string           `yaml:"content_dir"`
	Manifest            string           `yaml:"manifest,omitempty"` // Relative to content_dir unless absolute
	DefaultCategory     string           `yaml:"default_category,omitempty"`
	PreferredCategories []string         `yaml:"preferred_categories,omitempty"`
	ListenAddr          string           `yaml:"listen_addr,omitempty"`
	OutputDir           string           `yaml:"output_dir,omitempty"`
	StateDir            string           `yaml:"state_dir,omitempty"`
	PreferenceStore     string           `yaml:"preference_store,omitempty"` // badger, redis or memory
	RedisURL            string           `yaml:"redis_url,omitempty"`
	UniqueAnchors       bool             `yaml:"unique_anchors,omitempty"`
	RobotsTxt           string           `yaml:"robots_txt,omitempty"` // Replaces the default allow-all robots.txt
	EnableLiveSync      *bool            `yaml:"enable_live_sync,omitempty"`
	RootMargin          string           `yaml:"root_margin,omitempty"`
	RenderWorkers       int              `yaml:"render_workers,omitempty"`
	WatchContent        *bool            `yaml:"watch_content,omitempty"`
	WatchDebounce       time.Duration    `yaml:"watch_debounce,omitempty"`
	StoreGCInterval     time.Duration    `yaml:"store_gc_interval,omitempty"`
	TokenizerEncoding   string           `yaml:"tokenizer_encoding,omitempty"`
	Chunking            ChunkingConfig   `yaml:"chunking,omitempty"`
	HTTPServerSettings  HTTPServerConfig `yaml:"http,omitempty"`
	Profile             ProfileConfig    `yaml:"profile,omitempty"`
}

// ChunkingConfig controls how post bodies are split into sections for the MCP tools
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size,omitempty"` // In tokens
	ChunkOverlap int `yaml:"chunk_overlap,omitempty"`
}

// HTTPServerConfig holds timeouts for the site server
type HTTPServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	IdleTimeout     time.Duration `yaml:"idle_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// ProfileConfig is the static content of the portfolio/about view
type ProfileConfig struct {
	Name     string           `yaml:"name"`
	Headline string           `yaml:"headline,omitempty"`
	Email    string           `yaml:"email,omitempty"`
	Sections []ProfileSection `yaml:"sections,omitempty"`
	Links    []ProfileLink    `yaml:"links,omitempty"`
}

// ProfileSection is one block of the profile page (about, education, experience, skills)
type ProfileSection struct {
	ID    string   `yaml:"id"`
	Title string   `yaml:"title"`
	Body  string   `yaml:"body,omitempty"` // Markdown
	Items []string `yaml:"items,omitempty"`
}

// ProfileLink is an outbound link shown on the profile page
type ProfileLink struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Home modes
const (
	HomeBlog      = "blog"
	HomePortfolio = "portfolio"
)

// Preference store backends
const (
	StoreBadger = "badger"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// DefaultPreferredCategories is the pinned category order used when the config names none
var DefaultPreferredCategories = []string{
	"Literature Review",
	"Machine Learning",
	"Reinforcement Learning",
	"NLP",
}

// DefaultRootMargin shrinks the viewport to its vertical midline
const DefaultRootMargin = "-50% 0px -50% 0px"

// GetEffectiveLiveSync determines whether the scroll-sync bridge is served
func GetEffectiveLiveSync(appCfg AppConfig) bool {
	if appCfg.EnableLiveSync != nil {
		return *appCfg.EnableLiveSync
	}
	return true
}

// GetEffectiveWatchContent determines whether serve mode reloads content on change
func GetEffectiveWatchContent(appCfg AppConfig) bool {
	if appCfg.WatchContent != nil {
		return *appCfg.WatchContent
	}
	return true
}

// GetEffectiveManifestPath resolves the manifest location against content_dir
func GetEffectiveManifestPath(appCfg AppConfig) string {
	manifest := appCfg.Manifest
	if manifest == "" {
		manifest = "manifest.yaml"
	}
	if filepath.IsAbs(manifest) || appCfg.ContentDir == "" {
		return manifest
	}
	return filepath.Join(appCfg.ContentDir, manifest)
}
