package content

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/category"
	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/utils"
)

// Library is one immutable load of the site's posts with its derived indexes.
// A content reload builds a new Library rather than mutating the current one.
type Library struct {
	Posts      []*models.Post
	Categories []string
	Counts     map[string]int
	LoadedAt   time.Time

	bySlug     map[string]*models.Post
	duplicates []string
}

// NewLibrary indexes posts (already in display order) and derives the category list.
func NewLibrary(posts []*models.Post, preferredOrder []string) *Library {
	lib := &Library{
		Posts:      posts,
		Categories: category.DeriveCategories(posts, preferredOrder),
		Counts:     category.Count(posts),
		LoadedAt:   time.Now(),
		bySlug:     make(map[string]*models.Post, len(posts)),
	}
	for _, p := range posts {
		if _, exists := lib.bySlug[p.Slug]; exists {
			lib.duplicates = append(lib.duplicates, p.Slug)
			continue
		}
		lib.bySlug[p.Slug] = p
	}
	return lib
}

// LoadLibrary reads the manifest named by the config and builds a library.
func LoadLibrary(cfg *config.AppConfig, log *logrus.Entry) (*Library, error) {
	src := NewManifestSource(config.GetEffectiveManifestPath(*cfg), log)
	posts, err := NewLoader(cfg.DefaultCategory, log).LoadAll(src)
	if err != nil {
		return nil, err
	}
	lib := NewLibrary(posts, cfg.PreferredCategories)
	for _, slug := range lib.duplicates {
		log.Warnf("Slug %q is used by more than one post; only the newest is reachable", slug)
	}
	return lib, nil
}

// Lookup finds a post by slug. When several posts share a slug the first in display order wins.
func (l *Library) Lookup(slug string) (*models.Post, bool) {
	p, ok := l.bySlug[slug]
	return p, ok
}

// Find is Lookup with an ErrNotFound error for unknown slugs.
func (l *Library) Find(slug string) (*models.Post, error) {
	if p, ok := l.bySlug[slug]; ok {
		return p, nil
	}
	return nil, utils.WrapErrorf(utils.ErrNotFound, "post %q", slug)
}

// DefaultCategory is the category selected when the listing is opened without one.
func (l *Library) DefaultCategory() string {
	if len(l.Categories) == 0 {
		return ""
	}
	return l.Categories[0]
}

// CategoryEntries returns the derived categories with their post counts.
func (l *Library) CategoryEntries() []models.CategoryEntry {
	entries := make([]models.CategoryEntry, len(l.Categories))
	for i, name := range l.Categories {
		entries[i] = models.CategoryEntry{Name: name, Count: l.Counts[name]}
	}
	return entries
}

// HasCategory reports whether any post carries the label.
func (l *Library) HasCategory(name string) bool {
	return l.Counts[name] > 0
}

// DuplicateSlugs lists slugs that appear on more than one post, in display order.
func (l *Library) DuplicateSlugs() []string {
	return append([]string(nil), l.duplicates...)
}
