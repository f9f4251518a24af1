// Package content loads posts from a content source into an ordered, immutable set.
package content

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/utils"
)

// dateFormats are tried in order when parsing a record's date
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Loader turns source records into posts.
type Loader struct {
	DefaultCategory string        // Assigned to records without a category
	NewID           func() string // Identifier generator for records without an id
	log             *logrus.Entry
}

// NewLoader creates a loader. A nil log discards messages.
func NewLoader(defaultCategory string, log *logrus.Entry) *Loader {
	if defaultCategory == "" {
		defaultCategory = "Uncategorized"
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &Loader{
		DefaultCategory: defaultCategory,
		NewID:           uuid.NewString,
		log:             log,
	}
}

// LoadAll loads every record from src with the default loader settings.
func LoadAll(src Source) ([]*models.Post, error) {
	return NewLoader("", nil).LoadAll(src)
}

// LoadAll reads all records, assigns identifiers to those without one and returns the posts
// newest first. Posts sharing a date keep their source order; undated posts come last.
// An empty source yields an empty slice.
func (l *Loader) LoadAll(src Source) ([]*models.Post, error) {
	records, err := src.Records()
	if err != nil {
		return nil, err
	}

	// Explicit ids are reserved first so generated ones can never collide with them.
	reserved := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID == "" {
			continue
		}
		if _, dup := reserved[r.ID]; !dup {
			reserved[r.ID] = i
		}
	}

	posts := make([]*models.Post, 0, len(records))
	for i, r := range records {
		post, ok := l.normalize(r)
		if !ok {
			continue
		}

		if owner, has := reserved[r.ID]; !has || owner != i {
			if r.ID != "" {
				l.log.WithField("slug", post.Slug).Warnf("Duplicate post id %q, assigning a new one", r.ID)
			}
			post.ID = l.generateID(reserved)
			reserved[post.ID] = i
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return newer(posts[i], posts[j])
	})

	l.log.Debugf("Loaded %d posts", len(posts))
	return posts, nil
}

// normalize validates a record and converts it to a post. Records without any usable slug
// are dropped.
func (l *Loader) normalize(r Record) (*models.Post, bool) {
	slug := strings.TrimSpace(r.Slug)
	if slug == "" && r.SourcePath != "" {
		base := filepath.Base(r.SourcePath)
		slug = utils.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if slug == "" {
		l.log.WithField("title", r.Title).Warn("Skipping post record without a slug")
		return nil, false
	}

	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = l.DefaultCategory
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = titleFromSlug(slug)
	}

	date, ok := parseDate(r.Date)
	if !ok && strings.TrimSpace(r.Date) != "" {
		l.log.WithField("slug", slug).Warnf("Could not parse date %q; use YYYY-MM-DD or RFC3339", r.Date)
	}

	return &models.Post{
		ID:         r.ID,
		Slug:       slug,
		Category:   category,
		Title:      title,
		Date:       date,
		DateText:   strings.TrimSpace(r.Date),
		Excerpt:    strings.TrimSpace(r.Excerpt),
		Content:    r.Content,
		SourcePath: r.SourcePath,
	}, true
}

func (l *Loader) generateID(reserved map[string]int) string {
	for {
		id := l.NewID()
		if _, taken := reserved[id]; !taken && id != "" {
			return id
		}
	}
}

// newer orders dated posts before undated ones, then by descending date.
func newer(a, b *models.Post) bool {
	if a.HasDate() != b.HasDate() {
		return a.HasDate()
	}
	return a.Date.After(b.Date)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func titleFromSlug(slug string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(words)
}
