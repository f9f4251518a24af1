package models

import "time"

// Post is one blog entry as held by the content registry
type Post struct {
	ID         string    `json:"id" yaml:"id"`
	Slug       string    `json:"slug" yaml:"slug"`
	Category   string    `json:"category" yaml:"category"`
	Title      string    `json:"title" yaml:"title"`
	Date       time.Time `json:"date" yaml:"-"`              // Parsed for ordering; zero when missing or unparseable
	DateText   string    `json:"date_text" yaml:"date"`      // Date as written in the source record
	Excerpt    string    `json:"excerpt" yaml:"excerpt"`
	Content    string    `json:"content,omitempty" yaml:"-"` // Raw markdown body
	SourcePath string    `json:"source_path,omitempty" yaml:"-"`
}

// HasDate reports whether the post carries a usable date
func (p *Post) HasDate() bool {
	return !p.Date.IsZero()
}

// DisplayDate returns the date as shown in listings
func (p *Post) DisplayDate() string {
	if p.HasDate() {
		return p.Date.Format("January 2, 2006")
	}
	return p.DateText
}

// CategoryEntry is a derived category label with its post count
type CategoryEntry struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Heading is a table-of-contents entry extracted from raw markdown
type Heading struct {
	Level  int    `json:"level" yaml:"level"` // 2 or 3
	Text   string `json:"text" yaml:"text"`
	Anchor string `json:"anchor" yaml:"anchor"`
}

// BuildMetadata holds the summary written alongside a static export.
type BuildMetadata struct {
	SiteTitle      string          `yaml:"site_title"`
	BuildStartTime time.Time       `yaml:"build_start_time"`
	BuildEndTime   time.Time       `yaml:"build_end_time"`
	TotalPosts     int             `yaml:"total_posts"`
	Categories     []CategoryEntry `yaml:"categories"`
	Posts          []PostMetadata  `yaml:"posts"`
}

// PostMetadata holds metadata for a single exported post.
type PostMetadata struct {
	ID            string    `yaml:"id"`
	Slug          string    `yaml:"slug"`
	Title         string    `yaml:"title"`
	Category      string    `yaml:"category"`
	Date          string    `yaml:"date,omitempty"`
	LocalFilePath string    `yaml:"local_file_path"` // Relative to output dir
	Headings      []Heading `yaml:"headings,omitempty"`
	ContentHash   string    `yaml:"content_hash"` // SHA-256 hex of the raw markdown
	RenderedAt    time.Time `yaml:"rendered_at"`
}
