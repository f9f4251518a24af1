package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/folio-blog/folio/pkg/utils"
)

// Record is one post as supplied by a content source, before normalization.
type Record struct {
	ID         string
	Slug       string
	Category   string
	Title      string
	Date       string
	Excerpt    string
	Content    string
	SourcePath string
}

// Source supplies post records in insertion order.
type Source interface {
	Records() ([]Record, error)
}

// StaticSource is an in-memory content source.
type StaticSource []Record

// Records implements Source.
func (s StaticSource) Records() ([]Record, error) {
	out := make([]Record, len(s))
	copy(out, s)
	return out, nil
}

// Manifest lists the post files making up the site, in insertion order.
type Manifest struct {
	Posts []ManifestEntry `yaml:"posts"`
}

// ManifestEntry points at one markdown file. ID, when set, overrides the file's frontmatter.
type ManifestEntry struct {
	File string `yaml:"file"`
	ID   string `yaml:"id,omitempty"`
}

// ManifestSource reads posts from the files named in a YAML manifest.
// File paths are relative to the manifest's directory. Files ending in .html or .htm
// carry an HTML body, which is converted to markdown on read.
type ManifestSource struct {
	path string
	log  *logrus.Entry
}

// NewManifestSource creates a source for the manifest at path.
func NewManifestSource(path string, log *logrus.Entry) *ManifestSource {
	return &ManifestSource{path: path, log: log}
}

// Path returns the manifest location.
func (s *ManifestSource) Path() string {
	return s.path
}

// ReadManifest parses the manifest file.
func (s *ManifestSource) ReadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest %s: %w", utils.ErrContentSource, s.path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", utils.ErrManifest, s.path, err)
	}
	for i, e := range m.Posts {
		if e.File == "" {
			return nil, fmt.Errorf("%w: entry #%d in %s has no file", utils.ErrManifest, i+1, s.path)
		}
	}
	return &m, nil
}

// Records implements Source.
func (s *ManifestSource) Records() ([]Record, error) {
	m, err := s.ReadManifest()
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(s.path)
	records := make([]Record, 0, len(m.Posts))
	for _, entry := range m.Posts {
		filePath := entry.File
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", utils.ErrContentSource, entry.File, err)
		}
		fm, body, err := ParseFrontmatter(data)
		if err != nil {
			if errors.Is(err, utils.ErrFrontmatter) {
				return nil, fmt.Errorf("%s: %w", entry.File, err)
			}
			return nil, err
		}

		if isHTML(filePath) {
			body, err = htmlToMarkdown(body)
			if err != nil {
				return nil, fmt.Errorf("%w: converting %s: %w", utils.ErrContentSource, entry.File, err)
			}
		}

		id := fm.ID
		if entry.ID != "" {
			id = entry.ID
		}
		records = append(records, Record{
			ID:         id,
			Slug:       fm.Slug,
			Category:   fm.Category,
			Title:      fm.Title,
			Date:       fm.Date,
			Excerpt:    fm.Excerpt,
			Content:    body,
			SourcePath: filePath,
		})
	}

	if s.log != nil {
		s.log.Debugf("Read %d post records from %s", len(records), s.path)
	}
	return records, nil
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

// htmlToMarkdown converts an HTML post body to markdown with ATX headings, so the
// heading extractor and renderer treat it like any other post.
func htmlToMarkdown(body string) (string, error) {
	converter := md.NewConverter("", true, &md.Options{HeadingStyle: "atx"})
	out, err := converter.ConvertString(body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out) + "\n", nil
}
