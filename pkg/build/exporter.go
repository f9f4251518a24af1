// Package build exports the site as static files.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/process"
	"github.com/folio-blog/folio/pkg/site"
	"github.com/folio-blog/folio/pkg/sitemap"
	"github.com/folio-blog/folio/pkg/utils"
	"github.com/folio-blog/folio/pkg/views"
)

const (
	metadataFilename = "metadata.yaml"
	sectionsFilename = "sections.jsonl"
)

// SectionRecord is one line of sections.jsonl.
type SectionRecord struct {
	PostID     string   `json:"post_id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Heading    string   `json:"heading,omitempty"`
	Path       []string `json:"path,omitempty"`
	Content    string   `json:"content"`
	TokenCount int      `json:"token_count"`
}

// Exporter writes every page of the site under an output directory.
type Exporter struct {
	cfg      *config.AppConfig
	pages    *site.Pages
	splitter *process.Splitter
	log      *logrus.Entry
}

// NewExporter creates an exporter. When splitter is non-nil, post sections are also
// written to sections.jsonl for retrieval tooling.
func NewExporter(cfg *config.AppConfig, pages *site.Pages, splitter *process.Splitter, log *logrus.Entry) *Exporter {
	return &Exporter{cfg: cfg, pages: pages, splitter: splitter, log: log}
}

type postResult struct {
	meta     *models.PostMetadata
	sections []SectionRecord
}

// Export renders lib into output_dir. Post pages render concurrently, bounded by
// render_workers. The first failure cancels the remaining work.
func (e *Exporter) Export(ctx context.Context, lib *content.Library) (*models.BuildMetadata, error) {
	start := time.Now()
	outDir := e.cfg.OutputDir
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory %s: %w", utils.ErrFilesystem, outDir, err)
	}
	e.log.Infof("Exporting %d posts to %s", len(lib.Posts), outDir)

	opts := site.PageOptions{Theme: models.ThemeLight, Static: true}

	if err := e.writePage(outDir, "index.html", func(w io.Writer) error {
		return e.pages.Home(w, lib, opts)
	}); err != nil {
		return nil, err
	}
	if err := e.writeListings(outDir, lib, opts); err != nil {
		return nil, err
	}
	if err := e.writePage(outDir, filepath.Join("about", "index.html"), func(w io.Writer) error {
		return e.pages.About(w, opts)
	}); err != nil {
		return nil, err
	}
	if err := e.writePage(outDir, "404.html", func(w io.Writer) error {
		return e.pages.NotFound(w, "Page not found", opts)
	}); err != nil {
		return nil, err
	}

	results, err := e.writePosts(ctx, outDir, lib, opts)
	if err != nil {
		return nil, err
	}

	if err := copyStatic(filepath.Join(outDir, "static")); err != nil {
		return nil, err
	}
	if err := e.writeCrawlerFiles(outDir, lib); err != nil {
		return nil, err
	}

	metadata := &models.BuildMetadata{
		SiteTitle:      e.cfg.SiteTitle,
		BuildStartTime: start,
		Categories:     lib.CategoryEntries(),
		Posts:          make([]models.PostMetadata, 0, len(results)),
	}
	var sections []SectionRecord
	for _, r := range results {
		if r.meta == nil {
			continue
		}
		metadata.Posts = append(metadata.Posts, *r.meta)
		sections = append(sections, r.sections...)
	}
	metadata.TotalPosts = len(metadata.Posts)

	if e.splitter != nil {
		if err := writeSections(filepath.Join(outDir, sectionsFilename), sections); err != nil {
			return nil, err
		}
	}

	metadata.BuildEndTime = time.Now()
	if err := writeMetadata(filepath.Join(outDir, metadataFilename), metadata); err != nil {
		return nil, err
	}

	e.log.Infof("Export finished: %d posts, %d categories in %v",
		metadata.TotalPosts, len(metadata.Categories), metadata.BuildEndTime.Sub(start).Round(time.Millisecond))
	return metadata, nil
}

// writeListings writes the default listing and one listing per category.
func (e *Exporter) writeListings(outDir string, lib *content.Library, opts site.PageOptions) error {
	if err := e.writePage(outDir, filepath.Join("blog", "index.html"), func(w io.Writer) error {
		_, err := e.pages.Blog(w, lib, "", "", "blog", opts)
		return err
	}); err != nil {
		return err
	}

	written := make(map[string]string, len(lib.Categories))
	for _, name := range lib.Categories {
		slug := utils.Slugify(name)
		if prev, dup := written[slug]; dup {
			e.log.Warnf("Categories %q and %q share the path /blog/%s/; keeping %q", prev, name, slug, prev)
			continue
		}
		written[slug] = name
		if err := e.writePage(outDir, filepath.Join("blog", slug, "index.html"), func(w io.Writer) error {
			_, err := e.pages.Blog(w, lib, name, "", "blog", opts)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// writePosts renders reachable posts concurrently. Results keep display order.
func (e *Exporter) writePosts(ctx context.Context, outDir string, lib *content.Library, opts site.PageOptions) ([]postResult, error) {
	results := make([]postResult, len(lib.Posts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.cfg.RenderWorkers))

	for i, post := range lib.Posts {
		if owner, _ := lib.Lookup(post.Slug); owner != post {
			e.log.Warnf("Skipping %s: slug %q belongs to a newer post", post.SourcePath, post.Slug)
			continue
		}
		if !utils.IsPathSegment(post.Slug) {
			e.log.Warnf("Skipping post %q: slug %q cannot be used as a directory name", post.Title, post.Slug)
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel := filepath.Join("post", post.Slug, "index.html")

			var buf bytes.Buffer
			res, err := e.pages.Post(&buf, post, opts)
			if err != nil {
				return fmt.Errorf("post %s: %w", post.Slug, err)
			}
			if err := writeFile(filepath.Join(outDir, rel), buf.Bytes()); err != nil {
				return err
			}

			results[i].meta = &models.PostMetadata{
				ID:            post.ID,
				Slug:          post.Slug,
				Title:         post.Title,
				Category:      post.Category,
				Date:          post.DisplayDate(),
				LocalFilePath: filepath.ToSlash(rel),
				Headings:      res.Headings,
				ContentHash:   utils.CalculateStringSHA256(post.Content),
				RenderedAt:    time.Now(),
			}

			if e.splitter != nil {
				secs, err := e.splitter.Split(post.Content)
				if err != nil {
					return fmt.Errorf("post %s: %w", post.Slug, err)
				}
				url := views.Summarize(post).URL
				for _, s := range secs {
					link := url
					if s.Anchor != "" {
						link += "#" + s.Anchor
					}
					results[i].sections = append(results[i].sections, SectionRecord{
						PostID:     post.ID,
						Slug:       post.Slug,
						Title:      post.Title,
						URL:        link,
						Heading:    s.Heading,
						Path:       s.Path,
						Content:    s.Content,
						TokenCount: s.TokenCount,
					})
				}
			}
			e.log.Debugf("Exported %s", rel)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeCrawlerFiles writes robots.txt, plus sitemap.xml when base_url is known.
func (e *Exporter) writeCrawlerFiles(outDir string, lib *content.Library) error {
	categoryURL := func(name string) string { return site.CategoryURL(name, true) }

	sitemapURL := ""
	if e.cfg.BaseURL != "" {
		sitemapURL = e.cfg.BaseURL + "/sitemap.xml"
		var buf bytes.Buffer
		if err := sitemap.Write(&buf, sitemap.Build(lib, e.cfg.BaseURL, categoryURL)); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(outDir, "sitemap.xml"), buf.Bytes()); err != nil {
			return err
		}
	} else {
		e.log.Info("base_url is not set, skipping sitemap.xml")
	}

	robots := sitemap.Robots(e.cfg.RobotsTxt, sitemapURL)
	blocked, err := sitemap.Blocked(robots, sitemap.Paths(lib, categoryURL))
	if err != nil {
		return err
	}
	for _, p := range blocked {
		e.log.Warnf("robots.txt disallows %s", p)
	}
	return writeFile(filepath.Join(outDir, "robots.txt"), []byte(robots))
}

// writePage renders into a buffer and writes rel under outDir.
func (e *Exporter) writePage(outDir, rel string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("rendering %s: %w", rel, err)
	}
	return writeFile(filepath.Join(outDir, rel), buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, path, err)
	}
	return nil
}

// copyStatic copies the embedded assets into dir.
func copyStatic(dir string) error {
	assets := views.Static()
	return fs.WalkDir(assets, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(assets, path)
		if err != nil {
			return fmt.Errorf("%w: reading embedded %s: %w", utils.ErrFilesystem, path, err)
		}
		return writeFile(filepath.Join(dir, filepath.FromSlash(path)), data)
	})
}

func writeMetadata(path string, metadata *models.BuildMetadata) error {
	data, err := yaml.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal build metadata: %w", err)
	}
	return writeFile(path, data)
}

func writeSections(path string, sections []SectionRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range sections {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode section for %s: %w", s.Slug, err)
		}
	}
	return writeFile(path, buf.Bytes())
}
