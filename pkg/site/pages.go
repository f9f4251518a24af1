package site

import (
	"io"
	"net/url"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/render"
	"github.com/folio-blog/folio/pkg/search"
	"github.com/folio-blog/folio/pkg/utils"
	"github.com/folio-blog/folio/pkg/views"
)

const recentPostCount = 3

// PageOptions vary per request: the visitor's theme, and whether the page is part of a
// static export.
type PageOptions struct {
	Theme    models.ThemeMode
	Static   bool
	LiveSync bool
}

// Pages turns library state into rendered views. It is shared by the server and the
// static exporter.
type Pages struct {
	cfg      *config.AppConfig
	views    *views.Renderer
	renderer *render.Renderer
}

// NewPages parses the templates and prepares the markdown renderer.
func NewPages(cfg *config.AppConfig, renderer *render.Renderer) (*Pages, error) {
	v, err := views.New()
	if err != nil {
		return nil, err
	}
	return &Pages{cfg: cfg, views: v, renderer: renderer}, nil
}

// Renderer returns the markdown renderer pages are built with.
func (p *Pages) Renderer() *render.Renderer {
	return p.renderer
}

func (p *Pages) base(title, nav string, opts PageOptions) views.Page {
	return views.Page{
		SiteTitle: p.cfg.SiteTitle,
		Title:     title,
		Nav:       nav,
		Theme:     opts.Theme,
		LiveSync:  opts.LiveSync && !opts.Static,
		Static:    opts.Static,
	}
}

// CategoryURL is the listing address for a category.
func CategoryURL(name string, static bool) string {
	if static {
		return "/blog/" + utils.Slugify(name) + "/"
	}
	return "/blog?category=" + url.QueryEscape(name)
}

// Blog renders the listing for activeCategory filtered by query. An unknown or empty
// category falls back to the first derived category. It returns the posts listed.
func (p *Pages) Blog(w io.Writer, lib *content.Library, activeCategory, query, nav string, opts PageOptions) ([]*models.Post, error) {
	if !lib.HasCategory(activeCategory) {
		activeCategory = lib.DefaultCategory()
	}
	posts := search.Filter(lib.Posts, activeCategory, query)

	entries := lib.CategoryEntries()
	links := make([]views.CategoryLink, 0, len(entries))
	for _, e := range entries {
		links = append(links, views.CategoryLink{
			Name:   e.Name,
			Count:  e.Count,
			URL:    CategoryURL(e.Name, opts.Static),
			Active: e.Name == activeCategory,
		})
	}

	title := "Blog"
	if nav == "home" {
		title = ""
	}
	return posts, p.views.Render(w, views.PageBlog, views.BlogPage{
		Page:           p.base(title, nav, opts),
		Categories:     links,
		ActiveCategory: activeCategory,
		Query:          query,
		Searchable:     !opts.Static,
		Posts:          views.SummarizeAll(posts),
	})
}

// Post renders one post with its table of contents.
func (p *Pages) Post(w io.Writer, post *models.Post, opts PageOptions) (*render.Result, error) {
	res, err := p.renderer.Render(post.Content)
	if err != nil {
		return nil, err
	}
	return res, p.views.Render(w, views.PagePost, views.PostPage{
		Page:     p.base(post.Title, "blog", opts),
		Post:     views.Summarize(post),
		Headings: res.Headings,
		Body:     res.HTML,
	})
}

// Home renders the portfolio when configured, else the blog listing.
func (p *Pages) Home(w io.Writer, lib *content.Library, opts PageOptions) error {
	if p.cfg.Home != config.HomePortfolio {
		_, err := p.Blog(w, lib, "", "", "home", opts)
		return err
	}
	recent := lib.Posts
	if len(recent) > recentPostCount {
		recent = recent[:recentPostCount]
	}
	return p.views.Render(w, views.PagePortfolio, views.ProfilePage{
		Page:    p.base("", "home", opts),
		Profile: p.cfg.Profile,
		Recent:  views.SummarizeAll(recent),
	})
}

// About renders the profile page.
func (p *Pages) About(w io.Writer, opts PageOptions) error {
	return p.views.Render(w, views.PageAbout, views.ProfilePage{
		Page:    p.base("About", "about", opts),
		Profile: p.cfg.Profile,
	})
}

// NotFound renders the not-found view with message.
func (p *Pages) NotFound(w io.Writer, message string, opts PageOptions) error {
	return p.views.Render(w, views.PageNotFound, views.NotFoundPage{
		Page:    p.base("Not found", "", opts),
		Message: message,
	})
}
