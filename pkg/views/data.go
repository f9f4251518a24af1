package views

import (
	"html/template"
	"net/url"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/models"
)

// Page carries what the shared layout needs.
type Page struct {
	SiteTitle string
	Title     string
	Nav       string // "home", "blog" or "about"
	Theme     models.ThemeMode
	LiveSync  bool // include the live bridge script
	Static    bool // exported site: no server endpoints
}

// CategoryLink is one tab of the category bar.
type CategoryLink struct {
	Name   string
	Count  int
	URL    string
	Active bool
}

// PostSummary is a post as shown in listings.
type PostSummary struct {
	Title    string
	Slug     string
	URL      string
	Category string
	Date     string
	Excerpt  string
}

// BlogPage is the listing view.
type BlogPage struct {
	Page
	Categories     []CategoryLink
	ActiveCategory string
	Query          string
	Searchable     bool
	Posts          []PostSummary
}

// PostPage is the detail view of one post.
type PostPage struct {
	Page
	Post     PostSummary
	Headings []models.Heading
	Body     template.HTML
}

// ProfilePage is used by both the portfolio home and the about page.
type ProfilePage struct {
	Page
	Profile config.ProfileConfig
	Recent  []PostSummary
}

// NotFoundPage is shown for unknown slugs and routes.
type NotFoundPage struct {
	Page
	Message string
}

// Summarize converts a post for listings.
func Summarize(p *models.Post) PostSummary {
	return PostSummary{
		Title:    p.Title,
		Slug:     p.Slug,
		URL:      "/post/" + url.PathEscape(p.Slug) + "/",
		Category: p.Category,
		Date:     p.DisplayDate(),
		Excerpt:  p.Excerpt,
	}
}

// SummarizeAll converts posts in order.
func SummarizeAll(posts []*models.Post) []PostSummary {
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, Summarize(p))
	}
	return out
}
