// Package sitemap generates the crawler-facing files of the site: sitemap.xml and robots.txt.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/utils"
	"github.com/folio-blog/folio/pkg/views"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// XMLURL represents a <url> element in a sitemap
type XMLURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// XMLURLSet represents a <urlset> element in a sitemap
type XMLURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []XMLURL `xml:"url"`
}

// Paths lists the site paths a sitemap should advertise, in display order: the home page,
// the listing, each category listing and each reachable post. Posts whose slug is shadowed
// by a newer post, or is not a single path segment, are left out.
func Paths(lib *content.Library, categoryURL func(string) string) []string {
	paths := []string{"/", "/blog/", "/about/"}
	for _, name := range lib.Categories {
		paths = append(paths, categoryURL(name))
	}
	for _, p := range lib.Posts {
		if owner, _ := lib.Lookup(p.Slug); owner != p || !utils.IsPathSegment(p.Slug) {
			continue
		}
		paths = append(paths, views.Summarize(p).URL)
	}
	return paths
}

// Build creates the sitemap for lib rooted at baseURL (no trailing slash). Posts with a
// date carry it as lastmod.
func Build(lib *content.Library, baseURL string, categoryURL func(string) string) *XMLURLSet {
	set := &XMLURLSet{Xmlns: xmlns}
	lastmod := make(map[string]string, len(lib.Posts))
	for _, p := range lib.Posts {
		if p.HasDate() {
			lastmod[views.Summarize(p).URL] = p.Date.Format("2006-01-02")
		}
	}
	for _, path := range Paths(lib, categoryURL) {
		set.URLs = append(set.URLs, XMLURL{Loc: baseURL + path, LastMod: lastmod[path]})
	}
	return set
}

// Write encodes set as an indented XML document.
func Write(w io.Writer, set *XMLURLSet) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
