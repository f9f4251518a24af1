package sitemap

import (
	"fmt"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/folio-blog/folio/pkg/utils"
)

// DefaultRobots allows every crawler everywhere.
const DefaultRobots = "User-agent: *\nAllow: /\n"

// Robots returns the robots.txt body: custom when set, else DefaultRobots. When sitemapURL
// is non-empty and the body names no sitemap, a Sitemap directive is appended.
func Robots(custom, sitemapURL string) string {
	body := DefaultRobots
	if strings.TrimSpace(custom) != "" {
		body = custom
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
	}
	if sitemapURL != "" && !strings.Contains(strings.ToLower(body), "sitemap:") {
		body += "\nSitemap: " + sitemapURL + "\n"
	}
	return body
}

// Blocked parses a robots.txt body and returns the paths it disallows for generic crawlers.
func Blocked(body string, paths []string) ([]string, error) {
	data, err := robotstxt.FromString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing robots_txt: %w", utils.ErrConfigValidation, err)
	}
	group := data.FindGroup("*")
	var blocked []string
	for _, p := range paths {
		if !group.Test(p) {
			blocked = append(blocked, p)
		}
	}
	return blocked, nil
}
