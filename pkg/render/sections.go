package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/utils"
)

// SectionIDs lists the ids of h2 and h3 elements in rendered HTML, in document order.
func SectionIDs(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing rendered HTML: %w", utils.ErrRender, err)
	}

	var ids []string
	doc.Find("h2[id], h3[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

// PlainText strips markup from rendered HTML and collapses whitespace.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Observable returns the headings whose anchors exist among the rendered section ids.
// Headings the renderer did not produce (for instance inside a blockquote) are dropped.
func Observable(headings []models.Heading, sectionIDs []string) []models.Heading {
	present := make(map[string]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		present[id] = true
	}
	out := make([]models.Heading, 0, len(headings))
	for _, h := range headings {
		if present[h.Anchor] {
			out = append(out, h)
		}
	}
	return out
}
