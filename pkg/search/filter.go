// Package search filters the post listing by category and free-text query.
package search

import (
	"strings"

	"github.com/folio-blog/folio/pkg/models"
)

// Field names the part of a post a query matched.
type Field string

const (
	FieldNone    Field = ""
	FieldTitle   Field = "title"
	FieldExcerpt Field = "excerpt"
	FieldContent Field = "content"
)

// Filter returns the posts in activeCategory that match query, preserving input order.
// The category comparison is exact and case-sensitive. The query is trimmed; a blank query
// matches every post in the category, otherwise it must appear, case-insensitively, in the
// title, excerpt or raw content.
func Filter(posts []*models.Post, activeCategory, query string) []*models.Post {
	needle := normalizeQuery(query)
	matched := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Category != activeCategory {
			continue
		}
		if needle == "" || matchField(p, needle) != FieldNone {
			matched = append(matched, p)
		}
	}
	return matched
}

// Match reports whether query matches post and in which field it matched first.
// Category is not considered. A blank query matches with FieldNone.
func Match(post *models.Post, query string) (bool, Field) {
	needle := normalizeQuery(query)
	if needle == "" {
		return true, FieldNone
	}
	field := matchField(post, needle)
	return field != FieldNone, field
}

// normalizeQuery trims and lowercases a query.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func matchField(p *models.Post, needle string) Field {
	switch {
	case strings.Contains(strings.ToLower(p.Title), needle):
		return FieldTitle
	case strings.Contains(strings.ToLower(p.Excerpt), needle):
		return FieldExcerpt
	case strings.Contains(strings.ToLower(p.Content), needle):
		return FieldContent
	}
	return FieldNone
}
