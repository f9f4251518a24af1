// Package category derives the ordered category list shown beside the blog listing.
package category

import (
	"sort"

	"github.com/folio-blog/folio/pkg/models"
)

// Count tallies posts per category label.
func Count(posts []*models.Post) map[string]int {
	counts := make(map[string]int)
	for _, p := range posts {
		counts[p.Category]++
	}
	return counts
}

// DeriveCategories returns every category with at least one post, each exactly once.
// Labels named in preferredOrder come first, in that order, when present. The rest follow
// by descending post count; equal counts keep the order in which the label first appears
// in posts. Preferred labels with no posts are omitted.
func DeriveCategories(posts []*models.Post, preferredOrder []string) []string {
	counts := make(map[string]int)
	var firstSeen []string
	for _, p := range posts {
		if _, ok := counts[p.Category]; !ok {
			firstSeen = append(firstSeen, p.Category)
		}
		counts[p.Category]++
	}

	ordered := make([]string, 0, len(firstSeen))
	pinned := make(map[string]bool, len(preferredOrder))
	for _, name := range preferredOrder {
		if counts[name] > 0 && !pinned[name] {
			ordered = append(ordered, name)
			pinned[name] = true
		}
	}

	rest := make([]string, 0, len(firstSeen))
	for _, name := range firstSeen {
		if !pinned[name] {
			rest = append(rest, name)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return counts[rest[i]] > counts[rest[j]]
	})

	return append(ordered, rest...)
}

// Entries pairs each derived category with its post count.
func Entries(posts []*models.Post, preferredOrder []string) []models.CategoryEntry {
	counts := Count(posts)
	names := DeriveCategories(posts, preferredOrder)
	entries := make([]models.CategoryEntry, len(names))
	for i, name := range names {
		entries[i] = models.CategoryEntry{Name: name, Count: counts[name]}
	}
	return entries
}
