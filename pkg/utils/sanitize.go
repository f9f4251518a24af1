package utils

import (
	"regexp"
	"strings"
)

// --- URL Path Segments ---
var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a label such as a category name into a lowercase, dash-separated path segment.
// "Reinforcement Learning" becomes "reinforcement-learning".
func Slugify(label string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(label), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}

// IsPathSegment reports whether s can stand alone as one URL path segment and directory name.
func IsPathSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
