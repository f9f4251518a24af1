package search

import "strings"

// ExtractSnippet returns up to maxLen runes of content centered on the first
// case-insensitive occurrence of query, with "..." marking trimmed ends.
// Without a match the start of content is returned.
func ExtractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(strings.ToLower(strings.TrimSpace(query)))
	contentLowerRunes := []rune(strings.ToLower(content))

	idx := -1
	if len(queryRunes) > 0 && len(contentLowerRunes) == len(runes) {
		for i := 0; i <= len(contentLowerRunes)-len(queryRunes); i++ {
			if string(contentLowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
				idx = i
				break
			}
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := idx - maxLen/2
	if start < 0 {
		start = 0
	}
	end := idx + len(queryRunes) + maxLen/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}
	return snippet
}
