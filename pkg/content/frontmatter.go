package content

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/folio-blog/folio/pkg/utils"
)

// Frontmatter is the YAML header of a post file.
type Frontmatter struct {
	ID       string `yaml:"id"`
	Slug     string `yaml:"slug"`
	Category string `yaml:"category"`
	Title    string `yaml:"title"`
	Date     string `yaml:"date"`
	Excerpt  string `yaml:"excerpt"`
}

// ParseFrontmatter splits a post file into its YAML header and markdown body.
// The header must be delimited by "---" lines at the very start of the file; a file without
// one is all body. An opening delimiter without a closing one is an error.
func ParseFrontmatter(data []byte) (Frontmatter, string, error) {
	var fm Frontmatter
	text := strings.TrimPrefix(string(data), "\ufeff")

	first, rest, found := cutLine(text)
	if strings.TrimSpace(first) != "---" {
		return fm, text, nil
	}

	var header []string
	closed := false
	for found {
		var line string
		line, rest, found = cutLine(rest)
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		header = append(header, line)
	}
	if !closed {
		return fm, "", fmt.Errorf("%w: missing closing '---'", utils.ErrFrontmatter)
	}

	if err := yaml.Unmarshal([]byte(strings.Join(header, "\n")), &fm); err != nil {
		return fm, "", fmt.Errorf("%w: %w", utils.ErrFrontmatter, err)
	}
	return fm, strings.TrimLeft(rest, "\r\n"), nil
}

// cutLine returns the first line of s without its terminator, the remainder, and whether a
// terminator was present.
func cutLine(s string) (line, rest string, found bool) {
	line, rest, found = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, found
}
