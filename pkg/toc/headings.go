// Package toc builds a post's table of contents from its raw markdown.
package toc

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/folio-blog/folio/pkg/models"
)

// headingLine matches level-2 and level-3 ATX headings indented by at most three spaces.
// "#" and "####" lines do not match.
var headingLine = regexp.MustCompile(`^ {0,3}(#{2,3})(?:[ \t]+(.*))?$`)

// ExtractHeadings scans raw markdown line by line and returns the level-2/3 headings in
// document order. Lines inside fenced code blocks are skipped. Duplicate anchors are kept
// as-is; see Disambiguate.
func ExtractHeadings(raw string) []models.Heading {
	var headings []models.Heading
	var fence fenceState

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), len(raw)+1)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if fence.consume(line) {
			continue
		}

		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := stripClosingSequence(strings.TrimSpace(m[2]))
		if text == "" {
			continue
		}
		headings = append(headings, models.Heading{
			Level:  len(m[1]),
			Text:   text,
			Anchor: Anchor(text),
		})
	}
	return headings
}

// stripClosingSequence removes an optional closing run of "#" from trimmed heading text.
// The run must be the whole text or follow a space or tab; "C#" keeps its "#".
func stripClosingSequence(text string) string {
	body := strings.TrimRight(text, "#")
	if body == "" {
		return ""
	}
	if len(body) == len(text) {
		return text
	}
	if last := body[len(body)-1]; last != ' ' && last != '\t' {
		return text
	}
	return strings.TrimRight(body, " \t")
}

// Anchor derives a heading's fragment identifier: lowercased, with every whitespace run
// collapsed to a single "-". Other punctuation is kept.
func Anchor(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), "-")
}

// Disambiguate returns a copy of headings where repeated anchors get "-1", "-2", ... suffixes
// in document order. The first occurrence keeps its plain anchor.
func Disambiguate(headings []models.Heading) []models.Heading {
	out := make([]models.Heading, len(headings))
	seq := NewSequence(true)
	for i, h := range headings {
		h.Anchor = seq.Next(h.Text)
		out[i] = h
	}
	return out
}

// Sequence hands out anchors for headings encountered in document order.
// The renderer and the extractor share it so both agree on every id.
type Sequence struct {
	unique bool
	seen   map[string]int
}

// NewSequence returns a sequence; with unique=false it is equivalent to calling Anchor.
func NewSequence(unique bool) *Sequence {
	return &Sequence{unique: unique, seen: make(map[string]int)}
}

// Next returns the anchor for the next heading with the given text. In unique mode a
// repeated anchor gets the lowest "-N" suffix not handed out yet, so suffixed anchors never
// collide with a later heading whose own text ends in a number.
func (s *Sequence) Next(text string) string {
	anchor := Anchor(text)
	if !s.unique {
		return anchor
	}
	n, dup := s.seen[anchor]
	if !dup {
		s.seen[anchor] = 1
		return anchor
	}
	for {
		candidate := anchor + "-" + strconv.Itoa(n)
		n++
		if _, taken := s.seen[candidate]; !taken {
			s.seen[anchor] = n
			s.seen[candidate] = 1
			return candidate
		}
	}
}

// fenceState tracks whether the scanner is inside a fenced code block.
type fenceState struct {
	marker byte
	length int
}

// consume updates the fence state for line and reports whether the line belongs to a fence.
func (f *fenceState) consume(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return f.marker != 0
	}
	char, n := fenceRun(trimmed)

	if f.marker == 0 {
		if n >= 3 && !(char == '`' && strings.ContainsRune(trimmed[n:], '`')) {
			f.marker, f.length = char, n
			return true
		}
		return false
	}

	if char == f.marker && n >= f.length && strings.TrimSpace(trimmed[n:]) == "" {
		f.marker, f.length = 0, 0
	}
	return true
}

// fenceRun returns the fence character at the start of s and how many times it repeats.
func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}
