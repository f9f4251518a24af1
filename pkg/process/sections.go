package process

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/toc"
	"github.com/folio-blog/folio/pkg/utils"
)

// Section is one retrieval-sized piece of a post.
type Section struct {
	Heading    string   `json:"heading,omitempty"` // Deepest heading the section sits under
	Anchor     string   `json:"anchor,omitempty"`  // Page anchor of Heading when it is an h2 or h3
	Path       []string `json:"path,omitempty"`    // Headings in the section, outermost first
	Content    string   `json:"content"`
	TokenCount int      `json:"token_count"`
}

// Splitter cuts markdown at headings and re-splits anything still over the size limit.
type Splitter struct {
	maxSize int
	overlap int
	counter *TokenCounter
}

// NewSplitter creates a splitter measuring sizes with counter (nil estimates).
func NewSplitter(cfg config.ChunkingConfig, counter *TokenCounter) *Splitter {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 512
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.MaxChunkSize {
		cfg.ChunkOverlap = cfg.MaxChunkSize / 10
	}
	return &Splitter{maxSize: cfg.MaxChunkSize, overlap: cfg.ChunkOverlap, counter: counter}
}

var sectionHeading = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// Split returns the sections of markdown in document order. Each section carries its
// parent headings so it stands on its own.
func (s *Splitter) Split(markdown string) ([]Section, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, nil
	}

	fallback := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.maxSize),
		textsplitter.WithChunkOverlap(s.overlap),
		textsplitter.WithLenFunc(s.counter.Count),
	)
	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithHeadingHierarchy(true),
		textsplitter.WithChunkSize(s.maxSize),
		textsplitter.WithChunkOverlap(s.overlap),
		textsplitter.WithSecondSplitter(fallback),
		textsplitter.WithLenFunc(s.counter.Count),
	)

	parts, err := splitter.SplitText(markdown)
	if err != nil {
		return nil, fmt.Errorf("%w: splitting markdown: %w", utils.ErrRender, err)
	}

	sections := make([]Section, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sec := Section{Content: part, TokenCount: s.counter.Count(part)}
		level := 0
		for _, m := range sectionHeading.FindAllStringSubmatch(part, -1) {
			text := strings.TrimSpace(m[2])
			if text == "" {
				continue
			}
			sec.Path = append(sec.Path, text)
			sec.Heading = text
			level = len(m[1])
		}
		if level == 2 || level == 3 {
			sec.Anchor = toc.Anchor(sec.Heading)
		}
		sections = append(sections, sec)
	}
	return sections, nil
}
