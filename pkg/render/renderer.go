// Package render turns post markdown into HTML with section anchors, math and diagrams.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"

	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/toc"
	"github.com/folio-blog/folio/pkg/utils"
)

// Options configures a Renderer.
type Options struct {
	UniqueAnchors bool // Suffix repeated heading anchors with -1, -2, ...
}

// Result is a rendered post body.
type Result struct {
	HTML       template.HTML
	Headings   []models.Heading // Table of contents, anchors matching the rendered ids
	SectionIDs []string         // Ids of the h2/h3 elements present in HTML, in document order
}

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md   goldmark.Markdown
	opts Options
}

// New creates a renderer with GFM, footnotes, math delimiters, diagram blocks and
// heading anchors enabled.
func New(opts Options) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			mathjax.MathJax,
			&diagramExtension{},
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&anchorTransformer{unique: opts.UniqueAnchors}, 100),
			),
		),
	)
	return &Renderer{md: md, opts: opts}
}

// Render converts a post's raw markdown and collects its table of contents.
func (r *Renderer) Render(raw string) (*Result, error) {
	body, err := r.RenderHTML(raw)
	if err != nil {
		return nil, err
	}

	ids, err := SectionIDs(string(body))
	if err != nil {
		return nil, err
	}

	return &Result{
		HTML:       body,
		Headings:   r.Headings(raw),
		SectionIDs: ids,
	}, nil
}

// RenderHTML converts markdown to HTML without extracting headings.
func (r *Renderer) RenderHTML(raw string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(raw), &buf); err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrRender, err)
	}
	return template.HTML(buf.String()), nil
}

// Headings extracts the table of contents with the renderer's anchor policy.
func (r *Renderer) Headings(raw string) []models.Heading {
	headings := toc.ExtractHeadings(raw)
	if r.opts.UniqueAnchors {
		headings = toc.Disambiguate(headings)
	}
	return headings
}
