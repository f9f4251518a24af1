package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-blog/folio/pkg/models"
)

const samplePost = `Intro paragraph.

## Getting Started

Some text with $E = mc^2$ inline.

### Install Steps

` + "```mermaid\ngraph TD\n  A --> B\n```" + `

` + "```go\nfunc main() {}\n```" + `

## Results

| model | score |
|-------|-------|
| base  | 1     |
`

func TestRender_HeadingAnchors(t *testing.T) {
	res, err := New(Options{}).Render(samplePost)
	require.NoError(t, err)

	html := string(res.HTML)
	assert.Contains(t, html, `<h2 id="getting-started">Getting Started</h2>`)
	assert.Contains(t, html, `<h3 id="install-steps">Install Steps</h3>`)
	assert.Contains(t, html, `<h2 id="results">Results</h2>`)
	assert.Equal(t, []string{"getting-started", "install-steps", "results"}, res.SectionIDs)
}

func TestRender_HeadingsMatchSectionIDs(t *testing.T) {
	res, err := New(Options{}).Render(samplePost)
	require.NoError(t, err)

	anchors := make([]string, len(res.Headings))
	for i, h := range res.Headings {
		anchors[i] = h.Anchor
	}
	assert.Equal(t, res.SectionIDs, anchors)
}

func TestRender_ClosingSequenceAndIndentMatchExtractor(t *testing.T) {
	res, err := New(Options{}).Render("## Intro ##\n\ntext\n\n  ## Indented\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"intro", "indented"}, res.SectionIDs)
	require.Len(t, res.Headings, 2)
	assert.Equal(t, "Intro", res.Headings[0].Text)
	assert.Equal(t, "intro", res.Headings[0].Anchor)
	assert.Equal(t, "indented", res.Headings[1].Anchor)
	assert.Len(t, Observable(res.Headings, res.SectionIDs), 2)
}

func TestRender_UniqueAnchorsAvoidNumberedHeadings(t *testing.T) {
	res, err := New(Options{UniqueAnchors: true}).Render("## A\n## A\n## A 1\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a-1", "a-1-1"}, res.SectionIDs)
	assert.Equal(t, res.SectionIDs, []string{res.Headings[0].Anchor, res.Headings[1].Anchor, res.Headings[2].Anchor})
}

func TestRender_OtherLevelsHaveNoID(t *testing.T) {
	res, err := New(Options{}).Render("# Title\n\n#### Deep\n")
	require.NoError(t, err)

	assert.Contains(t, string(res.HTML), "<h1>Title</h1>")
	assert.Contains(t, string(res.HTML), "<h4>Deep</h4>")
	assert.Empty(t, res.SectionIDs)
	assert.Empty(t, res.Headings)
}

func TestRender_Diagram(t *testing.T) {
	res, err := New(Options{}).Render(samplePost)
	require.NoError(t, err)

	html := string(res.HTML)
	assert.Contains(t, html, "<pre class=\"mermaid\">graph TD\n  A --&gt; B\n</pre>")
	assert.NotContains(t, html, `language-mermaid`)
	assert.Contains(t, html, `<code class="language-go">`, "other fences render as code")
}

func TestRender_TablesAndMath(t *testing.T) {
	res, err := New(Options{}).Render(samplePost)
	require.NoError(t, err)

	html := string(res.HTML)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "mc^2")
	assert.Contains(t, html, `class="math inline"`)
}

func TestRender_DuplicateHeadings(t *testing.T) {
	raw := "## Setup\ntext\n## Setup\n"

	t.Run("default keeps collisions", func(t *testing.T) {
		res, err := New(Options{}).Render(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"setup", "setup"}, res.SectionIDs)
		assert.Equal(t, "setup", res.Headings[1].Anchor)
	})

	t.Run("unique anchors", func(t *testing.T) {
		res, err := New(Options{UniqueAnchors: true}).Render(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"setup", "setup-1"}, res.SectionIDs)
		assert.Equal(t, "setup-1", res.Headings[1].Anchor)
	})
}

func TestRender_RawHTMLIsOmitted(t *testing.T) {
	res, err := New(Options{}).Render("<script>alert(1)</script>\n\ntext")
	require.NoError(t, err)
	assert.NotContains(t, string(res.HTML), "<script>")
}

func TestRender_Empty(t *testing.T) {
	res, err := New(Options{}).Render("")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(res.HTML)))
	assert.Empty(t, res.Headings)
	assert.Empty(t, res.SectionIDs)
}

func TestRender_Concurrent(t *testing.T) {
	r := New(Options{UniqueAnchors: true})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Render("## A\n## A\n")
			assert.NoError(t, err)
			assert.Equal(t, []string{"a", "a-1"}, res.SectionIDs)
		}()
	}
	wg.Wait()
}

func TestPlainText(t *testing.T) {
	got := PlainText("<h2 id=\"x\">Title</h2>\n<p>Some <em>styled</em>\n text.</p><script>x()</script>")
	assert.Equal(t, "Title Some styled text.", got)
}

func TestObservable(t *testing.T) {
	headings := []models.Heading{
		{Level: 2, Text: "A", Anchor: "a"},
		{Level: 2, Text: "B ##", Anchor: "b-##"},
		{Level: 3, Text: "C", Anchor: "c"},
	}

	got := Observable(headings, []string{"a", "b", "c"})

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Anchor)
	assert.Equal(t, "c", got[1].Anchor)
}
