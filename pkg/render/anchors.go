package render

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/folio-blog/folio/pkg/toc"
)

// anchorTransformer gives level-2 and level-3 headings an id computed from their raw
// source text, the same text the table-of-contents extractor reads.
type anchorTransformer struct {
	unique bool
}

// Transform implements parser.ASTTransformer.
func (t *anchorTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	seq := toc.NewSequence(t.unique)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || (heading.Level != 2 && heading.Level != 3) {
			return ast.WalkContinue, nil
		}
		raw := rawLines(heading, source)
		if len(bytes.TrimSpace(raw)) == 0 {
			return ast.WalkSkipChildren, nil
		}
		heading.SetAttributeString("id", []byte(seq.Next(string(raw))))
		return ast.WalkSkipChildren, nil
	})
}

// rawLines concatenates the source segments of a block node.
func rawLines(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}
