package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DiagramLanguage is the fence info string routed to the diagram renderer.
const DiagramLanguage = "mermaid"

// KindDiagram is the node kind of a diagram block.
var KindDiagram = ast.NewNodeKind("Diagram")

// Diagram is a fenced block whose body is diagram source, drawn client-side.
type Diagram struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *Diagram) Kind() ast.NodeKind { return KindDiagram }

// IsRaw implements ast.Node.
func (n *Diagram) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// diagramTransformer swaps mermaid fenced code blocks for Diagram nodes.
type diagramTransformer struct{}

// Transform implements parser.ASTTransformer.
func (t *diagramTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			if bytes.Equal(fcb.Language(source), []byte(DiagramLanguage)) {
				blocks = append(blocks, fcb)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	// Replace after the walk so the tree is not mutated while being traversed.
	for _, fcb := range blocks {
		d := &Diagram{}
		d.SetLines(fcb.Lines())
		parent := fcb.Parent()
		parent.ReplaceChild(parent, fcb, d)
	}
}

// diagramRenderer writes Diagram nodes as <pre class="mermaid">.
type diagramRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *diagramRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, r.renderDiagram)
}

func (r *diagramRenderer) renderDiagram(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<pre class="mermaid">`)
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	_, _ = w.WriteString("</pre>\n")
	return ast.WalkSkipChildren, nil
}

// diagramExtension wires the transformer and renderer into a goldmark instance.
type diagramExtension struct{}

// Extend implements goldmark.Extender.
func (e *diagramExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&diagramTransformer{}, 200),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&diagramRenderer{}, 100),
	))
}
