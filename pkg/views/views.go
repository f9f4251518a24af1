// Package views holds the site's HTML templates and static assets, embedded in the binary.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/folio-blog/folio/pkg/utils"
)

// Page template names.
const (
	PageBlog      = "blog"
	PagePost      = "post"
	PagePortfolio = "portfolio"
	PageAbout     = "about"
	PageNotFound  = "notfound"
)

var pageNames = []string{PageBlog, PagePost, PagePortfolio, PageAbout, PageNotFound}

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer executes page templates. Each page is parsed together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page template.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"tocClass": func(level int) string { return fmt.Sprintf("toc-h%d", level) },
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", utils.ErrTemplate, name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes page into w. Output is buffered so a failing template writes nothing.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("%w: unknown page %q", utils.ErrTemplate, page)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: executing %s: %w", utils.ErrTemplate, page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static returns the embedded asset tree, rooted so that "site.css" is at the top.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	return sub
}
