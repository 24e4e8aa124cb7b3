// Package templates renders the server-side HTML pages.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/kozaktomas/facerecognx/internal/web/middleware"
)

//go:embed layout.html pages/*.html
var files embed.FS

// Page is the data every page template receives.
type Page struct {
	Title   string
	User    *middleware.Session
	Flashes []middleware.Flash
	Data    any
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"flashClass": func(category string) string {
		switch category {
		case "success":
			return "flash-success"
		case "danger":
			return "flash-danger"
		default:
			return "flash-info"
		}
	},
}

// New parses the embedded layout and pages.
func New() (*Renderer, error) {
	names, err := fs.Glob(files, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, p := range names {
		name := strings.TrimSuffix(path.Base(p), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "layout.html", p)
		if err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Has reports whether a page with name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes the named page inside the layout.
// Output is buffered so a failing template never writes a partial page.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("rendering page %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
