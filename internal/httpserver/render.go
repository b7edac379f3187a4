package httpserver

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/inventory/internal/web"
)

const (
	chartLeft   = 20
	chartStep   = 60
	chartBase   = 230
	chartHeight = 200
)

var funcs = template.FuncMap{
	"money":      func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"chartWidth": func(n int) int { return chartLeft*2 + n*chartStep },
	"barX":       func(i int) int { return chartLeft + i*chartStep },
	"barHeight":  func(p float64) float64 { return p * chartHeight / 100 },
	"barY":       func(p float64) float64 { return chartBase - p*chartHeight/100 },
	"sub":        func(a, b float64) float64 { return a - b },
}

// Renderer executes one template set per page, each wrapped in the layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: map[string]*template.Template{}}
	for _, f := range files {
		base := path.Base(f)
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(web.Templates, "templates/layout.html", f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		r.pages[strings.TrimSuffix(base, ".html")] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
