// ABOUTME: Page renderer over embedded html/template files.
// ABOUTME: Each page is parsed with the shared layout and partials once, at startup.

package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

// Renderer renders named pages.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// RendererOptions describes where templates live.
type RendererOptions struct {
	FS fs.FS
	// Shared files parsed into every page, layout first.
	Shared []string
	// Pages maps a page name to its template file.
	Pages  map[string]string
	Funcs  template.FuncMap
	Logger *slog.Logger
}

// NewRenderer parses every page.
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	funcs := template.FuncMap{
		"lower": strings.ToLower,
		"inc":   func(n int) int { return n + 1 },
	}
	for k, v := range opts.Funcs {
		funcs[k] = v
	}

	pages := make(map[string]*template.Template, len(opts.Pages))
	for name, file := range opts.Pages {
		files := append(append([]string(nil), opts.Shared...), file)
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(opts.FS, files...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// MustRenderer is NewRenderer that panics on error, for embedded templates.
func MustRenderer(opts RendererOptions) *Renderer {
	r, err := NewRenderer(opts)
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the page's layout with data. Output is buffered so a
// template error never sends a half page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
