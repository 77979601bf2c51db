// Package handler holds the HTTP request handlers.
//
// Handlers resolve path parameters and form fields, call the services, and
// hand a named view context to a Renderer. The context keys each page gets
// are listed on its handler method.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sakif/reelhub/internal/apperror"
)

// Renderer turns a named view and its context into a response.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data map[string]any) error
}

// TemplateRenderer renders html/template pages. Every page file is parsed
// together with layout.html so it can fill the layout's "content" block.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

var funcMap = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"derefInt64": func(p *int64) int64 {
		if p == nil {
			return 0
		}
		return *p
	},
	"fieldError": func(errs []*apperror.AppError, field string) string {
		for _, e := range errs {
			if e.Field == field {
				return e.Message
			}
		}
		return ""
	},
	"eq64": func(a, b int64) bool { return a == b },
}

// NewTemplateRenderer parses layout.html plus every other *.html file in
// fsys. Page names are the file names without the extension.
func NewTemplateRenderer(fsys fs.FS) (*TemplateRenderer, error) {
	layout, err := template.New("layout.html").Funcs(funcMap).ParseFS(fsys, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == "layout.html" {
			continue
		}
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", file, err)
		}
		t, err := clone.ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}

	return &TemplateRenderer{pages: pages}, nil
}

// Render executes the page into a buffer first, so a template error leaves
// the response untouched and the caller can still send a 500.
func (t *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data map[string]any) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("executing %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
