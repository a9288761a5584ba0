package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/domain/auth/repository"
	"github.com/tallyhq/tally/pkg/money"
)

// page carries the fields every rendered view needs. Page-specific data
// structs embed it so templates can reach both sets of fields directly.
type page struct {
	Title   string
	User    *repository.User
	Flashes []Flash
	Path    string
}

// parseTemplates builds one template set per page, each combined with the
// shared layout and partials so "content" blocks do not collide.
func parseTemplates(currency string) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"money": func(cents int64) string {
			return money.FormatCents(cents, currency)
		},
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"hasPrefix": strings.HasPrefix,
	}

	pages, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob page templates: %w", err)
	}

	cache := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		name := filepath.Base(p)
		ts, err := template.New(name).Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/partials/*.html",
			p,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		cache[name] = ts
	}
	return cache, nil
}

// render writes the named page template to the response. The template is
// executed into a buffer first so a rendering failure becomes a 500 instead
// of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	ts, ok := s.templates[name]
	if !ok {
		s.serverError(w, r, fmt.Errorf("template %s not found", name))
		return
	}

	var buf bytes.Buffer
	if err := ts.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.serverError(w, r, fmt.Errorf("failed to render %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderPartial executes a named partial on its own, for htmx responses.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, pageName, block string, data any) {
	ts, ok := s.templates[pageName]
	if !ok {
		s.serverError(w, r, fmt.Errorf("template %s not found", pageName))
		return
	}

	var buf bytes.Buffer
	if err := ts.ExecuteTemplate(&buf, block, data); err != nil {
		s.serverError(w, r, fmt.Errorf("failed to render %s/%s: %w", pageName, block, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("handler error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
}

// page builds the shared view fields from the request context.
func (s *Server) page(r *http.Request, w http.ResponseWriter, title string) page {
	return page{
		Title:   title,
		User:    userFrom(r.Context()),
		Flashes: s.popFlashes(w, r),
		Path:    r.URL.Path,
	}
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
