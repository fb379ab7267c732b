package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index", "login", "register", "users", "user", "categories", "error"}

// PageData is the context every page is rendered with.
type PageData struct {
	CurrentPath string
	User        *models.Identity
	Errors      []string
	Success     string
	Data        any
}

type errorPage struct {
	Status  int
	Message string
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page name to w.
func (r *Renderer) Render(w io.Writer, name string, data PageData) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any, errs ...string) {
	page := PageData{
		CurrentPath: r.URL.Path,
		User:        IdentityFromContext(r.Context()),
		Errors:      errs,
		Data:        data,
	}
	if f, ok := h.popFlash(w, r); ok {
		if f.Kind == flashError {
			page.Errors = append(page.Errors, f.Message)
		} else {
			page.Success = f.Message
		}
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, name, page); err != nil {
		h.log.Error(r.Context(), "render failed", "page", name, "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := mapError(err)
	h.logOperationError(r, "page", status, code, err)
	h.render(w, r, status, "error", errorPage{Status: status, Message: msg})
}
