package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/Masterminds/sprig/v3"

	"github.com/daap14/secrets/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every template receives.
type Page struct {
	Title     string
	Principal *session.Principal
	Notice    string
	Errors    []string
	Username  string
	Secret    string
	Secrets   []string
	Google    bool
}

// Renderer executes the embedded page templates.
type Renderer struct {
	templates *template.Template
	google    bool
}

// New parses the embedded templates. google controls whether pages offer
// the "Sign in with Google" button.
func New(google bool) (*Renderer, error) {
	t, err := template.New("pages").Funcs(sprig.FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{templates: t, google: google}, nil
}

// Static returns the embedded static assets rooted at their directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Render writes the named page with status. The page is fully executed
// before anything is written, so a template error still yields a clean 500.
func (v *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	page.Google = v.google

	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, page); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write response", "template", name, "error", err)
	}
}

// Error writes the generic error page.
func (v *Renderer) Error(w http.ResponseWriter, status int, message string) {
	v.Render(w, status, "error", Page{
		Title:  http.StatusText(status),
		Notice: message,
	})
}
