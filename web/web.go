// Package web renders the HTML pages and serves the browser assets.
//
// Every page is the shared layout plus exactly one view section; each view
// template defines "content" and is parsed into its own clone of the layout.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg/i18n"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is everything a template sees.
type Page struct {
	View    models.View
	Nav     []models.NavItem
	Session models.Session
	Loc     *i18n.Localizer
	Notice  string
	Error   string
	Data    any
}

// RecommendPage is the Data of the recommend view.
type RecommendPage struct {
	Crops    []string
	Selected string
}

// AccountPage is the Data of the account view. Profile is nil while logged
// out, in which case Mode picks the form.
type AccountPage struct {
	Profile *models.AccountProfile
	Mode    models.AuthMode
}

// Renderer executes the page templates.
type Renderer struct {
	pages map[models.View]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"ago": func(t time.Time) string {
			return humanize.Time(t)
		},
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"number": func(f float64) string {
			return humanize.FtoaWithDigits(f, 1)
		},
	}

	base, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[models.View]*template.Template, len(models.AllViews()))}
	for _, view := range models.AllViews() {
		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout: %w", err)
		}
		if _, err := page.ParseFS(templateFS, "templates/views/"+string(view)+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse view %s: %w", view, err)
		}
		r.pages[view] = page
	}
	return r, nil
}

// Render writes p. Output is buffered so a template error never produces a
// half-written page.
func (r *Renderer) Render(w io.Writer, p *Page) error {
	tmpl, ok := r.pages[p.View]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownView, p.View)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", p); err != nil {
		return fmt.Errorf("failed to render %s: %w", p.View, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded assets. Mount it under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
