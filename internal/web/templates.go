// Package web provides the HTTP server and templates for the jat dashboard.
package web

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/jpatrickfarrell/jat/internal/mail"
	"github.com/jpatrickfarrell/jat/internal/timeline"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardData is the data passed to the dashboard template.
type DashboardData struct {
	Sessions    []SessionRow
	Feed        []timeline.Event
	FeedCounts  timeline.Counts
	Mail        []mail.Message
	GeneratedAt time.Time
}

// templateSet wraps the parsed dashboard templates.
type templateSet struct {
	tmpl *template.Template
}

// templateFuncs are helpers available inside the templates.
var templateFuncs = template.FuncMap{
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("15:04:05")
	},
}

// LoadTemplates parses the embedded dashboard templates.
func LoadTemplates() (*templateSet, error) {
	tmpl, err := template.New("dashboard").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &templateSet{tmpl: tmpl}, nil
}

// Render writes the dashboard page.
func (s *templateSet) Render(w io.Writer, data DashboardData) error {
	return s.tmpl.ExecuteTemplate(w, "dashboard.html", data)
}
