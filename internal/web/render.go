package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayush/megaqc-web/internal/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

var titles = map[string]string{
	"home":               "Home",
	"about":              "About",
	"login":              "Log in",
	"register":           "Register",
	"plot_choice":        "New plot",
	"report_plot_select": "Report plot",
	"report_plot":        "Report plot",
}

// Pages renders the embedded page templates.
type Pages struct {
	templates *template.Template
	flashes   *auth.FlashStore
	log       *slog.Logger
}

func NewPages(flashes *auth.FlashStore, log *slog.Logger) (*Pages, error) {
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pages{templates: tmpl, flashes: flashes, log: log}, nil
}

// Render executes the named template with the current user and pending
// flashes added to data.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Title"] = titles[name]
	data["CurrentUser"] = auth.UserFromContext(r.Context())
	data["Flashes"] = p.flashes.Peek(r)

	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		p.log.Error("template render failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	// Flashes are consumed only once the page has actually been produced.
	p.flashes.Pop(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
