// Package web provides HTTP handlers for the dashboard UI.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/routegroup"

	"github.com/umputun/threatdash/app/chart"
	"github.com/umputun/threatdash/app/enum"
	"github.com/umputun/threatdash/app/server/internal"
	"github.com/umputun/threatdash/app/store"
	"github.com/umputun/threatdash/app/theme"
)

//go:generate moq -out mocks/threatstore.go -pkg mocks -skip-ensure -fmt goimports . ThreatStore

//go:embed static
var staticFS embed.FS

//go:embed templates
var templatesFS embed.FS

// StaticFS returns the embedded static filesystem for external use.
func StaticFS() (fs.FS, error) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static sub-filesystem: %w", err)
	}
	return sub, nil
}

// ThreatStore defines the interface for reading threat records.
type ThreatStore interface {
	SearchThreats(ctx context.Context, f store.ThreatFilter) ([]store.Threat, error)
}

// Config holds web handler configuration.
type Config struct {
	BaseURL      string
	PrefsBackend enum.PrefsBackend
	PrefStore    store.PrefStore // used with db prefs backend
	ThreatsLimit int             // rows on threats page and in export, 0 means 10
	Events       *theme.Bus      // receives theme change notifications, optional
}

// Handler handles web UI requests.
type Handler struct {
	threats      ThreatStore
	prefs        internal.PrefsResolver
	events       *theme.Bus
	pages        map[string]*template.Template
	baseURL      string
	threatsLimit int
}

// New creates a new web handler.
func New(threats ThreatStore, cfg Config) (*Handler, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	events := cfg.Events
	if events == nil {
		events = theme.NewBus()
	}
	limit := cfg.ThreatsLimit
	if limit <= 0 {
		limit = 10
	}

	h := &Handler{
		threats:      threats,
		events:       events,
		pages:        pages,
		baseURL:      cfg.BaseURL,
		threatsLimit: limit,
	}
	h.prefs = internal.PrefsResolver{Backend: cfg.PrefsBackend, Store: cfg.PrefStore, CookiePath: h.cookiePath()}
	return h, nil
}

// Register registers web UI routes on the given router.
func (h *Handler) Register(r *routegroup.Bundle) {
	r.HandleFunc("GET /{$}", h.handleIndex)
	r.HandleFunc("GET /threats", h.handleThreats)
	r.HandleFunc("GET /export-csv", h.handleExportCSV)
	r.HandleFunc("POST /web/theme", h.handleThemeToggle)
}

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
	}
}

// parseTemplates parses the base layout and partials once, then clones them for every page,
// so each page gets its own "content" block.
func parseTemplates() (map[string]*template.Template, error) {
	root := template.New("").Funcs(templateFuncs())

	baseContent, err := templatesFS.ReadFile("templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("read base.html: %w", err)
	}
	if _, err = root.New("base.html").Parse(string(baseContent)); err != nil {
		return nil, fmt.Errorf("parse base.html: %w", err)
	}

	partials := []string{"theme-toggle"}
	for _, name := range partials {
		content, readErr := templatesFS.ReadFile("templates/partials/" + name + ".html")
		if readErr != nil {
			return nil, fmt.Errorf("read partial %s: %w", name, readErr)
		}
		if _, parseErr := root.New(name).Parse(string(content)); parseErr != nil {
			return nil, fmt.Errorf("parse partial %s: %w", name, parseErr)
		}
	}

	pages := map[string]*template.Template{}
	for _, name := range []string{"index.html", "threats.html"} {
		content, readErr := templatesFS.ReadFile("templates/" + name)
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", name, readErr)
		}
		page, cloneErr := root.Clone()
		if cloneErr != nil {
			return nil, fmt.Errorf("clone for %s: %w", name, cloneErr)
		}
		if _, parseErr := page.New(name).Parse(string(content)); parseErr != nil {
			return nil, fmt.Errorf("parse %s: %w", name, parseErr)
		}
		pages[name] = page
	}
	// partial-only set for htmx responses
	pages["theme-toggle"] = root
	return pages, nil
}

// chartView is a chart widget ready for the page script.
type chartView struct {
	ID     string
	Title  string
	Config template.JS
}

// templateData holds data passed to templates.
type templateData struct {
	BaseURL   string
	Page      string
	BodyClass string
	Theme     string // persisted form, "light" or "dark"
	Label     theme.Label
	ControlID string
	Charts    []chartView
	Threats   []store.Threat
	Filter    filterView
}

// filterView is the threats filter as entered in the form.
type filterView struct {
	Keyword, Source, Type, From, To string
	Query                           string // encoded query for the export link, with leading "?"
}

// pageTheme runs the theme controller initialization for a page render and
// fills the theme part of template data.
func (h *Handler) pageTheme(w http.ResponseWriter, r *http.Request) templateData {
	view := &theme.View{}
	ctrl := theme.New(h.prefs.For(w, r), view, nil)
	ctrl.Initialize(r.Context(), view)
	return h.themeData(view)
}

func (h *Handler) themeData(view *theme.View) templateData {
	return templateData{
		BaseURL:   h.baseURL,
		BodyClass: view.BodyClass(),
		Theme:     view.Theme(),
		Label:     view.Label,
		ControlID: theme.ControlID,
	}
}

// chartViews converts fixed chart widgets to template views.
func chartViews() ([]chartView, error) {
	titles := map[string]string{
		chart.TypeChartID:      "Threat Types",
		chart.AnalyticsChartID: "Analytics",
		chart.TrendChartID:     "Threats Per Day",
	}
	widgets := chart.Widgets()
	res := make([]chartView, 0, len(widgets))
	for _, w := range widgets {
		cfg, err := w.Config()
		if err != nil {
			return nil, err //nolint:wrapcheck // already wrapped with chart id
		}
		res = append(res, chartView{ID: w.ID, Title: titles[w.ID], Config: template.JS(cfg)}) //nolint:gosec // config is marshaled from literal data
	}
	return res, nil
}

// threatFilter reads the threats filter from query parameters q, source, type, from and to.
// Dates are YYYY-MM-DD.
func (h *Handler) threatFilter(r *http.Request) (store.ThreatFilter, filterView, error) {
	q := r.URL.Query()
	fv := filterView{
		Keyword: strings.TrimSpace(q.Get("q")),
		Source:  strings.TrimSpace(q.Get("source")),
		Type:    strings.TrimSpace(q.Get("type")),
		From:    strings.TrimSpace(q.Get("from")),
		To:      strings.TrimSpace(q.Get("to")),
	}
	f := store.ThreatFilter{Keyword: fv.Keyword, Source: fv.Source, Type: fv.Type, Limit: h.threatsLimit}

	var err error
	if fv.From != "" {
		if f.From, err = time.Parse(time.DateOnly, fv.From); err != nil {
			return f, fv, fmt.Errorf("invalid from date %q: %w", fv.From, err)
		}
	}
	if fv.To != "" {
		if f.To, err = time.Parse(time.DateOnly, fv.To); err != nil {
			return f, fv, fmt.Errorf("invalid to date %q: %w", fv.To, err)
		}
	}

	vals := url.Values{}
	for k, v := range map[string]string{"q": fv.Keyword, "source": fv.Source, "type": fv.Type, "from": fv.From, "to": fv.To} {
		if v != "" {
			vals.Set(k, v)
		}
	}
	if len(vals) > 0 {
		fv.Query = "?" + vals.Encode()
	}
	return f, fv, nil
}

// url returns a URL path with the base URL prefix.
func (h *Handler) url(path string) string {
	return h.baseURL + path
}

// cookiePath returns the path for cookies (base URL with trailing slash or "/").
func (h *Handler) cookiePath() string {
	if h.baseURL == "" {
		return "/"
	}
	return h.baseURL + "/"
}
