// Package api provides JSON handlers for the theme state and chart configs.
package api

import (
	"net/http"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/threatdash/app/chart"
	"github.com/umputun/threatdash/app/enum"
	"github.com/umputun/threatdash/app/server/internal"
	"github.com/umputun/threatdash/app/store"
	"github.com/umputun/threatdash/app/theme"
)

// Config holds api handler configuration.
type Config struct {
	CookiePath   string
	PrefsBackend enum.PrefsBackend
	PrefStore    store.PrefStore // used with db prefs backend
	Events       *theme.Bus      // receives theme change notifications, optional
}

// Handler handles API requests for /api/v1/* endpoints.
type Handler struct {
	prefs  internal.PrefsResolver
	events *theme.Bus
}

// themeResponse is the json view of the theme state.
type themeResponse struct {
	Theme string `json:"theme"`
	Label string `json:"label"`
	Glyph string `json:"glyph"`
	Class string `json:"class"`
}

// New creates a new API handler.
func New(cfg Config) *Handler {
	events := cfg.Events
	if events == nil {
		events = theme.NewBus()
	}
	return &Handler{
		prefs:  internal.PrefsResolver{Backend: cfg.PrefsBackend, Store: cfg.PrefStore, CookiePath: cfg.CookiePath},
		events: events,
	}
}

// Register registers API routes on the given router.
func (h *Handler) Register(r *routegroup.Bundle) {
	r.HandleFunc("GET /theme", h.handleGetTheme)
	r.HandleFunc("POST /theme", h.handleToggleTheme)
	r.HandleFunc("GET /charts", h.handleCharts)
	r.HandleFunc("GET /charts/{id}", h.handleChart)
}

// handleGetTheme returns the current theme state.
// GET /api/v1/theme
func (h *Handler) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	view := &theme.View{}
	ctrl := theme.New(h.prefs.For(w, r), view, nil)
	ctrl.Initialize(r.Context(), view)
	rest.RenderJSON(w, toResponse(view))
}

// handleToggleTheme toggles the theme and returns the new state.
// POST /api/v1/theme
func (h *Handler) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	view := &theme.View{}
	ctrl := theme.New(h.prefs.For(w, r), view, theme.NewBus(h.events.Publish))
	ctrl.Initialize(r.Context(), view)
	st := ctrl.Toggle(r.Context())
	log.Printf("[DEBUG] api theme toggle, now %s", st.Theme)
	rest.RenderJSON(w, toResponse(view))
}

// handleCharts returns the fixed chart configs keyed by container id.
// GET /api/v1/charts
func (h *Handler) handleCharts(w http.ResponseWriter, _ *http.Request) {
	rest.RenderJSON(w, chart.ByID())
}

// handleChart returns a single chart config.
// GET /api/v1/charts/{id}
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	widget, ok := chart.ByID()[id]
	if !ok {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusNotFound, nil, "chart not found: "+id)
		return
	}
	rest.RenderJSON(w, widget)
}

func toResponse(v *theme.View) themeResponse {
	return themeResponse{Theme: v.Theme(), Label: v.Label.Text, Glyph: v.Label.Glyph, Class: v.BodyClass()}
}
