package web

import (
	"encoding/csv"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/threatdash/app/theme"
)

// handleIndex renders the dashboard page with the fixed charts.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	charts, err := chartViews()
	if err != nil {
		log.Printf("[ERROR] failed to build charts: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := h.pageTheme(w, r)
	data.Page = "dashboard"
	data.Charts = charts

	if err := h.pages["index.html"].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("[ERROR] failed to execute template: %v", err)
	}
}

// handleThreats renders the latest threats table, optionally filtered.
func (h *Handler) handleThreats(w http.ResponseWriter, r *http.Request) {
	filter, fv, err := h.threatFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	threats, err := h.threats.SearchThreats(r.Context(), filter)
	if err != nil {
		log.Printf("[ERROR] failed to list threats: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] /threats accessed from %s, %d rows", r.RemoteAddr, len(threats))

	data := h.pageTheme(w, r)
	data.Page = "threats"
	data.Threats = threats
	data.Filter = fv

	if err := h.pages["threats.html"].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("[ERROR] failed to execute template: %v", err)
	}
}

// handleExportCSV sends the latest threats as a CSV attachment, with the same filter as the threats page.
func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, _, err := h.threatFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	threats, err := h.threats.SearchThreats(r.Context(), filter)
	if err != nil {
		log.Printf("[ERROR] failed to list threats for export: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename=threats_export.csv")

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ID", "Source", "Type", "Keyword", "Domain", "Date Detected"})
	for _, t := range threats {
		_ = cw.Write([]string{
			strconv.FormatInt(t.ID, 10), t.Source, t.Type, t.Keyword, t.Domain,
			t.DateDetected.Format("2006-01-02 15:04:05"),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("[WARN] failed to write csv export: %v", err)
	}
}

// handleThemeToggle toggles the theme between light and dark.
// htmx requests get the toggle re-rendered from the saved theme and a themeChange trigger,
// plain form posts are redirected back.
func (h *Handler) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	isHTMX := r.Header.Get("HX-Request") == "true"

	bus := theme.NewBus(h.events.Publish)
	if isHTMX {
		// dispatched by htmx on the toggle once the new one is settled, bubbles to the page scope
		bus.Subscribe(func(event string) { w.Header().Set("HX-Trigger-After-Settle", event) })
	}

	view := &theme.View{}
	ctrl := theme.New(h.prefs.For(w, r), view, bus)
	ctrl.Initialize(r.Context(), view)
	ctrl.Toggle(r.Context())

	if !isHTMX {
		http.Redirect(w, r, h.backTarget(r), http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages["theme-toggle"].ExecuteTemplate(w, "theme-toggle-button", h.themeData(view)); err != nil {
		log.Printf("[ERROR] failed to execute template: %v", err)
	}
}

// backTarget returns the local path of the referring page, or the dashboard.
// Only the path is used and it must be under the base URL.
func (h *Handler) backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, h.url("/")) {
		return h.url("/")
	}
	return ref.Path
}
