package web

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/threatdash/app/enum"
	"github.com/umputun/threatdash/app/server/internal"
	"github.com/umputun/threatdash/app/server/web/mocks"
	"github.com/umputun/threatdash/app/store"
	"github.com/umputun/threatdash/app/theme"
)

func TestHandler_HandleIndex(t *testing.T) {
	h := newTestHandler(t)

	t.Run("default light", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		rec := httptest.NewRecorder()
		h.handleIndex(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<body class="">`)
		assert.Contains(t, body, `id="darkModeToggle"`)
		assert.Contains(t, body, "fa-moon")
		assert.Contains(t, body, "Dark Mode")
		for _, id := range []string{"typeChart", "analyticsChart", "trendChart"} {
			assert.Contains(t, body, `<canvas id="`+id+`">`)
		}
		assert.Contains(t, body, `"Threats Per Day"`)
		assert.Empty(t, rec.Result().Cookies(), "page render never writes the preference")
	})

	t.Run("persisted dark", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
		rec := httptest.NewRecorder()
		h.handleIndex(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<body class="dark-mode">`)
		assert.Equal(t, "dark", dataTheme(t, body))
		assert.Contains(t, body, "fa-sun")
		assert.Contains(t, body, "Light Mode")
	})

	t.Run("unrecognized value is light", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.AddCookie(&http.Cookie{Name: "theme", Value: "solarized"})
		rec := httptest.NewRecorder()
		h.handleIndex(rec, req)

		assert.Contains(t, rec.Body.String(), `<body class="">`)
		assert.Contains(t, rec.Body.String(), "Dark Mode")
	})
}

func TestHandler_HandleThreats(t *testing.T) {
	detected := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	t.Run("renders rows", func(t *testing.T) {
		st := &mocks.ThreatStoreMock{
			SearchThreatsFunc: func(_ context.Context, _ store.ThreatFilter) ([]store.Threat, error) {
				return []store.Threat{{ID: 7, Source: "openphish", Type: "Phishing", Keyword: "bank",
					Domain: "bank-login.example.com", DateDetected: detected}}, nil
			},
		}
		h := newTestHandlerWithStore(t, st)

		req := httptest.NewRequest(http.MethodGet, "/threats", http.NoBody)
		rec := httptest.NewRecorder()
		h.handleThreats(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "bank-login.example.com")
		assert.Contains(t, body, "2025-03-01 10:30")
		assert.Contains(t, body, `id="darkModeToggle"`)
		require.Len(t, st.SearchThreatsCalls(), 1)
		assert.Equal(t, store.ThreatFilter{Limit: 10}, st.SearchThreatsCalls()[0].F)
	})

	t.Run("empty", func(t *testing.T) {
		h := newTestHandler(t)
		rec := httptest.NewRecorder()
		h.handleThreats(rec, httptest.NewRequest(http.MethodGet, "/threats", http.NoBody))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No threats recorded yet")
	})

	t.Run("store error", func(t *testing.T) {
		h := newTestHandlerWithStore(t, &mocks.ThreatStoreMock{
			SearchThreatsFunc: func(context.Context, store.ThreatFilter) ([]store.Threat, error) { return nil, assert.AnError },
		})
		rec := httptest.NewRecorder()
		h.handleThreats(rec, httptest.NewRequest(http.MethodGet, "/threats", http.NoBody))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandler_HandleThreats_Filter(t *testing.T) {
	st := &mocks.ThreatStoreMock{
		SearchThreatsFunc: func(context.Context, store.ThreatFilter) ([]store.Threat, error) { return nil, nil },
	}
	h := newTestHandlerWithStore(t, st)

	t.Run("query params", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/threats?q=+bank+&source=openphish&type=Phishing&from=2025-03-01&to=2025-03-02", http.NoBody)
		rec := httptest.NewRecorder()
		h.handleThreats(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		calls := st.SearchThreatsCalls()
		require.NotEmpty(t, calls)
		assert.Equal(t, store.ThreatFilter{Keyword: "bank", Source: "openphish", Type: "Phishing",
			From: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			Limit: 10}, calls[len(calls)-1].F)

		body := rec.Body.String()
		assert.Contains(t, body, `value="bank"`)
		assert.Contains(t, body, `value="2025-03-01"`)
		assert.Contains(t, body, `/export-csv?from=2025-03-01&amp;q=bank&amp;source=openphish&amp;to=2025-03-02&amp;type=Phishing`)
	})

	t.Run("bad date", func(t *testing.T) {
		before := len(st.SearchThreatsCalls())
		rec := httptest.NewRecorder()
		h.handleThreats(rec, httptest.NewRequest(http.MethodGet, "/threats?from=yesterday", http.NoBody))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = httptest.NewRecorder()
		h.handleExportCSV(rec, httptest.NewRequest(http.MethodGet, "/export-csv?to=03/02/2025", http.NoBody))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, st.SearchThreatsCalls(), before, "store not queried")
	})

	t.Run("export uses filter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handleExportCSV(rec, httptest.NewRequest(http.MethodGet, "/export-csv?source=pastebin", http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
		calls := st.SearchThreatsCalls()
		assert.Equal(t, "pastebin", calls[len(calls)-1].F.Source)
	})
}

func TestHandler_HandleExportCSV(t *testing.T) {
	detected := time.Date(2025, 3, 1, 10, 30, 15, 0, time.UTC)
	st := &mocks.ThreatStoreMock{
		SearchThreatsFunc: func(context.Context, store.ThreatFilter) ([]store.Threat, error) {
			return []store.Threat{
				{ID: 2, Source: "feed", Type: "Malware", Keyword: "invoice, urgent", Domain: "a.example.com", DateDetected: detected},
				{ID: 1, Source: "feed", Type: "Fraud", Keyword: "gift", Domain: "b.example.com", DateDetected: detected.Add(-time.Hour)},
			}, nil
		},
	}
	h := newTestHandlerWithStore(t, st)

	rec := httptest.NewRecorder()
	h.handleExportCSV(rec, httptest.NewRequest(http.MethodGet, "/export-csv", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment;filename=threats_export.csv", rec.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Source", "Type", "Keyword", "Domain", "Date Detected"}, rows[0])
	assert.Equal(t, []string{"2", "feed", "Malware", "invoice, urgent", "a.example.com", "2025-03-01 10:30:15"}, rows[1])
	assert.Equal(t, "1", rows[2][0])

	t.Run("store error", func(t *testing.T) {
		h := newTestHandlerWithStore(t, &mocks.ThreatStoreMock{
			SearchThreatsFunc: func(context.Context, store.ThreatFilter) ([]store.Threat, error) { return nil, assert.AnError },
		})
		rec := httptest.NewRecorder()
		h.handleExportCSV(rec, httptest.NewRequest(http.MethodGet, "/export-csv", http.NoBody))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandler_HandleThemeToggle(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name      string
		current   string
		expected  string
		wantLabel string
	}{
		{"no theme to dark", "", "dark", "Light Mode"},
		{"light to dark", "light", "dark", "Light Mode"},
		{"dark to light", "dark", "light", "Dark Mode"},
		{"invalid to dark", "bogus", "dark", "Light Mode"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
			req.Header.Set("HX-Request", "true")
			if tc.current != "" {
				req.AddCookie(&http.Cookie{Name: "theme", Value: tc.current})
			}
			rec := httptest.NewRecorder()
			h.handleThemeToggle(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "themeChange", rec.Header().Get("HX-Trigger-After-Settle"))
			assert.Contains(t, rec.Body.String(), tc.wantLabel)
			assert.NotContains(t, rec.Body.String(), "<form", "only the button is swapped")
			assert.Contains(t, rec.Body.String(), `id="darkModeToggle"`)

			themeCookie := findCookie(rec, "theme")
			require.NotNil(t, themeCookie)
			assert.Equal(t, tc.expected, themeCookie.Value)
			assert.Equal(t, "/", themeCookie.Path)
			assert.Equal(t, tc.expected, dataTheme(t, rec.Body.String()), "button carries the saved theme")
		})
	}
}

func TestHandler_HandleThemeToggle_TwiceRestores(t *testing.T) {
	h := newTestHandler(t)

	cookie := &http.Cookie{Name: "theme", Value: "dark"}
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
		req.Header.Set("HX-Request", "true")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.handleThemeToggle(rec, req)
		cookie = findCookie(rec, "theme")
		require.NotNil(t, cookie)
	}
	assert.Equal(t, "dark", cookie.Value)
}

func TestHandler_HandleThemeToggle_StalePage(t *testing.T) {
	h := newTestHandler(t)

	// page rendered light, then another tab saved dark
	rec := httptest.NewRecorder()
	h.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	require.Equal(t, "light", dataTheme(t, rec.Body.String()))
	bodyDark := strings.Contains(rec.Body.String(), `<body class="dark-mode">`)
	require.False(t, bodyDark)

	req := httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
	req.Header.Set("HX-Request", "true")
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	rec = httptest.NewRecorder()
	h.handleThemeToggle(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	persisted := findCookie(rec, "theme")
	require.NotNil(t, persisted)
	assert.Equal(t, "light", persisted.Value)

	// the page script sets the body class from data-theme, so a flip of the stale body is never used
	bodyDark = dataTheme(t, rec.Body.String()) == "dark"
	assert.Equal(t, persisted.Value == "dark", bodyDark, "body class follows the saved theme")
	assert.Contains(t, rec.Body.String(), "Dark Mode", "label agrees with the saved theme")
}

func TestHandler_HandleThemeToggle_PlainPost(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
	req.Header.Set("Referer", "http://localhost/threats")
	rec := httptest.NewRecorder()
	h.handleThemeToggle(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/threats", rec.Header().Get("Location"))
	assert.Empty(t, rec.Header().Get("HX-Trigger-After-Settle"))
	c := findCookie(rec, "theme")
	require.NotNil(t, c)
	assert.Equal(t, "dark", c.Value)
}

func TestHandler_HandleThemeToggle_NotifiesListenersOnce(t *testing.T) {
	var events []string
	bus := theme.NewBus(func(e string) { events = append(events, e) })
	h, err := New(&mocks.ThreatStoreMock{}, Config{Events: bus})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.handleThemeToggle(rec, req)

	assert.Equal(t, []string{"themeChange"}, events)
	assert.Equal(t, []string{"themeChange"}, rec.Header().Values("HX-Trigger-After-Settle"))
}

func TestHandler_HandleThemeToggle_DBBackend(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	h, err := New(st, Config{PrefsBackend: enum.PrefsBackendDB, PrefStore: st, BaseURL: "/dash"})
	require.NoError(t, err)

	// first toggle issues a client id and stores dark
	req := httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.handleThemeToggle(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	idCookie := findCookie(rec, internal.ClientIDCookie)
	require.NotNil(t, idCookie)
	assert.Equal(t, "/dash/", idCookie.Path)
	assert.Nil(t, findCookie(rec, "theme"), "db backend keeps the preference server side")

	v, err := st.GetPref(context.Background(), idCookie.Value, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	// page render with the same client id is dark
	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.AddCookie(idCookie)
	rec = httptest.NewRecorder()
	h.handleIndex(rec, req)
	assert.Contains(t, rec.Body.String(), `<body class="dark-mode">`)
	assert.Contains(t, rec.Body.String(), "Light Mode")
}

var dataThemeRe = regexp.MustCompile(`data-theme="([a-z]*)"`)

// dataTheme returns the data-theme attribute of the rendered toggle.
func dataTheme(t *testing.T, body string) string {
	t.Helper()
	m := dataThemeRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "no data-theme in %q", body)
	return m[1]
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
