// Package internal provides shared utilities for server subpackages.
package internal

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/umputun/threatdash/app/enum"
	"github.com/umputun/threatdash/app/store"
	"github.com/umputun/threatdash/app/theme"
)

// ClientIDCookie holds the random id scoping db-backed preferences to a browser.
const ClientIDCookie = "client_id"

const cookieMaxAge = 365 * 24 * 60 * 60 // 1 year

// PrefsResolver returns the origin-scoped preference store for a request.
// With the cookie backend the browser's cookies are the store; with the db backend
// preferences live in the database under the client id cookie.
type PrefsResolver struct {
	Backend    enum.PrefsBackend
	Store      store.PrefStore // required for db backend
	CookiePath string
}

// For returns the preference store for the given request. Writes go to w.
func (p PrefsResolver) For(w http.ResponseWriter, r *http.Request) theme.Prefs {
	path := p.CookiePath
	if path == "" {
		path = "/"
	}
	if p.Backend == enum.PrefsBackendDB && p.Store != nil {
		return store.NewScoped(p.Store, clientID(w, r, path))
	}
	return &CookiePrefs{w: w, r: r, path: path, set: map[string]string{}}
}

// clientID returns the client id from cookie, issuing a new one if missing or malformed.
func clientID(w http.ResponseWriter, r *http.Request, path string) string {
	if c, err := r.Cookie(ClientIDCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientIDCookie,
		Value:    id,
		Path:     path,
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// CookiePrefs is a key-value store over request and response cookies.
// Values written during the request are visible to later reads of the same request.
type CookiePrefs struct {
	w    http.ResponseWriter
	r    *http.Request
	path string
	set  map[string]string
}

// Get returns the cookie value or store.ErrNotFound.
func (c *CookiePrefs) Get(_ context.Context, key string) (string, error) {
	if v, ok := c.set[key]; ok {
		return v, nil
	}
	cookie, err := c.r.Cookie(key)
	if err != nil || cookie.Value == "" {
		return "", store.ErrNotFound
	}
	return cookie.Value, nil
}

// Set writes the value as a long-lived cookie.
func (c *CookiePrefs) Set(_ context.Context, key, value string) error {
	c.set[key] = value
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     c.path,
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
