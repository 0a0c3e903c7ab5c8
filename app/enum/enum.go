// Package enum defines enumerated values used across the dashboard.
package enum

//go:generate go run github.com/go-pkgz/enum@latest -type theme -lower
type theme int

const (
	themeLight theme = iota
	themeDark
)

//go:generate go run github.com/go-pkgz/enum@latest -type prefsBackend -lower
type prefsBackend int

const (
	prefsBackendCookie prefsBackend = iota // browser cookie, origin scoped
	prefsBackendDB                         // prefs table keyed by client id
)
