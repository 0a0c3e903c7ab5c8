package server

import (
	"net/http"

	"github.com/go-pkgz/rest"
)

// AdminUser is the only basic-auth user name.
const AdminUser = "admin"

// BasicAuth protects the dashboard with a single bcrypt-hashed admin password.
// A nil or zero-hash BasicAuth lets every request through.
type BasicAuth struct {
	passwordHash string
}

// NewBasicAuth makes basic auth for the given bcrypt hash. Empty hash disables auth.
func NewBasicAuth(passwordHash string) *BasicAuth {
	return &BasicAuth{passwordHash: passwordHash}
}

// Enabled returns true if a password hash is configured.
func (a *BasicAuth) Enabled() bool {
	return a != nil && a.passwordHash != ""
}

// Middleware rejects requests without valid admin credentials and asks the browser to prompt.
func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return rest.BasicAuthWithBcryptHashAndPrompt(AdminUser, a.passwordHash)(next)
}
