// Package theme implements the theme preference controller. It keeps a single
// light/dark state, projects it onto the document root class and the toggle label,
// persists it in an origin-scoped key-value store and broadcasts a change event
// after each toggle.
package theme

import (
	"context"
	"errors"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/threatdash/app/enum"
	"github.com/umputun/threatdash/app/store"
)

const (
	PrefKey     = "theme"          // persisted preference key
	DarkClass   = "dark-mode"      // class applied to the document root in dark mode
	ControlID   = "darkModeToggle" // element id of the toggle control
	EventChange = "themeChange"    // event broadcast after each toggle
)

// Prefs is the origin-scoped key-value store for the persisted preference.
// Get returns store.ErrNotFound if the key was never written.
type Prefs interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Root is the document root receiving the dark class projection.
type Root interface {
	SetClass(name string, present bool)
}

// Control is the toggle view. It holds no state, only shows the label it is given.
type Control interface {
	SetLabel(l Label)
}

// State is the current theme of a page.
type State struct {
	Theme enum.Theme
}

// Dark reports whether the state is dark.
func (s State) Dark() bool { return s.Theme == enum.ThemeDark }

// Controller drives a single page's theme. It is not safe for concurrent use,
// each page render or request gets its own controller.
type Controller struct {
	prefs   Prefs
	root    Root
	bus     *Bus
	control Control
	state   State
}

// New makes a controller. bus may be nil, in which case toggles broadcast to nobody.
func New(prefs Prefs, root Root, bus *Bus) *Controller {
	if bus == nil {
		bus = NewBus()
	}
	return &Controller{prefs: prefs, root: root, bus: bus, state: State{Theme: enum.ThemeLight}}
}

// Initialize binds the toggle control, loads the persisted preference and renders the label.
// If control is nil nothing happens and false is returned.
func (c *Controller) Initialize(ctx context.Context, control Control) bool {
	if control == nil {
		return false
	}
	c.control = control

	c.state = State{Theme: enum.ThemeLight}
	val, err := c.prefs.Get(ctx, PrefKey)
	switch {
	case err == nil:
		t, perr := enum.ParseTheme(val)
		if perr != nil {
			log.Printf("[DEBUG] unrecognized theme preference, using light: %v", perr)
			break
		}
		c.state.Theme = t
		if t == enum.ThemeDark {
			c.root.SetClass(DarkClass, true)
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		log.Printf("[WARN] failed to read theme preference, using light: %v", err)
	}

	c.RenderLabel()
	return true
}

// Toggle inverts the theme, persists it, re-renders the label and broadcasts EventChange.
// Write failures are logged and the in-memory state is kept.
// Toggle is a no-op on a controller without a bound control.
func (c *Controller) Toggle(ctx context.Context) State {
	if c.control == nil {
		return c.state
	}

	c.state.Theme = c.state.Theme.Toggle()
	c.root.SetClass(DarkClass, c.state.Dark())

	if err := c.prefs.Set(ctx, PrefKey, c.state.Theme.String()); err != nil {
		log.Printf("[WARN] failed to persist theme %s: %v", c.state.Theme, err)
	}

	c.RenderLabel()
	c.bus.Publish(EventChange)
	log.Printf("[DEBUG] theme changed to %s", c.state.Theme)
	return c.state
}

// RenderLabel writes the label for the current state to the control.
func (c *Controller) RenderLabel() {
	if c.control == nil {
		return
	}
	c.control.SetLabel(LabelFor(c.state.Theme))
}

// State returns the current state.
func (c *Controller) State() State { return c.state }
