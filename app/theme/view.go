package theme

// View is an in-memory projection of a page: the document root's dark class and
// the toggle label. It satisfies both Root and Control, so a server can run a
// controller against it and render the result.
type View struct {
	Dark  bool
	Label Label
}

// SetClass records the dark class presence, other classes are ignored.
func (v *View) SetClass(name string, present bool) {
	if name == DarkClass {
		v.Dark = present
	}
}

// SetLabel records the toggle label.
func (v *View) SetLabel(l Label) { v.Label = l }

// BodyClass returns the class attribute for the document root.
func (v *View) BodyClass() string {
	if v.Dark {
		return DarkClass
	}
	return ""
}

// Theme returns the persisted form of the projected theme.
func (v *View) Theme() string {
	if v.Dark {
		return "dark"
	}
	return "light"
}
