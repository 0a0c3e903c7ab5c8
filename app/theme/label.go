package theme

import "github.com/umputun/threatdash/app/enum"

// glyph names, rendered as font-awesome icons "fa-sun" and "fa-moon"
const (
	GlyphSun  = "sun"
	GlyphMoon = "moon"
)

// Label is the text and icon of the toggle control. It names the action the
// next click performs, so dark mode shows "Light Mode".
type Label struct {
	Text  string
	Glyph string
}

// LabelFor returns the toggle label for the given theme.
func LabelFor(t enum.Theme) Label {
	if t == enum.ThemeDark {
		return Label{Text: "Light Mode", Glyph: GlyphSun}
	}
	return Label{Text: "Dark Mode", Glyph: GlyphMoon}
}

// Icon returns the icon class of the glyph.
func (l Label) Icon() string { return "fa-" + l.Glyph }
