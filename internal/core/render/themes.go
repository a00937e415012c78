package render

import (
	"strings"
)

// DefaultTheme is used for unknown theme names.
const DefaultTheme = "modern"

// Theme is the four colours a deck is drawn with, as RRGGBB.
type Theme struct {
	Name       string
	Background string
	Title      string
	Text       string
	Accent     string
}

var themes = map[string]Theme{
	"modern":       {Name: "modern", Background: "FFFFFF", Title: "1F4E79", Text: "404040", Accent: "0078D7"},
	"dark":         {Name: "dark", Background: "1E1E1E", Title: "FFFFFF", Text: "DCDCDC", Accent: "0078D7"},
	"professional": {Name: "professional", Background: "FFFFFF", Title: "44546A", Text: "595959", Accent: "C00000"},
	"business":     {Name: "business", Background: "F8F9FA", Title: "212529", Text: "495057", Accent: "007BFF"},
	"academic":     {Name: "academic", Background: "FFFFFF", Title: "343A40", Text: "495057", Accent: "6F42C1"},
	"minimal":      {Name: "minimal", Background: "FFFFFF", Title: "000000", Text: "646464", Accent: "808080"},
	"creative":     {Name: "creative", Background: "FFFAF0", Title: "DC3545", Text: "666666", Accent: "FFC107"},
}

// ResolveTheme picks the named theme (falling back to DefaultTheme) and applies
// brand overrides: brand[0] replaces the accent, brand[1] the title colour.
// Colours that aren't valid hex are ignored.
func ResolveTheme(name string, brand []string) Theme {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		t = themes[DefaultTheme]
	}
	if len(brand) > 0 {
		if c, ok := NormalizeHex(brand[0]); ok {
			t.Accent = c
		}
	}
	if len(brand) > 1 {
		if c, ok := NormalizeHex(brand[1]); ok {
			t.Title = c
		}
	}
	return t
}

// NormalizeHex turns "#1f4e79" or "1F4E79" into "1F4E79".
func NormalizeHex(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return "", false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return "", false
		}
	}
	return strings.ToUpper(s), true
}
