// Package theme declares the interface the core consumes for
// syntax-highlighting and UI color themes. Registration, alias resolution,
// and the catalog of available themes are a collaborator's concern; this
// package only fixes the shape the rest of the system depends on, plus a
// minimal static registry good enough to drive it end to end.
package theme

// Theme names a color scheme and, optionally, the bat theme it maps onto
// for syntax-highlighted previews.
type Theme struct {
	Name    string
	BatName string
}

// Registry is what the core consumes: lookup by name, the bat theme name
// for a given theme, and a default when none is configured.
type Registry interface {
	ByName(name string) (Theme, bool)
	BatTheme(name string) (string, bool)
	Default() Theme
}

type staticRegistry struct {
	themes      map[string]Theme
	defaultName string
}

// NewStatic returns a Registry serving a fixed set of themes, with
// defaultName as the Default() theme. If defaultName isn't among themes,
// Default() still returns a Theme carrying that name, with no bat mapping.
func NewStatic(themes []Theme, defaultName string) Registry {
	m := make(map[string]Theme, len(themes))
	for _, t := range themes {
		m[t.Name] = t
	}
	return &staticRegistry{themes: m, defaultName: defaultName}
}

func (r *staticRegistry) ByName(name string) (Theme, bool) {
	t, ok := r.themes[name]
	return t, ok
}

func (r *staticRegistry) BatTheme(name string) (string, bool) {
	t, ok := r.themes[name]
	if !ok || t.BatName == "" {
		return "", false
	}
	return t.BatName, true
}

func (r *staticRegistry) Default() Theme {
	if t, ok := r.themes[r.defaultName]; ok {
		return t
	}
	return Theme{Name: r.defaultName}
}

// Builtin returns the registry's out-of-the-box themes.
func Builtin() Registry {
	return NewStatic([]Theme{
		{Name: "dark", BatName: "TwoDark"},
		{Name: "light", BatName: "GitHub"},
	}, "dark")
}
