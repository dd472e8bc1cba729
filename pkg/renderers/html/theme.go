package html

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const (
	// DefaultThemeName is the theme registered by DefaultManifest.
	DefaultThemeName = "corepanel"

	classPrefix = "class."
	cssPrefix   = "--corepanel-"

	// formPartial names the template a theme may substitute for the form.
	formPartial = "forms.form"
)

// DefaultManifest returns the built-in theme: class names under class.* and
// colours exported as CSS custom properties. The "dark" variant only swaps
// colours.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"class.form":        "corepanel-form",
			"class.title":       "corepanel-title",
			"class.description": "corepanel-description",
			"class.row":         "corepanel-row",
			"class.field":       "corepanel-field",
			"class.button":      "corepanel-button",
			"class.primary":     "corepanel-primary",
			"class.back":        "corepanel-back",
			"class.buttons":     "corepanel-buttons",
			"class.console":     "corepanel-console",
			"class.fallback":    "corepanel-fallback",
			"color.accent":      "#7d56f4",
			"color.danger":      "#e5484d",
			"color.muted":       "#8b8d98",
		},
		Templates: map[string]string{
			formPartial: strings.TrimSuffix(formTemplate, templateExt),
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color.accent": "#9e8cfc",
					"color.muted":  "#6f6e77",
				},
			},
		},
	}
}

// ManifestSelector resolves themes from manifests held in memory.
type ManifestSelector struct {
	manifests map[string]*theme.Manifest
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector indexes manifests by name. Later manifests win.
func NewManifestSelector(manifests ...*theme.Manifest) *ManifestSelector {
	s := &ManifestSelector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, m := range manifests {
		if m != nil {
			s.manifests[m.Name] = m
		}
	}
	return s
}

func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("html renderer: unknown theme %q", name)
	}
	if variant != "" {
		if _, ok := m.Variants[variant]; !ok {
			return nil, fmt.Errorf("html renderer: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
}

// rendererConfig flattens a selection: variant tokens and templates override
// the manifest's, and every non-class token becomes a CSS custom property.
func rendererConfig(sel *theme.Selection) *theme.RendererConfig {
	cfg := &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Tokens:   map[string]string{},
		Partials: map[string]string{},
		CSSVars:  map[string]string{},
	}
	if m := sel.Manifest; m != nil {
		merge(cfg.Tokens, m.Tokens)
		merge(cfg.Partials, m.Templates)
		if v, ok := m.Variants[sel.Variant]; ok {
			merge(cfg.Tokens, v.Tokens)
			merge(cfg.Partials, v.Templates)
		}
	}
	for key, value := range cfg.Tokens {
		if strings.HasPrefix(key, classPrefix) {
			continue
		}
		cfg.CSSVars[cssPrefix+strings.ReplaceAll(key, ".", "-")] = value
	}
	return cfg
}

// themeContext is what templates see under "theme".
func themeContext(cfg *theme.RendererConfig) map[string]any {
	classes := make(map[string]string)
	for key, value := range cfg.Tokens {
		if name, ok := strings.CutPrefix(key, classPrefix); ok {
			classes[name] = value
		}
	}

	keys := make([]string, 0, len(cfg.CSSVars))
	for key := range cfg.CSSVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	decls := make([]string, 0, len(keys))
	for _, key := range keys {
		decls = append(decls, key+": "+cfg.CSSVars[key])
	}

	return map[string]any{
		"name":    cfg.Theme,
		"variant": cfg.Variant,
		"class":   classes,
		"style":   strings.Join(decls, "; "),
	}
}

func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
