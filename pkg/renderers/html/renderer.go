package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

const formTemplate = "templates/form.tmpl"

// Option configures the HTML renderer.
type Option func(*config)

type config struct {
	templates fs.FS
	engine    TemplateRenderer
	policy    *bluemonday.Policy
	selector  theme.ThemeSelector
	themeName string
	variant   string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must contain templates/form.tmpl unless the theme names another form
// template.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templates = os.DirFS(path)
	}
}

// WithTemplateRenderer replaces the pongo2 engine, for example with a
// go-template engine. The template bundle options are ignored.
func WithTemplateRenderer(engine TemplateRenderer) Option {
	return func(cfg *config) {
		if engine != nil {
			cfg.engine = engine
		}
	}
}

// WithPolicy overrides the sanitizer applied to document descriptions.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithTheme selects the theme and variant used for class names, colours and
// the form template. A nil selector keeps the built-in manifest.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(cfg *config) {
		if selector != nil {
			cfg.selector = selector
		}
		if name = strings.TrimSpace(name); name != "" {
			cfg.themeName = name
		}
		cfg.variant = strings.TrimSpace(variant)
	}
}

// Renderer renders forms as HTML fragments.
type Renderer struct {
	engine TemplateRenderer
	form   string
	policy *bluemonday.Policy
	theme  *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templates: TemplatesFS(),
		themeName: DefaultThemeName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.policy == nil {
		cfg.policy = bluemonday.UGCPolicy()
	}
	if cfg.selector == nil {
		cfg.selector = NewManifestSelector(DefaultManifest())
	}

	engine := cfg.engine
	if engine == nil {
		e, err := NewEngine(cfg.templates)
		if err != nil {
			return nil, err
		}
		engine = e
	}

	selection, err := cfg.selector.Select(cfg.themeName, cfg.variant)
	if err != nil {
		return nil, fmt.Errorf("html renderer: select theme: %w", err)
	}
	if selection == nil {
		return nil, fmt.Errorf("html renderer: theme %q resolved to nothing", cfg.themeName)
	}
	themeCfg := rendererConfig(selection)

	if err := engine.GlobalContext(map[string]any{"theme": themeContext(themeCfg)}); err != nil {
		return nil, fmt.Errorf("html renderer: theme context: %w", err)
	}

	form := themeCfg.Partials[formPartial]
	if form == "" {
		form = formTemplate
	}
	return &Renderer{
		engine: engine,
		form:   form,
		policy: cfg.policy,
		theme:  themeCfg,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Theme returns the resolved theme configuration.
func (r *Renderer) Theme() *theme.RendererConfig {
	return r.theme
}

func (r *Renderer) Render(_ context.Context, form *render.Form) ([]byte, error) {
	if form == nil {
		return nil, errors.New("html renderer: form is nil")
	}
	out, err := r.engine.RenderTemplate(r.form, r.context(form))
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) context(form *render.Form) map[string]any {
	id := domID(string(form.ID()))

	rows := make([][]map[string]any, 0)
	for i, row := range form.Rows() {
		widgets := make([]map[string]any, 0, len(row.Widgets))
		for j, w := range row.Widgets {
			widgets = append(widgets, widgetView(w, fmt.Sprintf("cp-%s-%d-%d", id, i, j)))
		}
		rows = append(rows, widgets)
	}

	buttons := make([]map[string]any, 0)
	for _, w := range form.Buttons() {
		buttons = append(buttons, widgetView(w, ""))
	}

	ctx := map[string]any{
		"id":          id,
		"surface":     form.Surface().String(),
		"title":       form.Title(),
		"description": r.policy.Sanitize(form.Description()),
		"rows":        rows,
		"buttons":     buttons,
	}
	if back, ok := form.Back(); ok {
		ctx["back"] = widgetView(back, "")
	}
	return ctx
}

func widgetView(w render.Widget, id string) map[string]any {
	choices := make([]map[string]any, 0, len(w.Choices))
	for _, c := range w.Choices {
		choices = append(choices, map[string]any{
			"value":    c.Value,
			"label":    c.Label,
			"selected": c.Selected,
		})
	}
	return map[string]any{
		"id":           id,
		"key":          w.Key,
		"kind":         string(w.Kind),
		"input_kind":   w.InputKind,
		"label":        w.Label,
		"label_hidden": w.LabelHidden,
		"placeholder":  w.Placeholder,
		"required":     w.Required,
		"readonly":     w.ReadOnly,
		"value":        w.Value,
		"text":         w.Text,
		"lines":        w.Lines,
		"choices":      choices,
		"digits":       w.Validator == schema.ValidatorDigitsOnly,
		"action":       string(w.Action),
		"primary":      w.Primary,
		"problem":      w.Problem,
	}
}

func domID(raw string) string {
	if raw == "" {
		return "form"
	}
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
