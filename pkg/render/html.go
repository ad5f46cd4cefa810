package render

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/render/template"
	"github.com/goliatone/go-formpipe/pkg/render/template/pongo"
)

const (
	defaultSubmitLabel  = "Submit"
	defaultSelectPrompt = "Select..."
)

// HTMLOption configures the HTML renderer.
type HTMLOption func(*htmlConfig)

type htmlConfig struct {
	extra    []fs.FS
	baseDir  string
	selector theme.ThemeSelector
	logger   *zap.Logger
}

// WithTemplates layers additional templates (for example component pages)
// ahead of the built-in ones.
func WithTemplates(files fs.FS) HTMLOption {
	return func(cfg *htmlConfig) {
		if files != nil {
			cfg.extra = append(cfg.extra, files)
		}
	}
}

// WithTemplateDir loads overrides from a directory on disk.
func WithTemplateDir(dir string) HTMLOption {
	return func(cfg *htmlConfig) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithThemeSelector resolves RenderOptions.ThemeName/ThemeVariant into CSS
// variables and a stylesheet link.
func WithThemeSelector(selector theme.ThemeSelector) HTMLOption {
	return func(cfg *htmlConfig) {
		cfg.selector = selector
	}
}

// WithLogger sets the logger used for theme resolution warnings.
func WithLogger(logger *zap.Logger) HTMLOption {
	return func(cfg *htmlConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// HTML renders forms and pages to HTML through pongo2.
type HTML struct {
	engine   template.TemplateRenderer
	selector theme.ThemeSelector
	logger   *zap.Logger
}

var _ Renderer = (*HTML)(nil)

// NewHTML builds the renderer over the embedded templates.
func NewHTML(options ...HTMLOption) (*HTML, error) {
	cfg := &htmlConfig{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	builtin, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: embedded templates: %w", err)
	}
	engineOpts := []pongo.Option{pongo.WithSetName("formpipe-html")}
	if cfg.baseDir != "" {
		engineOpts = append(engineOpts, pongo.WithBaseDir(cfg.baseDir))
	}
	for _, files := range cfg.extra {
		engineOpts = append(engineOpts, pongo.WithFS(files))
	}
	engineOpts = append(engineOpts, pongo.WithFS(builtin))

	engine, err := pongo.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return &HTML{engine: engine, selector: cfg.selector, logger: cfg.logger}, nil
}

// Name implements Renderer.
func (h *HTML) Name() string { return "html" }

// ContentType implements Renderer.
func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

// Render draws a full page containing the form.
func (h *HTML) Render(ctx context.Context, view View, options RenderOptions) ([]byte, error) {
	form, err := h.Fragment(ctx, view, options)
	if err != nil {
		return nil, err
	}
	return h.Page(ctx, "page", map[string]any{"form": string(form)}, options)
}

// Fragment draws only the <form> element.
func (h *HTML) Fragment(ctx context.Context, view View, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := h.engine.RenderTemplate("form", map[string]any{
		"form": buildFormView(view, options),
	})
	if err != nil {
		return nil, fmt.Errorf("render: form %s: %w", view.Definition.ID(), err)
	}
	return []byte(out), nil
}

// Page renders a named page template that extends layout.tpl. data is merged
// with the shared title, locale and theme values.
func (h *HTML) Page(ctx context.Context, name string, data map[string]any, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload := make(map[string]any, len(data)+3)
	for key, value := range data {
		payload[key] = value
	}
	payload["title"] = options.Title
	payload["locale"] = options.Locale
	payload["theme"] = h.theme(options)

	out, err := h.engine.RenderTemplate(name, payload)
	if err != nil {
		return nil, fmt.Errorf("render: page %s: %w", name, err)
	}
	return []byte(out), nil
}

func (h *HTML) theme(options RenderOptions) themeView {
	if h.selector == nil {
		return themeView{}
	}
	selection, err := h.selector.Select(options.ThemeName, options.ThemeVariant)
	if err != nil {
		h.logger.Warn("theme selection failed",
			zap.String("theme", options.ThemeName),
			zap.String("variant", options.ThemeVariant),
			zap.Error(err),
		)
		return themeView{}
	}
	return buildThemeView(selection)
}

type optionView struct {
	Value    string
	Selected bool
}

type fieldView struct {
	Name        string
	ID          string
	Label       string
	Input       string
	Placeholder string
	Value       string
	Error       string
	Required    bool
	Checked     bool
	Invalid     bool
	Options     []optionView
}

type formView struct {
	ID           string
	Action       string
	Method       string
	Hidden       []HiddenField
	Notice       string
	Errors       []string
	Fields       []fieldView
	Submitting   bool
	SubmitLabel  string
	SelectPrompt string
}

func buildFormView(view View, opts RenderOptions) formView {
	def := view.Definition
	method, override := methodOverride(opts.Method)
	hidden := append([]HiddenField(nil), opts.Hidden...)
	if override != nil {
		hidden = append(hidden, *override)
	}

	fv := formView{
		ID:           def.ID(),
		Action:       opts.Action,
		Method:       method,
		Hidden:       SortedHiddenFields(hidden...),
		Notice:       opts.Notice,
		Errors:       opts.FormErrors,
		Submitting:   view.State.IsSubmitting,
		SubmitLabel:  translate(opts, def.ID()+".submit", orFallback(opts.SubmitLabel, defaultSubmitLabel)),
		SelectPrompt: translate(opts, "select.prompt", defaultSelectPrompt),
	}
	for _, field := range def.Fields() {
		fv.Fields = append(fv.Fields, buildFieldView(def.ID(), field, view.State.Field(field.Name), opts))
	}
	return fv
}

func buildFieldView(formID string, field model.FieldSchema, state formstate.FieldState, opts RenderOptions) fieldView {
	value := state.StringValue()
	fv := fieldView{
		Name:        field.Name,
		ID:          formID + "-" + strings.NewReplacer(".", "-", "[", "-", "]", "").Replace(field.Name),
		Label:       translate(opts, formID+"."+field.Name+".label", field.DisplayLabel()),
		Input:       string(field.Input),
		Placeholder: translate(opts, formID+"."+field.Name+".placeholder", field.Placeholder),
		Value:       value,
		Required:    field.Required(),
	}
	// Errors only show once the field has been visited or submitted.
	if state.Touched && state.Error != nil {
		fv.Invalid = true
		fv.Error = *state.Error
	}
	switch field.Input {
	case model.InputCheckbox:
		fv.Checked = isChecked(value)
	case model.InputSelect:
		for _, option := range field.Options {
			fv.Options = append(fv.Options, optionView{Value: option, Selected: option == value})
		}
	}
	return fv
}

func isChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

func orFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
