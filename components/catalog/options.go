package catalog

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formpipe/pkg/dialog"
	"github.com/goliatone/go-formpipe/pkg/render"
	"github.com/goliatone/go-formpipe/pkg/transport"
)

const defaultRoutePath = "/catalog-items"

type GuardFunc func(r *http.Request) error

// AdapterFunc returns the transport for one inbound request.
type AdapterFunc func(r *http.Request) transport.Adapter

// HiddenFunc returns extra hidden inputs (CSRF) for every form on the page.
type HiddenFunc func(r *http.Request) []render.HiddenField

type Options struct {
	RoutePath string
	ItemsPath string
	Title     string

	ThemeName    string
	ThemeVariant string

	Adapter  AdapterFunc
	Renderer *render.HTML
	Hidden   HiddenFunc
	Guard    GuardFunc
	// OnDialog observes the item dialog of every rendered page.
	OnDialog dialog.Listener
	Logger   *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath: defaultRoutePath,
		ItemsPath: DefaultItemsPath,
		Title:     "Catalog items",
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if opts.ItemsPath == "" {
		opts.ItemsPath = DefaultItemsPath
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		o.RoutePath = path
	}
}

func WithItemsPath(path string) OptionFn {
	return func(o *Options) {
		o.ItemsPath = path
	}
}

func WithTitle(title string) OptionFn {
	return func(o *Options) {
		o.Title = title
	}
}

func WithTheme(name, variant string) OptionFn {
	return func(o *Options) {
		o.ThemeName = name
		o.ThemeVariant = variant
	}
}

// WithTransport uses the same adapter for every request.
func WithTransport(adapter transport.Adapter) OptionFn {
	return func(o *Options) {
		if adapter == nil {
			o.Adapter = nil
			return
		}
		o.Adapter = func(*http.Request) transport.Adapter { return adapter }
	}
}

func WithAdapterFunc(fn AdapterFunc) OptionFn {
	return func(o *Options) {
		o.Adapter = fn
	}
}

// WithRenderer replaces the page renderer. It must be able to resolve
// catalog.tpl; see Templates.
func WithRenderer(renderer *render.HTML) OptionFn {
	return func(o *Options) {
		o.Renderer = renderer
	}
}

func WithHidden(fn HiddenFunc) OptionFn {
	return func(o *Options) {
		o.Hidden = fn
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.Guard = guard
	}
}

func WithDialogListener(fn dialog.Listener) OptionFn {
	return func(o *Options) {
		o.OnDialog = fn
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
