package registration

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formpipe/pkg/render"
	"github.com/goliatone/go-formpipe/pkg/submission"
	"github.com/goliatone/go-formpipe/pkg/transport"
)

const defaultRoutePath = "/register"

// GuardFunc rejects a request before the form is shown or submitted.
type GuardFunc func(r *http.Request) error

// AdapterFunc returns the transport for one inbound request, typically the
// shared client decorated with that request's session cookies.
type AdapterFunc func(r *http.Request) transport.Adapter

// HiddenFunc returns hidden inputs (CSRF tokens and the like) for a request.
type HiddenFunc func(r *http.Request) []render.HiddenField

type Options struct {
	RoutePath   string
	Redirect    string
	Title       string
	SubmitLabel string

	ThemeName    string
	ThemeVariant string

	Adapter     AdapterFunc
	Renderer    render.Renderer
	Hidden      HiddenFunc
	Guard       GuardFunc
	Coordinator []submission.Option
	Logger      *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:   defaultRoutePath,
		Redirect:    DefaultRedirect,
		Title:       "Create your account",
		SubmitLabel: "Register",
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
	if opts.Redirect == "" {
		opts.Redirect = DefaultRedirect
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Coordinator != nil {
		opts.Coordinator = append([]submission.Option{}, opts.Coordinator...)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		o.RoutePath = path
	}
}

func WithRedirect(path string) OptionFn {
	return func(o *Options) {
		o.Redirect = path
	}
}

func WithTitle(title, submitLabel string) OptionFn {
	return func(o *Options) {
		if title != "" {
			o.Title = title
		}
		if submitLabel != "" {
			o.SubmitLabel = submitLabel
		}
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

// WithAdapterFunc builds the adapter per request.
func WithAdapterFunc(fn AdapterFunc) OptionFn {
	return func(o *Options) {
		o.Adapter = fn
	}
}

func WithRenderer(renderer render.Renderer) OptionFn {
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

// WithCoordinatorOptions forwards options (observers, secret length) to the
// coordinator built for each submission.
func WithCoordinatorOptions(options ...submission.Option) OptionFn {
	return func(o *Options) {
		o.Coordinator = append(o.Coordinator, options...)
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
