package catalog

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-formpipe/internal/mount"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

var errMissingMux = errors.New("catalog: missing mux")

// MountPath returns the full mount path for the component route under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mount.Join(basePath, opts.RoutePath)
}

// RegisterRoutes registers the catalog handler under basePath on mux.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions registers a handler under basePath using a
// pre-built Options value.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", errMissingMux
	}
	handler, err := HandlerWithOptions(opts)
	if err != nil {
		return "", err
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	pattern := mount.Join(basePath, opts.RoutePath)
	mux.Handle(pattern, handler)
	return pattern, nil
}
