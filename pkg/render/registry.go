package render

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrUnknownRenderer is returned by Get for names never registered.
	ErrUnknownRenderer = errors.New("render: unknown renderer")
	// ErrDuplicateRenderer is returned when a name is registered twice.
	ErrDuplicateRenderer = errors.New("render: renderer already registered")
)

// Registry looks presentation back ends up by name, so binaries can pick
// one from a flag.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
}

// NewRegistry registers renderers in order and panics on a duplicate or
// unnamed renderer.
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{byName: make(map[string]Renderer, len(renderers))}
	for _, renderer := range renderers {
		if err := r.Register(renderer); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds renderer under its lower-cased Name().
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("render: nil renderer")
	}
	name := strings.ToLower(strings.TrimSpace(renderer.Name()))
	if name == "" {
		return errors.New("render: renderer has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateRenderer, name)
	}
	r.byName[name] = renderer
	return nil
}

// Get is case-insensitive. The error lists the known names.
func (r *Registry) Get(name string) (Renderer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	renderer, ok := r.byName[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownRenderer, name, strings.Join(r.List(), ", "))
	}
	return renderer, nil
}

// List returns the registered names sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
