package render

import (
	"context"

	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/model"
)

// View is what a renderer draws: the immutable definition and a state
// snapshot taken from the form's tracker.
type View struct {
	Definition model.FormDefinition
	State      formstate.FormState
}

// Renderer converts a View into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options RenderOptions) ([]byte, error)
}
