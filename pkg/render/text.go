package render

import (
	"bytes"
	"context"
	"fmt"
	"text/tabwriter"
)

// Text renders a plain-text summary of a form state, one field per row.
// It backs terminal output where HTML makes no sense.
type Text struct{}

var _ Renderer = Text{}

// Name implements Renderer.
func (Text) Name() string { return "text" }

// ContentType implements Renderer.
func (Text) ContentType() string { return "text/plain; charset=utf-8" }

// Render implements Renderer.
func (Text) Render(ctx context.Context, view View, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	title := orFallback(options.Title, view.Definition.ID())
	fmt.Fprintf(&buf, "%s\n", title)

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, field := range view.Definition.Fields() {
		state := view.State.Field(field.Name)
		status := "ok"
		switch {
		case state.Touched && state.Error != nil:
			status = *state.Error
		case !state.Touched:
			status = "-"
		}
		label := translate(options, view.Definition.ID()+"."+field.Name+".label", field.DisplayLabel())
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", label, state.StringValue(), status)
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	for _, msg := range options.FormErrors {
		fmt.Fprintf(&buf, "! %s\n", msg)
	}
	validity := "invalid"
	if view.State.IsValid {
		validity = "valid"
	}
	fmt.Fprintf(&buf, "form is %s\n", validity)
	return buf.Bytes(), nil
}
