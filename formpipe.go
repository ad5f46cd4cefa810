// Package formpipe ties a validated form state tracker to a multi-step
// submission coordinator. A Pipeline is the whole surface a presentation
// layer needs: OnChange, OnBlur, State and Submit.
package formpipe

import (
	"context"

	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/submission"
)

// Outcome aliases submission.Outcome for callers that only import the root.
type Outcome = submission.Outcome

// FormState aliases formstate.FormState.
type FormState = formstate.FormState

// Pipeline is one mounted form instance. It must not be shared between
// independent forms; build one per form from a shared Coordinator.
type Pipeline struct {
	tracker     *formstate.Tracker
	coordinator *submission.Coordinator
}

// New mounts def against coordinator.
func New(def model.FormDefinition, coordinator *submission.Coordinator) *Pipeline {
	return &Pipeline{
		tracker:     formstate.NewForDefinition(def),
		coordinator: coordinator,
	}
}

// OnChange records a new value for field.
func (p *Pipeline) OnChange(field, value string) error {
	return p.tracker.OnChange(field, value)
}

// OnBlur marks field touched and validates it.
func (p *Pipeline) OnBlur(field string) error {
	return p.tracker.OnBlur(field)
}

// State returns a snapshot of the form.
func (p *Pipeline) State() FormState {
	return p.tracker.State()
}

// Tracker exposes the underlying tracker.
func (p *Pipeline) Tracker() *formstate.Tracker {
	return p.tracker
}

// Submit runs the coordinator. Backend field errors from a rejected step are
// copied onto the form state so they render next to their inputs.
func (p *Pipeline) Submit(ctx context.Context) (Outcome, error) {
	outcome, err := p.coordinator.Submit(ctx, p.tracker)
	if err != nil {
		return nil, err
	}
	if failure, ok := outcome.(submission.PartialFailure); ok && len(failure.FieldErrors) > 0 {
		p.tracker.ApplyErrors(failure.FieldErrors)
	}
	return outcome, nil
}
