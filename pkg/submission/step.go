package submission

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-formpipe/pkg/validation"
)

var (
	// ErrNoSteps is returned by NewRequest when no steps are supplied.
	ErrNoSteps = errors.New("submission: request requires at least one step")
	// ErrForwardReference is returned when a step requires a value that no
	// earlier step captures.
	ErrForwardReference = errors.New("submission: step requires a value not captured by an earlier step")
	// ErrInvalidStep is returned for steps missing a builder or target.
	ErrInvalidStep = errors.New("submission: invalid step")
)

// StepInput is handed to a step's payload builder.
type StepInput struct {
	// Values holds the validated, trimmed form record.
	Values validation.Record
	// Captured holds values captured by earlier steps, keyed by capture name.
	Captured map[string]string
	// Secret carries the one-time credential for steps with NeedsSecret. It is
	// empty otherwise and must only be placed in the payload.
	Secret string
}

// Value returns the validated value for a field.
func (in StepInput) Value(field string) string {
	return in.Values[field]
}

// Optional returns nil for empty values so payloads encode JSON null.
func (in StepInput) Optional(field string) any {
	if v := in.Values[field]; v != "" {
		return v
	}
	return nil
}

// PayloadBuilder produces the JSON-encodable body for a step.
type PayloadBuilder func(in StepInput) (any, error)

// WriteStep is one network mutation in a submission.
type WriteStep struct {
	// Name identifies the step in outcomes, logs and metrics.
	Name   string
	Method string
	// Path is resolved by the transport against its base URL.
	Path  string
	Build PayloadBuilder
	// Capture names the top-level response field to keep for later steps.
	Capture string
	// CaptureAs renames the captured value; defaults to Capture.
	CaptureAs string
	// Requires lists capture names that must be present before the step runs.
	Requires []string
	// NeedsSecret asks the coordinator for a one-time credential.
	NeedsSecret bool
}

func (s WriteStep) captureKey() string {
	if s.CaptureAs != "" {
		return s.CaptureAs
	}
	return s.Capture
}

// Request is a validated, ordered list of steps plus the fixed redirect
// target reported on success.
type Request struct {
	steps    []WriteStep
	redirect string
}

// NewRequest checks the steps at definition time: every step needs a name,
// a path and a builder, names are unique, capture names are unique, and step
// k may only require values captured by steps 1..k-1.
func NewRequest(redirect string, steps ...WriteStep) (Request, error) {
	if len(steps) == 0 {
		return Request{}, ErrNoSteps
	}

	req := Request{
		steps:    make([]WriteStep, 0, len(steps)),
		redirect: strings.TrimSpace(redirect),
	}
	names := make(map[string]struct{}, len(steps))
	captured := make(map[string]struct{}, len(steps))

	for i, step := range steps {
		idx := i + 1
		step.Name = strings.TrimSpace(step.Name)
		if step.Name == "" {
			step.Name = fmt.Sprintf("step-%d", idx)
		}
		if _, dup := names[step.Name]; dup {
			return Request{}, fmt.Errorf("%w: duplicate step name %q", ErrInvalidStep, step.Name)
		}
		names[step.Name] = struct{}{}

		if strings.TrimSpace(step.Path) == "" {
			return Request{}, fmt.Errorf("%w: step %d (%s) has no path", ErrInvalidStep, idx, step.Name)
		}
		if step.Build == nil {
			return Request{}, fmt.Errorf("%w: step %d (%s) has no payload builder", ErrInvalidStep, idx, step.Name)
		}
		step.Method = strings.ToUpper(strings.TrimSpace(step.Method))
		if step.Method == "" {
			step.Method = http.MethodPost
		}

		for _, need := range step.Requires {
			if _, ok := captured[need]; !ok {
				return Request{}, fmt.Errorf("%w: step %d (%s) requires %q", ErrForwardReference, idx, step.Name, need)
			}
		}
		if key := step.captureKey(); key != "" {
			if step.Capture == "" {
				return Request{}, fmt.Errorf("%w: step %d (%s) renames a capture it does not declare", ErrInvalidStep, idx, step.Name)
			}
			if _, dup := captured[key]; dup {
				return Request{}, fmt.Errorf("%w: capture %q declared twice", ErrInvalidStep, key)
			}
			captured[key] = struct{}{}
		}

		step.Requires = append([]string(nil), step.Requires...)
		req.steps = append(req.steps, step)
	}
	return req, nil
}

// MustRequest panics when NewRequest fails.
func MustRequest(redirect string, steps ...WriteStep) Request {
	req, err := NewRequest(redirect, steps...)
	if err != nil {
		panic(err)
	}
	return req
}

// Redirect returns the success destination.
func (r Request) Redirect() string {
	return r.redirect
}

// Steps returns a copy of the steps.
func (r Request) Steps() []WriteStep {
	return append([]WriteStep(nil), r.steps...)
}

// Len returns the number of steps.
func (r Request) Len() int {
	return len(r.steps)
}
