package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/secret"
	"github.com/goliatone/go-formpipe/pkg/transport"
	"github.com/goliatone/go-formpipe/pkg/validation"
)

// ErrNilForm is returned when Submit receives no form.
var ErrNilForm = errors.New("submission: form is nil")

const (
	msgTransport = "We could not reach the server. Please try again."
	msgMalformed = "The server returned an unexpected response."
	msgSecret    = "We could not prepare your account credentials. Please try again."
	msgBuild     = "We could not prepare the request."
)

// Form is the part of a tracked form the coordinator depends on. It is
// satisfied by *formstate.Tracker.
type Form interface {
	Definition() model.FormDefinition
	// Validate re-runs every rule against the current values.
	Validate() (validation.Record, validation.FieldErrors)
	// BeginSubmit acquires the submitting gate.
	BeginSubmit() (release func(), err error)
}

// SecretGenerator produces one-time credentials.
type SecretGenerator interface {
	Generate(length int) (string, error)
}

// Coordinator runs a Request against a transport. A Coordinator holds no
// per-submission state and may be shared by many form instances.
type Coordinator struct {
	request      Request
	transport    transport.Adapter
	secrets      SecretGenerator
	secretLength int
	observer     Observer
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSecretGenerator overrides the credential source.
func WithSecretGenerator(gen SecretGenerator) Option {
	return func(c *Coordinator) {
		if gen != nil {
			c.secrets = gen
		}
	}
}

// WithSecretLength sets the generated credential length.
func WithSecretLength(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.secretLength = n
		}
	}
}

// WithObserver registers lifecycle observers.
func WithObserver(observers ...Observer) Option {
	return func(c *Coordinator) {
		var list Observers
		if existing, ok := c.observer.(Observers); ok {
			list = append(list, existing...)
		}
		for _, obs := range observers {
			if obs != nil {
				list = append(list, obs)
			}
		}
		if len(list) > 0 {
			c.observer = list
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator binds a request to a transport.
func NewCoordinator(adapter transport.Adapter, req Request, options ...Option) (*Coordinator, error) {
	if adapter == nil {
		return nil, errors.New("submission: transport adapter is required")
	}
	if req.Len() == 0 {
		return nil, ErrNoSteps
	}
	c := &Coordinator{
		request:      req,
		transport:    adapter,
		secrets:      secret.Generator{},
		secretLength: secret.DefaultLength,
		observer:     nopObserver{},
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// WithTransport returns a copy of the coordinator using adapter, typically a
// transport carrying per-request session headers.
func (c *Coordinator) WithTransport(adapter transport.Adapter) *Coordinator {
	clone := *c
	if adapter != nil {
		clone.transport = adapter
	}
	return &clone
}

// Request returns the bound request.
func (c *Coordinator) Request() Request {
	return c.request
}

// Submit validates form and, when valid, executes every step in order. It
// holds the form's submitting gate for the whole call and releases it on
// every path. The returned error is non-nil only when form is nil or the gate
// is already held.
func (c *Coordinator) Submit(ctx context.Context, form Form) (Outcome, error) {
	if form == nil {
		return nil, ErrNilForm
	}
	release, err := form.BeginSubmit()
	if err != nil {
		return nil, err
	}
	defer release()

	if ctx == nil {
		ctx = context.Background()
	}
	formID := form.Definition().ID()
	started := c.now()

	record, fieldErrs := form.Validate()
	if len(fieldErrs) > 0 {
		outcome := ValidationRejected{FieldErrors: fieldErrs.Clone()}
		c.observer.Finished(formID, outcome, c.now().Sub(started))
		return outcome, nil
	}

	outcome := c.run(ctx, form.Definition(), record)
	c.observer.Finished(formID, outcome, c.now().Sub(started))
	return outcome, nil
}

func (c *Coordinator) run(ctx context.Context, def model.FormDefinition, record validation.Record) Outcome {
	formID := def.ID()
	captured := make(map[string]string)
	var (
		completed []string
		issued    []string
	)

	fail := func(idx int, step WriteStep, pf PartialFailure) Outcome {
		pf.Step = idx
		pf.StepName = step.Name
		pf.Completed = append([]string(nil), completed...)
		return pf
	}

	for i, step := range c.request.steps {
		idx := i + 1

		for _, need := range step.Requires {
			if _, ok := captured[need]; !ok {
				return fail(idx, step, PartialFailure{
					Reason:  ReasonMalformed,
					Message: msgMalformed,
					Cause:   fmt.Errorf("submission: value %q was not captured by an earlier step", need),
				})
			}
		}

		body, cred, pf, ok := c.buildPayload(step, record, captured)
		if !ok {
			return fail(idx, step, pf)
		}
		if cred != "" {
			issued = append(issued, cred)
		}

		c.observer.StepStarted(formID, idx, step.Name)
		stepStarted := c.now()
		res, err := c.transport.Do(ctx, transport.Request{
			Method: step.Method,
			Path:   step.Path,
			Body:   body,
		})
		elapsed := c.now().Sub(stepStarted)
		if err != nil {
			c.observer.StepFinished(formID, idx, step.Name, 0, elapsed, err)
			return fail(idx, step, PartialFailure{
				Reason:  ReasonTransport,
				Message: msgTransport,
				Cause:   err,
			})
		}
		if !res.OK() {
			statusErr := fmt.Errorf("submission: %s %s returned status %d", step.Method, step.Path, res.Status)
			c.observer.StepFinished(formID, idx, step.Name, res.Status, elapsed, statusErr)
			remote := redact(MapRemoteErrors(def, res.Body), issued)
			return fail(idx, step, PartialFailure{
				Reason:      ReasonStatus,
				Message:     rejectionMessage(step, completed),
				Status:      res.Status,
				FieldErrors: remote.Fields,
				FormErrors:  remote.Form,
				Cause:       statusErr,
			})
		}
		c.observer.StepFinished(formID, idx, step.Name, res.Status, elapsed, nil)

		if step.Capture != "" {
			value, err := decodeCapture(res.Body, step.Capture)
			if err != nil {
				// Only fatal once a later step requires the value.
				c.logger.Warn("submission capture unavailable",
					zap.String("form", formID),
					zap.String("step_name", step.Name),
					zap.String("capture", step.Capture),
					zap.Error(err),
				)
			} else {
				captured[step.captureKey()] = value
			}
		}
		completed = append(completed, step.Name)
	}

	return Success{Redirect: c.request.redirect, Captured: captured}
}

// buildPayload prepares the request body. The credential, when requested,
// lives only for the duration of the builder call.
func (c *Coordinator) buildPayload(step WriteStep, record validation.Record, captured map[string]string) ([]byte, string, PartialFailure, bool) {
	in := StepInput{
		Values:   cloneRecord(record),
		Captured: cloneCaptured(captured),
	}
	if step.NeedsSecret {
		cred, err := c.secrets.Generate(c.secretLength)
		if err != nil || len(cred) != c.secretLength {
			if err == nil {
				err = errors.New("submission: credential has unexpected length")
			}
			return nil, "", PartialFailure{Reason: ReasonSecret, Message: msgSecret, Cause: err}, false
		}
		in.Secret = cred
	}

	payload, err := step.Build(in)
	if err != nil {
		return nil, "", PartialFailure{Reason: ReasonBuild, Message: msgBuild, Cause: err}, false
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", PartialFailure{Reason: ReasonBuild, Message: msgBuild, Cause: fmt.Errorf("submission: encode payload: %w", err)}, false
	}
	return body, in.Secret, PartialFailure{}, true
}

// redact masks issued credentials a backend may echo in its error messages.
func redact(remote RemoteErrors, issued []string) RemoteErrors {
	if len(issued) == 0 {
		return remote
	}
	pairs := make([]string, 0, len(issued)*2)
	for _, cred := range issued {
		pairs = append(pairs, cred, "********")
	}
	r := strings.NewReplacer(pairs...)
	for field, msg := range remote.Fields {
		remote.Fields[field] = r.Replace(msg)
	}
	for i, msg := range remote.Form {
		remote.Form[i] = r.Replace(msg)
	}
	return remote
}

func rejectionMessage(step WriteStep, completed []string) string {
	if len(completed) == 0 {
		return fmt.Sprintf("The server rejected the %s request.", step.Name)
	}
	return fmt.Sprintf("The server rejected the %s request after %d earlier step(s) completed; please retry or contact support.", step.Name, len(completed))
}

func cloneRecord(in validation.Record) validation.Record {
	out := make(validation.Record, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneCaptured(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
