package formstate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/validation"
)

var (
	// ErrUnknownField is returned for events naming a field the definition
	// does not declare.
	ErrUnknownField = errors.New("formstate: unknown field")
	// ErrSubmitInFlight is returned by BeginSubmit while a submission holds
	// the gate.
	ErrSubmitInFlight = errors.New("formstate: submission already in flight")
)

// Tracker owns the FormState of one form instance. All methods are safe for
// concurrent use, but a tracker must not be shared between form instances.
type Tracker struct {
	mu         sync.Mutex
	validator  *validation.Validator
	order      []string
	required   map[string]bool
	fields     map[string]*FieldState
	submitting bool
	valid      bool
}

// New creates a tracker with every field untouched and empty.
func New(v *validation.Validator) *Tracker {
	def := v.Definition()
	t := &Tracker{
		validator: v,
		order:     def.Names(),
		required:  make(map[string]bool, def.Len()),
		fields:    make(map[string]*FieldState, def.Len()),
	}
	for _, field := range def.Fields() {
		t.required[field.Name] = field.Required()
		t.fields[field.Name] = &FieldState{}
	}
	t.recompute()
	return t
}

// NewForDefinition builds the validator and tracker in one step.
func NewForDefinition(def model.FormDefinition) *Tracker {
	return New(validation.New(def))
}

// Definition returns the tracked form definition.
func (t *Tracker) Definition() model.FormDefinition {
	return t.validator.Definition()
}

// OnChange stores value for field. Once the field has been touched the new
// value is validated immediately.
func (t *Tracker) OnChange(field, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.fields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	v := value
	state.Value = &v
	if state.Touched {
		t.validateLocked(field, state)
	}
	t.recompute()
	return nil
}

// OnBlur marks the field touched and validates it.
func (t *Tracker) OnBlur(field string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.fields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	state.Touched = true
	t.validateLocked(field, state)
	t.recompute()
	return nil
}

// State returns a deep copy of the current form state.
func (t *Tracker) State() FormState {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := FormState{
		Fields:       make(map[string]FieldState, len(t.fields)),
		Order:        append([]string(nil), t.order...),
		IsSubmitting: t.submitting,
		IsValid:      t.valid,
	}
	for name, state := range t.fields {
		out.Fields[name] = state.clone()
	}
	return out
}

// Values returns the raw values entered so far. Fields without input are
// reported as empty strings.
func (t *Tracker) Values() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.valuesLocked()
}

// Validate runs every rule against the current values, marks every field
// touched, and records the resulting errors. Fields the user never visited
// are therefore surfaced as well.
func (t *Tracker) Validate() (validation.Record, validation.FieldErrors) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, errs := t.validator.ValidateAll(t.valuesLocked())
	for name, state := range t.fields {
		state.Touched = true
		if msg, failed := errs[name]; failed {
			m := msg
			state.Error = &m
		} else {
			state.Error = nil
		}
	}
	t.recompute()
	return record, errs
}

// ApplyErrors surfaces externally produced messages (for example a backend
// rejection) on known fields. Unknown names are ignored. The messages are
// cleared by the next validation of the field.
func (t *Tracker) ApplyErrors(errs map[string]string) {
	if len(errs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for name, msg := range errs {
		state, ok := t.fields[name]
		if !ok || strings.TrimSpace(msg) == "" {
			continue
		}
		m := msg
		state.Touched = true
		state.Error = &m
	}
	t.recompute()
}

// BeginSubmit acquires the submitting gate. The returned release function
// clears IsSubmitting and is safe to call more than once.
func (t *Tracker) BeginSubmit() (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.submitting {
		return nil, ErrSubmitInFlight
	}
	t.submitting = true

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			t.submitting = false
			t.mu.Unlock()
		})
	}, nil
}

// Reset clears every field back to its initial state. It does not touch the
// submitting gate.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name := range t.fields {
		t.fields[name] = &FieldState{}
	}
	t.recompute()
}

func (t *Tracker) validateLocked(field string, state *FieldState) {
	res := t.validator.Validate(field, state.StringValue())
	if res.OK {
		state.Error = nil
		return
	}
	msg := res.Err
	state.Error = &msg
}

func (t *Tracker) valuesLocked() map[string]string {
	out := make(map[string]string, len(t.fields))
	for name, state := range t.fields {
		out[name] = state.StringValue()
	}
	return out
}

// recompute derives IsValid; callers hold t.mu.
func (t *Tracker) recompute() {
	valid := true
	for name, state := range t.fields {
		if state.Error != nil {
			valid = false
			break
		}
		if t.required[name] && strings.TrimSpace(state.StringValue()) == "" {
			valid = false
			break
		}
	}
	t.valid = valid
}
