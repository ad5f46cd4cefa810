package submission

import "github.com/goliatone/go-formpipe/pkg/validation"

// Kind names an outcome variant.
type Kind string

const (
	KindSuccess            Kind = "success"
	KindPartialFailure     Kind = "partial_failure"
	KindValidationRejected Kind = "validation_rejected"
)

// Reason classifies why a step failed.
type Reason string

const (
	// ReasonTransport covers dial, TLS, timeout and cancellation failures.
	ReasonTransport Reason = "transport"
	// ReasonStatus is a response outside the 2xx range.
	ReasonStatus Reason = "status"
	// ReasonMalformed is an unusable body where a captured value was needed.
	ReasonMalformed Reason = "malformed_response"
	// ReasonSecret means the one-time credential could not be generated.
	ReasonSecret Reason = "secret_generation"
	// ReasonBuild means the payload builder failed or produced unencodable data.
	ReasonBuild Reason = "payload_build"
)

// Outcome is the single result of a submission attempt. The concrete type is
// one of Success, PartialFailure or ValidationRejected.
type Outcome interface {
	Kind() Kind
	sealed()
}

// Success reports that every step completed.
type Success struct {
	Redirect string
	// Captured holds the values captured along the way (identifiers, never
	// credentials).
	Captured map[string]string
}

func (Success) Kind() Kind { return KindSuccess }
func (Success) sealed()    {}

// PartialFailure reports the first failing step. Steps before it completed
// and their records exist on the backend.
type PartialFailure struct {
	// Step is the 1-indexed position of the failing step.
	Step     int
	StepName string
	Reason   Reason
	// Message is safe to show to the user.
	Message string
	// Status is the HTTP status for ReasonStatus, zero otherwise.
	Status int
	// FieldErrors holds backend messages mapped onto known form fields.
	FieldErrors map[string]string
	// FormErrors holds backend messages that could not be mapped to a field.
	FormErrors []string
	// Completed lists the names of steps that succeeded before the failure.
	Completed []string
	Cause     error
}

func (PartialFailure) Kind() Kind { return KindPartialFailure }
func (PartialFailure) sealed()    {}

// Orphaned reports whether earlier steps left records behind.
func (p PartialFailure) Orphaned() bool {
	return len(p.Completed) > 0
}

func (p PartialFailure) Error() string {
	if p.Cause != nil {
		return "submission: step " + p.StepName + " failed: " + p.Cause.Error()
	}
	return "submission: step " + p.StepName + " failed: " + p.Message
}

func (p PartialFailure) Unwrap() error { return p.Cause }

// ValidationRejected reports that the form failed validation and no request
// was sent.
type ValidationRejected struct {
	FieldErrors validation.FieldErrors
}

func (ValidationRejected) Kind() Kind { return KindValidationRejected }
func (ValidationRejected) sealed()    {}
