// Package submission coordinates multi-step writes for a validated form.
//
// A Request is an ordered list of WriteSteps. Each step builds a JSON payload
// from the validated record plus values captured from earlier responses, and
// may capture one field of its own response for later steps. Steps run
// strictly in sequence; the first failure stops the chain and is reported as
// a PartialFailure naming the failing step (1-indexed), so callers can tell
// "user created, company failed" apart from "nothing was created".
//
// Submit always resolves to exactly one Outcome. It returns an error only for
// misuse: a nil form, or a second Submit while the form's gate is held.
package submission
