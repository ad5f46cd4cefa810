// Package model defines the immutable form description consumed by the
// validator, the field state tracker and the renderers. A FormDefinition is
// an ordered list of FieldSchema values, each carrying declarative rules
// (required, minLength/maxLength, pattern, email, custom) and the message
// shown when the rule fails. Definitions are built with NewFormDefinition or
// loaded from YAML and never change after construction; accessors hand out
// copies so callers cannot mutate shared rule slices.
package model
