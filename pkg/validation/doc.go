// Package validation evaluates a model.FormDefinition against raw string
// input. Validation is pure and synchronous: a Validator compiles rules once
// and then only reads them, so a single instance can be shared by every form
// built from the same definition.
//
// When several rules fail for a field, the first failing rule in declaration
// order is reported. Optional fields left empty skip their remaining rules.
package validation
