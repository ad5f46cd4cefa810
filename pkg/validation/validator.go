package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formpipe/pkg/model"
)

var validate = validator.New()

// Result is the outcome of validating one field. When OK is false Err holds
// the message of the first failing rule.
type Result struct {
	Field string
	Value string
	Err   string
	OK    bool
}

// Record holds validated, trimmed values keyed by field name.
type Record map[string]string

// FieldErrors maps field names to the message of their first failing rule.
type FieldErrors map[string]string

// Clone returns an independent copy.
func (e FieldErrors) Clone() FieldErrors {
	if len(e) == 0 {
		return nil
	}
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

type check func(value string) bool

type compiledRule struct {
	kind    model.RuleKind
	message string
	check   check
}

type compiledField struct {
	schema   model.FieldSchema
	required bool
	rules    []compiledRule
}

// Validator validates values for a single form definition.
type Validator struct {
	def    model.FormDefinition
	fields map[string]compiledField
}

// New compiles the rules of def. The definition has already checked that
// every pattern compiles, so New cannot fail.
func New(def model.FormDefinition) *Validator {
	v := &Validator{
		def:    def,
		fields: make(map[string]compiledField, def.Len()),
	}
	for _, field := range def.Fields() {
		cf := compiledField{schema: field, required: field.Required()}
		for _, rule := range field.Rules {
			cf.rules = append(cf.rules, compileRule(field, rule))
		}
		v.fields[field.Name] = cf
	}
	return v
}

// Definition returns the definition the validator was built from.
func (v *Validator) Definition() model.FormDefinition {
	return v.def
}

// Validate checks a single field value.
func (v *Validator) Validate(field, raw string) Result {
	cf, ok := v.fields[field]
	if !ok {
		return Result{Field: field, Err: fmt.Sprintf("unknown field %q", field)}
	}
	value := strings.TrimSpace(raw)
	if value == "" && !cf.required {
		return Result{Field: field, Value: value, OK: true}
	}
	for _, rule := range cf.rules {
		if !rule.check(value) {
			return Result{Field: field, Value: value, Err: rule.message}
		}
	}
	return Result{Field: field, Value: value, OK: true}
}

// ValidateAll validates every field of the definition, regardless of whether
// values holds an entry for it. Missing entries validate as empty strings.
// Keys in values that the definition does not declare are ignored.
func (v *Validator) ValidateAll(values map[string]string) (Record, FieldErrors) {
	record := make(Record, v.def.Len())
	var errs FieldErrors
	for _, name := range v.def.Names() {
		res := v.Validate(name, values[name])
		record[name] = res.Value
		if !res.OK {
			if errs == nil {
				errs = make(FieldErrors)
			}
			errs[name] = res.Err
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return record, nil
}

func compileRule(field model.FieldSchema, rule model.Rule) compiledRule {
	label := field.DisplayLabel()
	out := compiledRule{kind: rule.Kind, message: rule.Message}
	switch rule.Kind {
	case model.RuleRequired:
		out.check = func(value string) bool { return value != "" }
		out.message = orDefault(rule.Message, "%s is required", label)
	case model.RuleMinLength:
		n := rule.Value
		out.check = func(value string) bool { return utf8.RuneCountInString(value) >= n }
		out.message = orDefault(rule.Message, "%s must be at least %d characters", label, n)
	case model.RuleMaxLength:
		n := rule.Value
		out.check = func(value string) bool { return utf8.RuneCountInString(value) <= n }
		out.message = orDefault(rule.Message, "%s must be at most %d characters", label, n)
	case model.RulePattern:
		re := regexp.MustCompile(rule.Pattern)
		out.check = re.MatchString
		out.message = orDefault(rule.Message, "%s has an invalid format", label)
	case model.RuleEmail:
		out.check = func(value string) bool { return validate.Var(value, "required,email") == nil }
		out.message = orDefault(rule.Message, "%s must be a valid email address", label)
	case model.RuleCustom:
		pred := rule.Predicate
		out.check = func(value string) bool { return pred(value) }
		out.message = orDefault(rule.Message, "%s is invalid", label)
	default:
		out.check = func(string) bool { return false }
		out.message = orDefault(rule.Message, "%s has an unsupported rule", label)
	}
	return out
}

func orDefault(message, format string, args ...any) string {
	if strings.TrimSpace(message) != "" {
		return message
	}
	return fmt.Sprintf(format, args...)
}
