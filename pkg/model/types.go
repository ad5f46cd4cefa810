package model

// RuleKind identifies a declarative validation rule.
type RuleKind string

const (
	RuleRequired  RuleKind = "required"
	RuleMinLength RuleKind = "minLength"
	RuleMaxLength RuleKind = "maxLength"
	RulePattern   RuleKind = "pattern"
	RuleEmail     RuleKind = "email"
	RuleCustom    RuleKind = "custom"
)

// InputKind hints renderers at the control to use for a field.
type InputKind string

const (
	InputText     InputKind = "text"
	InputEmail    InputKind = "email"
	InputSelect   InputKind = "select"
	InputCheckbox InputKind = "checkbox"
	InputNumber   InputKind = "number"
	InputTextArea InputKind = "textarea"
)

// Predicate reports whether a trimmed, non-empty value satisfies a custom rule.
type Predicate func(value string) bool

// Rule represents a single validation constraint applied to a field. Length
// rules read Value, pattern rules read Pattern, custom rules read Predicate.
// Message is the human readable text reported when the rule fails; an empty
// message falls back to a generated default.
type Rule struct {
	Kind      RuleKind  `json:"kind" yaml:"kind"`
	Value     int       `json:"value,omitempty" yaml:"value,omitempty"`
	Pattern   string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`
	Predicate Predicate `json:"-" yaml:"-"`
}

// FieldSchema describes an individual input inside a form.
type FieldSchema struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Input       InputKind `json:"input,omitempty" yaml:"input,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Rules       []Rule    `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Required reports whether the field declares a required rule.
func (f FieldSchema) Required() bool {
	for _, rule := range f.Rules {
		if rule.Kind == RuleRequired {
			return true
		}
	}
	return false
}

// DisplayLabel returns the label, falling back to the field name.
func (f FieldSchema) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func (f FieldSchema) clone() FieldSchema {
	out := f
	if len(f.Options) > 0 {
		out.Options = append([]string(nil), f.Options...)
	}
	if len(f.Rules) > 0 {
		out.Rules = append([]Rule(nil), f.Rules...)
	}
	return out
}

// Required is a convenience constructor for a required rule.
func Required(message string) Rule {
	return Rule{Kind: RuleRequired, Message: message}
}

// MinLength builds a minimum rune-length rule.
func MinLength(n int, message string) Rule {
	return Rule{Kind: RuleMinLength, Value: n, Message: message}
}

// MaxLength builds a maximum rune-length rule.
func MaxLength(n int, message string) Rule {
	return Rule{Kind: RuleMaxLength, Value: n, Message: message}
}

// Pattern builds a regular expression rule. The expression is matched as
// written, so authors anchor it when a full match is intended.
func Pattern(expr, message string) Rule {
	return Rule{Kind: RulePattern, Pattern: expr, Message: message}
}

// Email builds an email-format rule.
func Email(message string) Rule {
	return Rule{Kind: RuleEmail, Message: message}
}

// Custom builds a rule backed by an arbitrary predicate.
func Custom(predicate Predicate, message string) Rule {
	return Rule{Kind: RuleCustom, Predicate: predicate, Message: message}
}

// OneOf returns a custom rule accepting only the listed values.
func OneOf(message string, allowed ...string) Rule {
	set := make(map[string]struct{}, len(allowed))
	for _, value := range allowed {
		set[value] = struct{}{}
	}
	return Custom(func(value string) bool {
		_, ok := set[value]
		return ok
	}, message)
}
