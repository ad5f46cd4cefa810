package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoFields is returned when a definition declares no fields.
	ErrNoFields = errors.New("model: form definition requires at least one field")
	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("model: duplicate field name")
	// ErrInvalidRule is returned for rules that cannot be evaluated.
	ErrInvalidRule = errors.New("model: invalid rule")
)

// FormDefinition is the ordered, immutable set of fields making up a form.
type FormDefinition struct {
	id     string
	fields []FieldSchema
	index  map[string]int
}

// NewFormDefinition validates and freezes the supplied fields.
func NewFormDefinition(id string, fields ...FieldSchema) (FormDefinition, error) {
	if len(fields) == 0 {
		return FormDefinition{}, ErrNoFields
	}

	def := FormDefinition{
		id:     strings.TrimSpace(id),
		fields: make([]FieldSchema, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return FormDefinition{}, fmt.Errorf("model: field %d has no name", i)
		}
		if _, exists := def.index[name]; exists {
			return FormDefinition{}, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		if err := checkRules(name, field.Rules); err != nil {
			return FormDefinition{}, err
		}
		field = field.clone()
		field.Name = name
		if field.Input == "" {
			field.Input = InputText
		}
		def.index[name] = len(def.fields)
		def.fields = append(def.fields, field)
	}
	return def, nil
}

// MustFormDefinition panics when the definition is invalid. Intended for
// package-level definitions built from literals.
func MustFormDefinition(id string, fields ...FieldSchema) FormDefinition {
	def, err := NewFormDefinition(id, fields...)
	if err != nil {
		panic(err)
	}
	return def
}

// ID returns the form identifier.
func (d FormDefinition) ID() string {
	return d.id
}

// Len returns the number of fields.
func (d FormDefinition) Len() int {
	return len(d.fields)
}

// Fields returns a copy of the fields in declaration order.
func (d FormDefinition) Fields() []FieldSchema {
	out := make([]FieldSchema, len(d.fields))
	for i, field := range d.fields {
		out[i] = field.clone()
	}
	return out
}

// Names returns field names in declaration order.
func (d FormDefinition) Names() []string {
	out := make([]string, len(d.fields))
	for i, field := range d.fields {
		out[i] = field.Name
	}
	return out
}

// Field looks up a field by name.
func (d FormDefinition) Field(name string) (FieldSchema, bool) {
	idx, ok := d.index[name]
	if !ok {
		return FieldSchema{}, false
	}
	return d.fields[idx].clone(), true
}

// Has reports whether the definition declares name.
func (d FormDefinition) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

func checkRules(field string, rules []Rule) error {
	for _, rule := range rules {
		switch rule.Kind {
		case RuleRequired, RuleEmail:
		case RuleMinLength, RuleMaxLength:
			if rule.Value < 0 {
				return fmt.Errorf("%w: %s on %q has negative length", ErrInvalidRule, rule.Kind, field)
			}
		case RulePattern:
			if rule.Pattern == "" {
				return fmt.Errorf("%w: pattern on %q is empty", ErrInvalidRule, field)
			}
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return fmt.Errorf("%w: pattern on %q: %v", ErrInvalidRule, field, err)
			}
		case RuleCustom:
			if rule.Predicate == nil {
				return fmt.Errorf("%w: custom rule on %q has no predicate", ErrInvalidRule, field)
			}
		default:
			return fmt.Errorf("%w: unknown kind %q on %q", ErrInvalidRule, rule.Kind, field)
		}
	}
	return nil
}
