package model

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleOneOf is only meaningful in YAML documents; it expands to a custom rule
// accepting the field's declared options.
const ruleOneOf RuleKind = "oneOf"

type yamlDocument struct {
	ID     string        `yaml:"id"`
	Fields []FieldSchema `yaml:"fields"`
}

// LoadYAML decodes a form definition document:
//
//	id: registration
//	fields:
//	  - name: email
//	    label: Email address
//	    input: email
//	    rules:
//	      - kind: required
//	        message: Email is required
//	      - kind: email
//
// Custom predicates cannot be expressed in YAML; the oneOf kind restricts a
// field to its options instead.
func LoadYAML(r io.Reader) (FormDefinition, error) {
	if r == nil {
		return FormDefinition{}, fmt.Errorf("model: yaml reader is nil")
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return FormDefinition{}, ErrNoFields
		}
		return FormDefinition{}, fmt.Errorf("model: decode yaml: %w", err)
	}

	for i := range doc.Fields {
		field := &doc.Fields[i]
		for j, rule := range field.Rules {
			if rule.Kind != ruleOneOf {
				continue
			}
			if len(field.Options) == 0 {
				return FormDefinition{}, fmt.Errorf("%w: oneOf on %q requires options", ErrInvalidRule, field.Name)
			}
			message := rule.Message
			if message == "" {
				message = fmt.Sprintf("%s must be one of the listed options", field.DisplayLabel())
			}
			field.Rules[j] = OneOf(message, field.Options...)
		}
	}
	return NewFormDefinition(doc.ID, doc.Fields...)
}

// LoadYAMLBytes is a convenience wrapper around LoadYAML.
func LoadYAMLBytes(data []byte) (FormDefinition, error) {
	return LoadYAML(bytes.NewReader(data))
}

// LoadYAMLFile reads a definition from disk.
func LoadYAMLFile(path string) (FormDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormDefinition{}, fmt.Errorf("model: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadYAML(f)
}
