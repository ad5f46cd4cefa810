package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formpipe/pkg/model"
)

func TestNewFormDefinition_RejectsEmptyAndDuplicates(t *testing.T) {
	if _, err := model.NewFormDefinition("empty"); !errors.Is(err, model.ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}

	_, err := model.NewFormDefinition("dup",
		model.FieldSchema{Name: "email"},
		model.FieldSchema{Name: " email "},
	)
	if !errors.Is(err, model.ErrDuplicateField) {
		t.Fatalf("expected ErrDuplicateField, got %v", err)
	}

	if _, err := model.NewFormDefinition("unnamed", model.FieldSchema{Name: "  "}); err == nil {
		t.Fatalf("expected error for unnamed field")
	}
}

func TestNewFormDefinition_RejectsMalformedRules(t *testing.T) {
	cases := map[string]model.Rule{
		"negative length": model.MinLength(-1, ""),
		"bad pattern":     model.Pattern("([", ""),
		"empty pattern":   {Kind: model.RulePattern},
		"nil predicate":   {Kind: model.RuleCustom},
		"unknown kind":    {Kind: "shout"},
	}
	for name, rule := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := model.NewFormDefinition("f", model.FieldSchema{Name: "x", Rules: []model.Rule{rule}})
			if !errors.Is(err, model.ErrInvalidRule) {
				t.Fatalf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestFormDefinition_PreservesOrderAndCopies(t *testing.T) {
	rules := []model.Rule{model.Required("needed")}
	def := model.MustFormDefinition("order",
		model.FieldSchema{Name: "b", Rules: rules},
		model.FieldSchema{Name: "a"},
	)

	if diff := cmp.Diff([]string{"b", "a"}, def.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	rules[0].Message = "mutated"
	field, ok := def.Field("b")
	if !ok {
		t.Fatalf("expected field b")
	}
	if field.Rules[0].Message != "needed" {
		t.Fatalf("definition shares caller slice: %q", field.Rules[0].Message)
	}
	field.Rules[0].Message = "mutated again"
	again, _ := def.Field("b")
	if again.Rules[0].Message != "needed" {
		t.Fatalf("definition leaked internal slice: %q", again.Rules[0].Message)
	}
	if !again.Required() {
		t.Fatalf("expected b to be required")
	}
	if got, _ := def.Field("a"); got.Input != model.InputText {
		t.Fatalf("expected default text input, got %q", got.Input)
	}
}

func TestLoadYAML(t *testing.T) {
	const doc = `
id: company
fields:
  - name: legalName
    label: Company name
    rules:
      - kind: required
        message: Company name is required
      - kind: maxLength
        value: 10
  - name: country
    input: select
    options: [United States, Canada, Mexico]
    rules:
      - kind: oneOf
`
	def, err := model.LoadYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if def.ID() != "company" {
		t.Fatalf("unexpected id %q", def.ID())
	}
	country, ok := def.Field("country")
	if !ok {
		t.Fatalf("expected country field")
	}
	if len(country.Rules) != 1 || country.Rules[0].Kind != model.RuleCustom {
		t.Fatalf("expected oneOf to expand to a custom rule, got %#v", country.Rules)
	}
	if !country.Rules[0].Predicate("Canada") || country.Rules[0].Predicate("France") {
		t.Fatalf("oneOf predicate does not honour options")
	}
}

func TestLoadYAML_RejectsUnknownKeys(t *testing.T) {
	const doc = `
id: broken
fields:
  - name: a
    colour: red
`
	if _, err := model.LoadYAML(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
