package openapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formpipe/pkg/model"
)

var (
	// ErrOperationNotFound is returned when no operation matches the id.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned for operations without an object body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

const (
	orderExtension = "x-formpipe-order"
	inputExtension = "x-formpipe-input"
)

// Options tune the parser.
type Options struct {
	// Validate runs the kin-openapi document validator before extraction.
	Validate bool
	// AllowExternalRefs lets the loader follow refs outside the document.
	AllowExternalRefs bool
}

// Option mutates Options.
type Option func(*Options)

// WithValidation toggles document validation.
func WithValidation(enabled bool) Option {
	return func(o *Options) { o.Validate = enabled }
}

// WithExternalRefs toggles external reference resolution.
func WithExternalRefs(enabled bool) Option {
	return func(o *Options) { o.AllowExternalRefs = enabled }
}

// Parser turns OpenAPI documents into form definitions.
type Parser struct {
	options Options
}

// New constructs a Parser. Validation is on by default.
func New(options ...Option) *Parser {
	cfg := Options{Validate: true}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Parser{options: cfg}
}

// DefinitionFile reads path and calls Definition.
func (p *Parser) DefinitionFile(ctx context.Context, path, operationID string) (model.FormDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return p.Definition(ctx, raw, operationID)
}

// Definition loads raw (JSON or YAML) and builds a FormDefinition for the
// request body of operationID. The definition id is the operation id.
func (p *Parser) Definition(ctx context.Context, raw []byte, operationID string) (model.FormDefinition, error) {
	if err := ctx.Err(); err != nil {
		return model.FormDefinition{}, err
	}
	if len(raw) == 0 {
		return model.FormDefinition{}, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.AllowExternalRefs,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("openapi: load document: %w", err)
	}
	if p.options.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return model.FormDefinition{}, fmt.Errorf("openapi: validate: %w", err)
		}
	}

	op := findOperation(doc, operationID)
	if op == nil {
		return model.FormDefinition{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	schema := requestSchema(op.RequestBody)
	if schema == nil || len(schema.Properties) == 0 {
		return model.FormDefinition{}, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}
	def, err := model.NewFormDefinition(operationID, fieldsFromSchema(schema)...)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("openapi: %s: %w", operationID, err)
	}
	return def, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

type property struct {
	name   string
	order  float64
	schema *openapi3.Schema
}

func fieldsFromSchema(schema *openapi3.Schema) []model.FieldSchema {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	props := make([]property, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil || ref.Value.ReadOnly {
			continue
		}
		order, ok := numberExtension(ref.Value.Extensions, orderExtension)
		if !ok {
			order = math.MaxFloat64
		}
		props = append(props, property{name: name, order: order, schema: ref.Value})
	}
	sort.SliceStable(props, func(i, j int) bool {
		if props[i].order != props[j].order {
			return props[i].order < props[j].order
		}
		return props[i].name < props[j].name
	})

	fields := make([]model.FieldSchema, 0, len(props))
	for _, prop := range props {
		fields = append(fields, fieldFromProperty(prop.name, prop.schema, required[prop.name]))
	}
	return fields
}

func fieldFromProperty(name string, s *openapi3.Schema, required bool) model.FieldSchema {
	field := model.FieldSchema{
		Name:        name,
		Label:       s.Title,
		Placeholder: s.Description,
		Input:       inputKind(s),
	}
	if required {
		field.Rules = append(field.Rules, model.Required(""))
	}
	if s.MinLength > 0 {
		field.Rules = append(field.Rules, model.MinLength(int(s.MinLength), ""))
	}
	if s.MaxLength != nil {
		field.Rules = append(field.Rules, model.MaxLength(int(*s.MaxLength), ""))
	}
	if s.Format == "email" {
		field.Rules = append(field.Rules, model.Email(""))
	}
	if s.Pattern != "" {
		field.Rules = append(field.Rules, model.Pattern(s.Pattern, ""))
	}
	if field.Input == model.InputNumber && s.Pattern == "" {
		field.Rules = append(field.Rules, model.Pattern(`^-?[0-9]+(\.[0-9]+)?$`, ""))
	}
	if len(s.Enum) > 0 {
		options := make([]string, 0, len(s.Enum))
		for _, value := range s.Enum {
			options = append(options, fmt.Sprint(value))
		}
		field.Options = options
		field.Rules = append(field.Rules, model.OneOf("", options...))
	}
	return field
}

func inputKind(s *openapi3.Schema) model.InputKind {
	if raw, ok := s.Extensions[inputExtension].(string); ok && strings.TrimSpace(raw) != "" {
		return model.InputKind(strings.TrimSpace(raw))
	}
	switch {
	case len(s.Enum) > 0:
		return model.InputSelect
	case s.Format == "email":
		return model.InputEmail
	}
	switch firstSchemaType(s.Type) {
	case "boolean":
		return model.InputCheckbox
	case "integer", "number":
		return model.InputNumber
	}
	if s.MaxLength != nil && *s.MaxLength > 255 {
		return model.InputTextArea
	}
	return model.InputText
}

func numberExtension(ext map[string]any, key string) (float64, bool) {
	switch v := ext[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != "null" {
			return value
		}
	}
	return ""
}
