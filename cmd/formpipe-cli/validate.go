package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/openapi"
	"github.com/goliatone/go-formpipe/pkg/render"
)

var errInvalidValues = errors.New("values do not satisfy the form")

type validateOptions struct {
	definition string
	source     string
	operation  string
	valuesFile string
	set        []string
	format     string
}

func validateCmd() *cobra.Command {
	var opts validateOptions
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check values against a YAML definition or an OpenAPI operation",
		Example: `  formpipe-cli validate --definition form.yaml --set email=ada@example.com
  formpipe-cli validate --source openapi.json --operation createUser --values user.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cmd, opts)
			if err != nil {
				return err
			}
			values, err := collectValues(opts)
			if err != nil {
				return err
			}
			return validateValues(cmd, def, values, opts.format)
		},
	}
	cmd.Flags().StringVarP(&opts.definition, "definition", "d", "", "YAML form definition")
	cmd.Flags().StringVar(&opts.source, "source", "", "OpenAPI document path")
	cmd.Flags().StringVar(&opts.operation, "operation", "", "operation ID inside the OpenAPI document")
	cmd.Flags().StringVar(&opts.valuesFile, "values", "", "JSON object with field values")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "field value as name=value, repeatable")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output renderer (text or html)")
	cmd.MarkFlagsMutuallyExclusive("definition", "source")
	cmd.MarkFlagsRequiredTogether("source", "operation")
	return cmd
}

func loadDefinition(cmd *cobra.Command, opts validateOptions) (model.FormDefinition, error) {
	switch {
	case opts.definition != "":
		return model.LoadYAMLFile(opts.definition)
	case opts.source != "":
		return openapi.New().DefinitionFile(cmd.Context(), opts.source, opts.operation)
	}
	return model.FormDefinition{}, errors.New("one of --definition or --source is required")
}

// collectValues merges the JSON file with --set pairs; pairs win.
func collectValues(opts validateOptions) (map[string]string, error) {
	values := map[string]string{}
	if opts.valuesFile != "" {
		data, err := os.ReadFile(opts.valuesFile)
		if err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse values: %w", err)
		}
		for name, v := range raw {
			switch typed := v.(type) {
			case nil:
			case string:
				values[name] = typed
			default:
				values[name] = fmt.Sprint(typed)
			}
		}
	}
	for _, pair := range opts.set {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", pair)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}

func validateValues(cmd *cobra.Command, def model.FormDefinition, values map[string]string, format string) error {
	for name := range values {
		if _, ok := def.Field(name); !ok {
			return fmt.Errorf("unknown field %q in form %q", name, def.ID())
		}
	}

	tracker := formstate.NewForDefinition(def)
	for _, field := range def.Fields() {
		if err := tracker.OnChange(field.Name, values[field.Name]); err != nil {
			return err
		}
		if err := tracker.OnBlur(field.Name); err != nil {
			return err
		}
	}

	html, err := render.NewHTML()
	if err != nil {
		return err
	}
	renderer, err := render.NewRegistry(render.Text{}, html).Get(format)
	if err != nil {
		return err
	}
	state := tracker.State()
	out, err := renderer.Render(cmd.Context(), render.View{Definition: def, State: state}, render.RenderOptions{})
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}
	if !state.IsValid {
		return fmt.Errorf("%w: %d field(s) failed", errInvalidValues, len(state.Errors()))
	}
	return nil
}
