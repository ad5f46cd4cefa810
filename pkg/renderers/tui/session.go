package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	formpipe "github.com/goliatone/go-formpipe"
	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/render"
	"github.com/goliatone/go-formpipe/pkg/submission"
)

const defaultMaxAttempts = 3

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxAttempts bounds how many times a failing field is asked again.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithSecretFields prompts the named fields without echo.
func WithSecretFields(names ...string) Option {
	return func(s *Session) {
		for _, name := range names {
			s.secret[name] = struct{}{}
		}
	}
}

// WithConfirm asks for confirmation before submitting.
func WithConfirm(enabled bool) Option {
	return func(s *Session) {
		s.confirm = enabled
	}
}

// Session walks a Pipeline one field at a time in a terminal. Every answer is
// fed through OnChange and OnBlur so terminal input is validated by the same
// rules as any other presentation.
type Session struct {
	pipeline    *formpipe.Pipeline
	driver      PromptDriver
	logger      *zap.Logger
	summary     render.Text
	maxAttempts int
	secret      map[string]struct{}
	confirm     bool
}

// NewSession binds pipeline to a terminal session.
func NewSession(pipeline *formpipe.Pipeline, opts ...Option) (*Session, error) {
	if pipeline == nil {
		return nil, errors.New("tui: pipeline is required")
	}
	s := &Session{
		pipeline:    pipeline,
		logger:      zap.NewNop(),
		maxAttempts: defaultMaxAttempts,
		secret:      make(map[string]struct{}),
		confirm:     true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// Collect prompts every field in definition order.
func (s *Session) Collect(ctx context.Context) error {
	def := s.pipeline.Tracker().Definition()
	for _, field := range def.Fields() {
		if err := s.askField(ctx, def.ID(), field); err != nil {
			return err
		}
	}
	return nil
}

// Run collects the form, submits it and reports the outcome. Declining the
// confirmation returns ErrAborted without submitting.
func (s *Session) Run(ctx context.Context) (submission.Outcome, error) {
	if err := s.Collect(ctx); err != nil {
		return nil, err
	}
	if err := s.printSummary(ctx, nil); err != nil {
		return nil, err
	}
	if s.confirm {
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAborted
		}
	}
	outcome, err := s.pipeline.Submit(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.report(ctx, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (s *Session) askField(ctx context.Context, formID string, field model.FieldSchema) error {
	for attempt := 1; ; attempt++ {
		current := s.pipeline.State().Field(field.Name).StringValue()
		value, err := s.prompt(ctx, field, current)
		if err != nil {
			return err
		}
		if err := s.pipeline.OnChange(field.Name, value); err != nil {
			return err
		}
		if err := s.pipeline.OnBlur(field.Name); err != nil {
			return err
		}
		state := s.pipeline.State().Field(field.Name)
		if state.Error == nil {
			return nil
		}
		s.logger.Debug("field rejected",
			zap.String("form", formID),
			zap.String("field", field.Name),
			zap.Int("attempt", attempt),
		)
		if err := s.driver.Info(ctx, "  "+*state.Error); err != nil {
			return err
		}
		if attempt >= s.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Name)
		}
	}
}

func (s *Session) prompt(ctx context.Context, field model.FieldSchema, current string) (string, error) {
	message := field.DisplayLabel()
	if field.Required() {
		message += " *"
	}
	switch field.Input {
	case model.InputSelect:
		if len(field.Options) == 0 {
			return "", fmt.Errorf("%w: %s", ErrNoOptions, field.Name)
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      field.Options,
			DefaultIndex: indexOf(field.Options, current),
			Help:         field.Placeholder,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", nil
		}
		return field.Options[idx], nil
	case model.InputCheckbox:
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: current == "true",
			Help:    field.Placeholder,
		})
		if err != nil {
			return "", err
		}
		if ok {
			return "true", nil
		}
		return "false", nil
	case model.InputTextArea:
		return s.driver.TextArea(ctx, TextAreaConfig{
			Message: message,
			Default: current,
			Help:    field.Placeholder,
		})
	}
	cfg := InputConfig{
		Message:     message,
		Default:     current,
		Placeholder: field.Placeholder,
	}
	if _, ok := s.secret[field.Name]; ok {
		cfg.Default = ""
		return s.driver.Password(ctx, cfg)
	}
	return s.driver.Input(ctx, cfg)
}

func (s *Session) printSummary(ctx context.Context, formErrors []string) error {
	view := render.View{
		Definition: s.pipeline.Tracker().Definition(),
		State:      s.pipeline.State(),
	}
	if len(s.secret) > 0 {
		view.State = maskSecrets(view.State, s.secret)
	}
	out, err := s.summary.Render(ctx, view, render.RenderOptions{FormErrors: formErrors})
	if err != nil {
		return err
	}
	return s.driver.Info(ctx, strings.TrimRight(string(out), "\n"))
}

func (s *Session) report(ctx context.Context, outcome submission.Outcome) error {
	switch o := outcome.(type) {
	case submission.Success:
		msg := "Submitted."
		if o.Redirect != "" {
			msg += " Continue at " + o.Redirect
		}
		return s.driver.Info(ctx, msg)
	case submission.ValidationRejected:
		return s.printSummary(ctx, nil)
	case submission.PartialFailure:
		if err := s.driver.Info(ctx, fmt.Sprintf("Step %q failed: %s", o.StepName, o.Message)); err != nil {
			return err
		}
		if o.Orphaned() {
			if err := s.driver.Info(ctx, "Completed before the failure: "+strings.Join(o.Completed, ", ")); err != nil {
				return err
			}
		}
		if len(o.FieldErrors) > 0 || len(o.FormErrors) > 0 {
			return s.printSummary(ctx, o.FormErrors)
		}
	}
	return nil
}

func maskSecrets(state formstate.FormState, secret map[string]struct{}) formstate.FormState {
	masked := state
	masked.Fields = make(map[string]formstate.FieldState, len(state.Fields))
	for name, field := range state.Fields {
		if _, ok := secret[name]; ok && field.Value != nil {
			stars := strings.Repeat("*", 8)
			field.Value = &stars
		}
		masked.Fields[name] = field
	}
	return masked
}
