package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a single line prompt. Placeholder doubles as help
// text when Help is empty.
type InputConfig struct {
	Message     string
	Default     string
	Help        string
	Placeholder string
}

// ConfirmConfig describes a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a single choice prompt. DefaultIndex outside
// Options means no preselection.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
	PageSize     int
}

// TextAreaConfig describes a multi-line prompt.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// PromptDriver is the terminal seen by a Session. Tests replace it with a
// scripted driver.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the interactive driver backed by survey. Prompts
// use the process terminal; Info lines go to out, or stdout when nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := ask(ctx, &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: inputHelp(cfg)}, &answer)
	return answer, err
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := ask(ctx, &survey.Password{Message: cfg.Message, Help: inputHelp(cfg)}, &answer)
	return answer, err
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var answer bool
	err := ask(ctx, &survey.Confirm{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &answer)
	return answer, err
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if len(cfg.Options) == 0 {
		return -1, ErrNoOptions
	}
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.DefaultIndex]
	}
	var opts []survey.AskOpt
	if cfg.PageSize > 0 {
		opts = append(opts, survey.WithPageSize(cfg.PageSize))
	}
	var answer string
	if err := ask(ctx, prompt, &answer, opts...); err != nil {
		return -1, err
	}
	return indexOf(cfg.Options, answer), nil
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	var answer string
	err := ask(ctx, &survey.Multiline{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &answer)
	return answer, err
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ask runs one survey prompt. survey blocks on the terminal and cannot be
// interrupted, so ctx is only checked before asking.
func ask(ctx context.Context, prompt survey.Prompt, response any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.AskOne(prompt, response, opts...); err != nil {
		return translateSurveyErr(err)
	}
	return nil
}

func inputHelp(cfg InputConfig) string {
	if cfg.Help != "" {
		return cfg.Help
	}
	return cfg.Placeholder
}

// translateSurveyErr maps Ctrl-C and a closed stdin to ErrAborted.
func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
