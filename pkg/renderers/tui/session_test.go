package tui_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	formpipe "github.com/goliatone/go-formpipe"
	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/renderers/tui"
	"github.com/goliatone/go-formpipe/pkg/submission"
	"github.com/goliatone/go-formpipe/pkg/testsupport"
)

// scriptDriver answers prompts from queues and records what was shown.
type scriptDriver struct {
	inputs    []string
	passwords []string
	selects   []int
	confirms  []bool
	texts     []string
	prompts   []string
	info      []string
}

func (d *scriptDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	d.prompts = append(d.prompts, "input:"+cfg.Message)
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptDriver) Password(_ context.Context, cfg tui.InputConfig) (string, error) {
	d.prompts = append(d.prompts, "password:"+cfg.Message)
	if len(d.passwords) == 0 {
		return "", errors.New("no password scripted")
	}
	v := d.passwords[0]
	d.passwords = d.passwords[1:]
	return v, nil
}

func (d *scriptDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	d.prompts = append(d.prompts, "confirm:"+cfg.Message)
	if len(d.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	v := d.confirms[0]
	d.confirms = d.confirms[1:]
	return v, nil
}

func (d *scriptDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	d.prompts = append(d.prompts, "select:"+cfg.Message)
	if len(d.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	d.prompts = append(d.prompts, "textarea:"+cfg.Message)
	if len(d.texts) == 0 {
		return "", errors.New("no textarea scripted")
	}
	v := d.texts[0]
	d.texts = d.texts[1:]
	return v, nil
}

func (d *scriptDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func (d *scriptDriver) output() string {
	return strings.Join(d.info, "\n")
}

func contactPipeline(t *testing.T, fake *testsupport.Transport) *formpipe.Pipeline {
	t.Helper()
	def := model.MustFormDefinition("contact",
		model.FieldSchema{Name: "email", Label: "Email", Rules: []model.Rule{model.Required("Email is required"), model.Email("Enter a valid email")}},
		model.FieldSchema{Name: "country", Label: "Country", Input: model.InputSelect, Options: []string{"Canada", "Mexico"}},
		model.FieldSchema{Name: "terms", Label: "Accept terms", Input: model.InputCheckbox},
		model.FieldSchema{Name: "notes", Label: "Notes", Input: model.InputTextArea},
		model.FieldSchema{Name: "token", Label: "Token"},
	)
	req := submission.MustRequest("/done", submission.WriteStep{
		Name: "contact",
		Path: "/api/contacts/",
		Build: func(in submission.StepInput) (any, error) {
			return map[string]any{
				"email":   in.Value("email"),
				"country": in.Value("country"),
				"terms":   in.Value("terms"),
				"notes":   in.Optional("notes"),
			}, nil
		},
	})
	coordinator, err := submission.NewCoordinator(fake, req)
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	return formpipe.New(def, coordinator)
}

func TestSession_RunPromptsRetriesAndSubmits(t *testing.T) {
	fake := testsupport.NewTransport(testsupport.Reply{Status: http.StatusCreated, Body: `{}`})
	driver := &scriptDriver{
		inputs:    []string{"nope", "ada@example.com"},
		selects:   []int{1},
		confirms:  []bool{true, true},
		texts:     []string{""},
		passwords: []string{"s3cret"},
	}
	pipeline := contactPipeline(t, fake)
	session, err := tui.NewSession(pipeline, tui.WithPromptDriver(driver), tui.WithSecretFields("token"))
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	outcome, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff(submission.Success{Redirect: "/done", Captured: map[string]string{}}, outcome); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}

	wantPrompts := []string{
		"input:Email *",
		"input:Email *",
		"select:Country",
		"confirm:Accept terms",
		"textarea:Notes",
		"password:Token",
		"confirm:Submit?",
	}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}

	out := driver.output()
	if !strings.Contains(out, "Enter a valid email") {
		t.Fatalf("expected retry message, got:\n%s", out)
	}
	if strings.Contains(out, "s3cret") {
		t.Fatalf("secret field echoed in summary:\n%s", out)
	}
	if !strings.Contains(out, "Continue at /done") {
		t.Fatalf("expected success message, got:\n%s", out)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	want := map[string]any{"email": "ada@example.com", "country": "Mexico", "terms": "true", "notes": nil}
	if diff := cmp.Diff(want, calls[0].Decode(t)); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_GivesUpAfterMaxAttempts(t *testing.T) {
	fake := testsupport.NewTransport()
	driver := &scriptDriver{inputs: []string{"", "bad"}}
	session, err := tui.NewSession(contactPipeline(t, fake), tui.WithPromptDriver(driver), tui.WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	_, err = session.Run(context.Background())
	if !errors.Is(err, tui.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("expected no calls")
	}
}

func TestSession_DeclinedConfirmationDoesNotSubmit(t *testing.T) {
	fake := testsupport.NewTransport()
	driver := &scriptDriver{
		inputs:   []string{"ada@example.com", "tok"},
		selects:  []int{0},
		confirms: []bool{false, false},
		texts:    []string{"hi"},
	}
	session, err := tui.NewSession(contactPipeline(t, fake), tui.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	_, err = session.Run(context.Background())
	if !errors.Is(err, tui.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("expected no calls")
	}
}

func TestSession_ReportsPartialFailure(t *testing.T) {
	fake := testsupport.NewTransport(testsupport.JSONReply(http.StatusBadRequest, map[string]any{
		"email":  []string{"already registered"},
		"detail": "try again later",
	}))
	driver := &scriptDriver{
		inputs:   []string{"ada@example.com", "tok"},
		selects:  []int{0},
		confirms: []bool{false},
		texts:    []string{""},
	}
	session, err := tui.NewSession(contactPipeline(t, fake), tui.WithPromptDriver(driver), tui.WithConfirm(false))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	outcome, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	failure, ok := outcome.(submission.PartialFailure)
	if !ok {
		t.Fatalf("expected PartialFailure, got %T", outcome)
	}
	if failure.StepName != "contact" {
		t.Fatalf("unexpected step %q", failure.StepName)
	}
	out := driver.output()
	for _, want := range []string{`Step "contact" failed`, "already registered", "! try again later"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestNewSession_RequiresPipeline(t *testing.T) {
	if _, err := tui.NewSession(nil); err == nil {
		t.Fatalf("expected error for nil pipeline")
	}
}
