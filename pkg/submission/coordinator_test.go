package submission_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/submission"
	"github.com/goliatone/go-formpipe/pkg/testsupport"
	"github.com/goliatone/go-formpipe/pkg/transport"
)

type fixedSecret string

func (s fixedSecret) Generate(int) (string, error) { return string(s), nil }

type brokenSecret struct{}

func (brokenSecret) Generate(int) (string, error) { return "", errors.New("entropy exhausted") }

func signupDefinition(t *testing.T) model.FormDefinition {
	t.Helper()
	def, err := model.NewFormDefinition("signup",
		model.FieldSchema{Name: "email", Rules: []model.Rule{model.Required(""), model.Email("")}},
		model.FieldSchema{Name: "name", Rules: []model.Rule{model.Required("")}},
		model.FieldSchema{Name: "company", Rules: []model.Rule{model.Required("")}},
		model.FieldSchema{Name: "vat"},
	)
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	return def
}

func signupRequest(t *testing.T) submission.Request {
	t.Helper()
	req, err := submission.NewRequest("/login",
		submission.WriteStep{
			Name:        "user",
			Path:        "/api/users/",
			Capture:     "id",
			CaptureAs:   "user_id",
			NeedsSecret: true,
			Build: func(in submission.StepInput) (any, error) {
				return map[string]any{
					"email":    in.Value("email"),
					"name":     in.Value("name"),
					"password": in.Secret,
				}, nil
			},
		},
		submission.WriteStep{
			Name:     "company",
			Path:     "/api/companies/",
			Requires: []string{"user_id"},
			Build: func(in submission.StepInput) (any, error) {
				return map[string]any{
					"owner": in.Captured["user_id"],
					"name":  in.Value("company"),
					"vat":   in.Optional("vat"),
				}, nil
			},
		},
	)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return req
}

func fillSignup(t *testing.T, tr *formstate.Tracker) {
	t.Helper()
	for field, value := range map[string]string{
		"email":   "ada@example.com",
		"name":    "Ada",
		"company": "Analytical Engines",
	} {
		if err := tr.OnChange(field, value); err != nil {
			t.Fatalf("change %s: %v", field, err)
		}
	}
}

func newCoordinator(t *testing.T, adapter transport.Adapter, opts ...submission.Option) *submission.Coordinator {
	t.Helper()
	opts = append([]submission.Option{submission.WithSecretGenerator(fixedSecret("s3cr3tPw"))}, opts...)
	c, err := submission.NewCoordinator(adapter, signupRequest(t), opts...)
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	return c
}

func TestSubmit_InvalidFormSendsNothing(t *testing.T) {
	fake := testsupport.NewTransport()
	tr := formstate.NewForDefinition(signupDefinition(t))
	_ = tr.OnChange("email", "not-an-email")

	outcome, err := newCoordinator(t, fake).Submit(context.Background(), tr)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	rejected, ok := outcome.(submission.ValidationRejected)
	if !ok {
		t.Fatalf("expected ValidationRejected, got %#v", outcome)
	}
	for _, field := range []string{"email", "name", "company"} {
		if rejected.FieldErrors[field] == "" {
			t.Fatalf("expected error for %s, got %v", field, rejected.FieldErrors)
		}
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("expected no network calls, got %v", fake.Paths())
	}
	if tr.State().IsSubmitting {
		t.Fatalf("submitting flag must be cleared")
	}
}

func TestSubmit_SuccessThreadsCapturedIdentifier(t *testing.T) {
	fake := testsupport.NewTransport(
		testsupport.Reply{Status: http.StatusCreated, Body: `{"id":42,"email":"ada@example.com"}`},
		testsupport.Reply{Status: http.StatusCreated, Body: `{"id":7}`},
	)
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	outcome, err := newCoordinator(t, fake).Submit(context.Background(), tr)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	success, ok := outcome.(submission.Success)
	if !ok {
		t.Fatalf("expected Success, got %#v", outcome)
	}
	if diff := cmp.Diff(submission.Success{Redirect: "/login", Captured: map[string]string{"user_id": "42"}}, success); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"POST /api/users/", "POST /api/companies/"}, fake.Paths()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	calls := fake.Calls()
	user := calls[0].Decode(t)
	if user["password"] != "s3cr3tPw" {
		t.Fatalf("expected generated password in user payload, got %v", user["password"])
	}
	company := calls[1].Decode(t)
	want := map[string]any{"owner": "42", "name": "Analytical Engines", "vat": nil}
	if diff := cmp.Diff(want, company); diff != "" {
		t.Fatalf("company payload mismatch (-want +got):\n%s", diff)
	}
	if tr.State().IsSubmitting {
		t.Fatalf("submitting flag must be cleared")
	}
}

func TestSubmit_FirstStepFailureStopsChain(t *testing.T) {
	fake := testsupport.NewTransport(
		testsupport.Reply{Status: http.StatusInternalServerError, Body: `{"detail":"boom"}`},
	)
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	outcome, err := newCoordinator(t, fake).Submit(context.Background(), tr)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	failure, ok := outcome.(submission.PartialFailure)
	if !ok {
		t.Fatalf("expected PartialFailure, got %#v", outcome)
	}
	if failure.Step != 1 || failure.StepName != "user" || failure.Reason != submission.ReasonStatus || failure.Status != 500 {
		t.Fatalf("unexpected failure: %#v", failure)
	}
	if failure.Orphaned() {
		t.Fatalf("no step completed, nothing should be orphaned")
	}
	if diff := cmp.Diff([]string{"boom"}, failure.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if len(fake.Calls()) != 1 {
		t.Fatalf("expected one call, got %v", fake.Paths())
	}
}

func TestSubmit_SecondStepRejectionReportsPartialFailure(t *testing.T) {
	fake := testsupport.NewTransport(
		testsupport.Reply{Status: http.StatusCreated, Body: `{"id":"u-1"}`},
		testsupport.Reply{Status: http.StatusBadRequest, Body: `{"name":["company with this name already exists."],"legal":["<b>bad</b>"]}`},
	)
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	outcome, err := newCoordinator(t, fake).Submit(context.Background(), tr)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	failure, ok := outcome.(submission.PartialFailure)
	if !ok {
		t.Fatalf("expected PartialFailure, got %#v", outcome)
	}
	if failure.Step != 2 || failure.Status != http.StatusBadRequest {
		t.Fatalf("unexpected failure: %#v", failure)
	}
	if diff := cmp.Diff([]string{"user"}, failure.Completed); diff != "" {
		t.Fatalf("completed mismatch (-want +got):\n%s", diff)
	}
	if !failure.Orphaned() {
		t.Fatalf("expected orphaned user record to be reported")
	}
	if diff := cmp.Diff([]string{"legal: bad"}, failure.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"POST /api/users/", "POST /api/companies/"}, fake.Paths()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_SecretNeverLeaksIntoOutcome(t *testing.T) {
	const secret = "Zq9xTT2k"
	fake := testsupport.NewTransport(
		testsupport.Reply{Status: http.StatusCreated, Body: `{"id":1}`},
		testsupport.Reply{Status: http.StatusBadRequest, Body: `{"detail":"password Zq9xTT2k rejected"}`},
	)
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	c, err := submission.NewCoordinator(fake, signupRequest(t), submission.WithSecretGenerator(fixedSecret(secret)))
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	outcome, err := c.Submit(context.Background(), tr)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	failure := outcome.(submission.PartialFailure)
	for _, value := range failure.Completed {
		if strings.Contains(value, secret) {
			t.Fatalf("secret leaked into completed list")
		}
	}
	if strings.Contains(failure.Message, secret) {
		t.Fatalf("secret leaked into message: %q", failure.Message)
	}
	if diff := cmp.Diff([]string{"password ******** rejected"}, failure.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	for _, value := range tr.Values() {
		if value == secret {
			t.Fatalf("secret leaked into form values")
		}
	}
	if !strings.Contains(string(fake.Calls()[0].Body), secret) {
		t.Fatalf("secret must be sent in the payload")
	}
}

func TestSubmit_SecretFailureSendsNothing(t *testing.T) {
	fake := testsupport.NewTransport()
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	c, err := submission.NewCoordinator(fake, signupRequest(t), submission.WithSecretGenerator(brokenSecret{}))
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	outcome, _ := c.Submit(context.Background(), tr)
	failure, ok := outcome.(submission.PartialFailure)
	if !ok || failure.Reason != submission.ReasonSecret || failure.Step != 1 {
		t.Fatalf("expected secret failure at step 1, got %#v", outcome)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("expected no calls, got %v", fake.Paths())
	}
}

func TestSubmit_MalformedCaptureFailsDependentStep(t *testing.T) {
	cases := map[string]string{
		"not json":   `<html>ok</html>`,
		"missing id": `{"email":"ada@example.com"}`,
		"null id":    `{"id":null}`,
		"object id":  `{"id":{"value":1}}`,
		"empty body": ``,
		"array body": `[1,2]`,
		"empty id":   `{"id":""}`,
		"blank id":   `{"id":"  "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fake := testsupport.NewTransport(testsupport.Reply{Status: http.StatusCreated, Body: body})
			tr := formstate.NewForDefinition(signupDefinition(t))
			fillSignup(t, tr)

			outcome, _ := newCoordinator(t, fake).Submit(context.Background(), tr)
			failure, ok := outcome.(submission.PartialFailure)
			if !ok {
				t.Fatalf("expected PartialFailure, got %#v", outcome)
			}
			if failure.Step != 2 || failure.Reason != submission.ReasonMalformed {
				t.Fatalf("unexpected failure: %#v", failure)
			}
			if len(fake.Calls()) != 1 {
				t.Fatalf("dependent step must not be sent, got %v", fake.Paths())
			}
		})
	}
}

func TestSubmit_TransportErrorIsGeneric(t *testing.T) {
	dialErr := errors.New("dial tcp 10.0.0.1:443: connection refused")
	fake := testsupport.NewTransport(testsupport.Reply{Err: dialErr})
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	outcome, _ := newCoordinator(t, fake).Submit(context.Background(), tr)
	failure, ok := outcome.(submission.PartialFailure)
	if !ok || failure.Reason != submission.ReasonTransport {
		t.Fatalf("expected transport failure, got %#v", outcome)
	}
	if strings.Contains(failure.Message, "10.0.0.1") {
		t.Fatalf("user message must not expose transport details: %q", failure.Message)
	}
	if !errors.Is(failure, dialErr) {
		t.Fatalf("cause should be preserved for logging")
	}
}

func TestSubmit_CancelledContextReportsTransport(t *testing.T) {
	fake := testsupport.NewTransport(testsupport.Reply{Status: http.StatusCreated, Body: `{"id":1}`})
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, _ := newCoordinator(t, fake).Submit(ctx, tr)
	failure, ok := outcome.(submission.PartialFailure)
	if !ok || failure.Reason != submission.ReasonTransport || failure.Step != 1 {
		t.Fatalf("expected transport failure at step 1, got %#v", outcome)
	}
	if tr.State().IsSubmitting {
		t.Fatalf("submitting flag must be cleared")
	}
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	var c *submission.Coordinator
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	fake := testsupport.NewTransport(
		testsupport.Reply{Status: http.StatusCreated, Body: `{"id":1}`},
		testsupport.Reply{Status: http.StatusCreated, Body: `{}`},
	)
	var (
		once      sync.Once
		nestedErr error
	)
	fake.OnCall = func(testsupport.Call) {
		once.Do(func() {
			if !tr.State().IsSubmitting {
				nestedErr = errors.New("form should be submitting during the call")
				return
			}
			_, nestedErr = c.Submit(context.Background(), tr)
		})
	}
	c = newCoordinator(t, fake)

	if _, err := c.Submit(context.Background(), tr); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !errors.Is(nestedErr, formstate.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight for nested submit, got %v", nestedErr)
	}
	if len(fake.Calls()) != 2 {
		t.Fatalf("nested submit must not send requests, got %v", fake.Paths())
	}
}

func TestSubmit_NilForm(t *testing.T) {
	if _, err := newCoordinator(t, testsupport.NewTransport()).Submit(context.Background(), nil); !errors.Is(err, submission.ErrNilForm) {
		t.Fatalf("expected ErrNilForm, got %v", err)
	}
}

type recordingObserver struct {
	events []string
}

func (r *recordingObserver) StepStarted(form string, step int, name string) {
	r.events = append(r.events, "start:"+name)
}

func (r *recordingObserver) StepFinished(form string, step int, name string, status int, _ time.Duration, err error) {
	label := "ok:"
	if err != nil {
		label = "fail:"
	}
	r.events = append(r.events, label+name)
}

func (r *recordingObserver) Finished(form string, outcome submission.Outcome, _ time.Duration) {
	r.events = append(r.events, "done:"+string(outcome.Kind()))
}

func TestSubmit_NotifiesObservers(t *testing.T) {
	fake := testsupport.NewTransport(
		testsupport.Reply{Status: http.StatusCreated, Body: `{"id":1}`},
		testsupport.Reply{Status: http.StatusConflict, Body: `{}`},
	)
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	obs := &recordingObserver{}
	if _, err := newCoordinator(t, fake, submission.WithObserver(obs)).Submit(context.Background(), tr); err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := []string{"start:user", "ok:user", "start:company", "fail:company", "done:partial_failure"}
	if diff := cmp.Diff(want, obs.events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestCoordinator_WithTransportKeepsOriginal(t *testing.T) {
	first := testsupport.NewTransport(testsupport.Reply{Status: 201, Body: `{"id":1}`}, testsupport.Reply{Status: 201})
	second := testsupport.NewTransport(testsupport.Reply{Status: 201, Body: `{"id":2}`}, testsupport.Reply{Status: 201})
	base := newCoordinator(t, first)

	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)
	if _, err := base.WithTransport(second).Submit(context.Background(), tr); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(first.Calls()) != 0 || len(second.Calls()) != 2 {
		t.Fatalf("expected calls only on the derived transport, got %d/%d", len(first.Calls()), len(second.Calls()))
	}
}

func TestLogObserver_LogsStepsWithoutSecrets(t *testing.T) {
	fake := testsupport.NewTransport(
		testsupport.Reply{Status: http.StatusCreated, Body: `{"id":1}`},
		testsupport.JSONReply(http.StatusBadRequest, map[string]any{"detail": "password s3cr3tPw rejected"}),
	)
	tr := formstate.NewForDefinition(signupDefinition(t))
	fillSignup(t, tr)

	core, logs := observer.New(zapcore.DebugLevel)
	obs := submission.LogObserver{Logger: zap.New(core)}
	if _, err := newCoordinator(t, fake, submission.WithObserver(obs)).Submit(context.Background(), tr); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var messages []string
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
		for key, value := range entry.ContextMap() {
			if strings.Contains(fmt.Sprint(value), "s3cr3tPw") {
				t.Fatalf("secret leaked in log field %q of %q", key, entry.Message)
			}
		}
	}
	want := []string{
		"submission step started",
		"submission step finished",
		"submission step started",
		"submission step failed",
		"submission failed",
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Fatalf("log messages mismatch (-want +got):\n%s", diff)
	}
	failed := logs.FilterMessage("submission failed").All()[0].ContextMap()
	if failed["step_name"] != "company" {
		t.Fatalf("expected failing step company, got %v", failed["step_name"])
	}
}
