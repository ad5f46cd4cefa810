package submission_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formpipe/pkg/submission"
)

func noopBuild(submission.StepInput) (any, error) { return map[string]any{}, nil }

func TestNewRequest_RejectsForwardReference(t *testing.T) {
	_, err := submission.NewRequest("/done",
		submission.WriteStep{Name: "company", Path: "/c", Requires: []string{"user_id"}, Build: noopBuild},
		submission.WriteStep{Name: "user", Path: "/u", Capture: "id", CaptureAs: "user_id", Build: noopBuild},
	)
	if !errors.Is(err, submission.ErrForwardReference) {
		t.Fatalf("expected ErrForwardReference, got %v", err)
	}
}

func TestNewRequest_RejectsSelfReference(t *testing.T) {
	_, err := submission.NewRequest("/done",
		submission.WriteStep{Name: "user", Path: "/u", Capture: "id", Requires: []string{"id"}, Build: noopBuild},
	)
	if !errors.Is(err, submission.ErrForwardReference) {
		t.Fatalf("expected ErrForwardReference, got %v", err)
	}
}

func TestNewRequest_Validation(t *testing.T) {
	cases := map[string][]submission.WriteStep{
		"no path":           {{Name: "a", Build: noopBuild}},
		"no builder":        {{Name: "a", Path: "/a"}},
		"duplicate name":    {{Name: "a", Path: "/a", Build: noopBuild}, {Name: "a", Path: "/b", Build: noopBuild}},
		"rename no capture": {{Name: "a", Path: "/a", CaptureAs: "x", Build: noopBuild}},
		"duplicate capture": {
			{Name: "a", Path: "/a", Capture: "id", Build: noopBuild},
			{Name: "b", Path: "/b", Capture: "id", Build: noopBuild},
		},
	}
	for name, steps := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := submission.NewRequest("/done", steps...); !errors.Is(err, submission.ErrInvalidStep) {
				t.Fatalf("expected ErrInvalidStep, got %v", err)
			}
		})
	}
	if _, err := submission.NewRequest("/done"); !errors.Is(err, submission.ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
}

func TestNewRequest_Defaults(t *testing.T) {
	req, err := submission.NewRequest(" /login ",
		submission.WriteStep{Path: "/a", Capture: "id", Build: noopBuild},
		submission.WriteStep{Method: "patch", Path: "/b", Requires: []string{"id"}, Build: noopBuild},
	)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Redirect() != "/login" {
		t.Fatalf("redirect not trimmed: %q", req.Redirect())
	}
	var got [][2]string
	for _, step := range req.Steps() {
		got = append(got, [2]string{step.Name, step.Method})
	}
	want := [][2]string{{"step-1", "POST"}, {"step-2", "PATCH"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestStepInput_Optional(t *testing.T) {
	in := submission.StepInput{Values: map[string]string{"vat": "", "city": "Austin"}}
	if in.Optional("vat") != nil {
		t.Fatalf("empty value should be nil")
	}
	if in.Optional("city") != "Austin" {
		t.Fatalf("unexpected value %v", in.Optional("city"))
	}
	if in.Optional("missing") != nil {
		t.Fatalf("missing value should be nil")
	}
}
