package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formpipe/pkg/session"
)

func TestForwardCookies(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Add("Cookie", "sessionid=abc")
	r.Header.Add("Cookie", "csrftoken=xyz")

	h := http.Header{}
	session.ForwardCookies(r).Inject(h)
	if diff := cmp.Diff("sessionid=abc; csrftoken=xyz", h.Get("Cookie")); diff != "" {
		t.Fatalf("cookie mismatch (-want +got):\n%s", diff)
	}

	r.Header.Set("Cookie", "sessionid=changed")
	if got := h.Get("Cookie"); got != "sessionid=abc; csrftoken=xyz" {
		t.Fatalf("injected header changed with inbound request: %q", got)
	}

	h = http.Header{}
	session.ForwardCookies(httptest.NewRequest(http.MethodGet, "/", nil)).Inject(h)
	if _, ok := h["Cookie"]; ok {
		t.Fatalf("expected no cookie header, got %v", h)
	}
	session.ForwardCookies(nil).Inject(h)
	if len(h) != 0 {
		t.Fatalf("expected untouched header, got %v", h)
	}
}

func TestBearerAndChain(t *testing.T) {
	h := http.Header{}
	session.Chain(session.Bearer(" first "), nil, session.Bearer("second")).Inject(h)
	if got := h.Get("Authorization"); got != "Bearer second" {
		t.Fatalf("unexpected authorization %q", got)
	}
	h = http.Header{}
	session.Bearer("").Inject(h)
	if len(h) != 0 {
		t.Fatalf("expected empty header, got %v", h)
	}
}
