package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-formpipe/pkg/transport"
)

func TestHTTPClient_DoSendsJSONAndInjectsHeaders(t *testing.T) {
	var gotPath, gotCT, gotCookie, gotID, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		gotCookie = r.Header.Get("Cookie")
		gotID = r.Header.Get("X-Request-ID")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	client, err := transport.NewHTTPClient(srv.URL+"/base/",
		transport.WithRequestIDFunc(func() string { return "req-1" }),
		transport.WithInjectors(transport.HeaderInjectorFunc(func(h http.Header) {
			h.Set("Cookie", "__session=abc")
		})),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	res, err := client.Do(context.Background(), transport.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/create/user/",
		Body:   []byte(`{"email":"test@example.com"}`),
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !res.OK() || res.Status != http.StatusCreated {
		t.Fatalf("unexpected status %d", res.Status)
	}
	if string(res.Body) != `{"id":42}` {
		t.Fatalf("unexpected body %q", res.Body)
	}
	if gotPath != "/base/api/auth/create/user/" {
		t.Fatalf("path not joined onto base: %q", gotPath)
	}
	if gotCT != "application/json" {
		t.Fatalf("expected JSON content type, got %q", gotCT)
	}
	if gotCookie != "__session=abc" {
		t.Fatalf("cookie not injected: %q", gotCookie)
	}
	if gotID != "req-1" {
		t.Fatalf("request id not set: %q", gotID)
	}
	if !strings.Contains(gotBody, "test@example.com") {
		t.Fatalf("body not forwarded: %q", gotBody)
	}
}

func TestHTTPClient_StatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := transport.NewHTTPClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	res, err := client.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("status must not surface as error: %v", err)
	}
	if res.OK() || res.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", res.Status)
	}
}

func TestHTTPClient_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := transport.NewHTTPClient(srv.URL, transport.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/slow"})
	var terr *transport.Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *transport.Error, got %v", err)
	}
	if !terr.Timeout() {
		t.Fatalf("expected timeout classification, got %v", terr)
	}
}

func TestHTTPClient_TimeoutLeavesCallerClientAlone(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	orders := map[string]func(*http.Client) []transport.Option{
		"client first": func(hc *http.Client) []transport.Option {
			return []transport.Option{transport.WithHTTPClient(hc), transport.WithTimeout(50 * time.Millisecond)}
		},
		"timeout first": func(hc *http.Client) []transport.Option {
			return []transport.Option{transport.WithTimeout(50 * time.Millisecond), transport.WithHTTPClient(hc)}
		},
	}
	for name, options := range orders {
		t.Run(name, func(t *testing.T) {
			own := &http.Client{}
			client, err := transport.NewHTTPClient(srv.URL, options(own)...)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			_, err = client.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/slow"})
			var terr *transport.Error
			if !errors.As(err, &terr) || !terr.Timeout() {
				t.Fatalf("expected timeout, got %v", err)
			}
			if own.Timeout != 0 {
				t.Fatalf("caller client was modified: timeout %v", own.Timeout)
			}
		})
	}
}

func TestHTTPClient_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	client, err := transport.NewHTTPClient(srv.URL, transport.WithMaxBodyBytes(16))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Do(context.Background(), transport.Request{Path: "/big"})
	if !errors.Is(err, transport.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestNewHTTPClient_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "://nope"} {
		if _, err := transport.NewHTTPClient(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestHTTPClient_WithAddsInjectorsWithoutMutatingParent(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	parent, err := transport.NewHTTPClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	child := parent.With(transport.HeaderInjectorFunc(func(h http.Header) { h.Set("Authorization", "Bearer t") }))

	_, _ = child.Do(context.Background(), transport.Request{Path: "/a"})
	_, _ = parent.Do(context.Background(), transport.Request{Path: "/b"})
	if len(seen) != 2 || seen[0] != "Bearer t" || seen[1] != "" {
		t.Fatalf("unexpected authorization headers %#v", seen)
	}
}
