// Package session forwards the caller's ambient credentials to the backend.
// It never parses, signs or stores them.
package session

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-formpipe/pkg/transport"
)

// ForwardCookies copies the inbound Cookie header verbatim onto outgoing
// requests. A request without cookies yields an injector that does nothing.
func ForwardCookies(r *http.Request) transport.HeaderInjector {
	var cookies []string
	if r != nil {
		cookies = append(cookies, r.Header.Values("Cookie")...)
	}
	return transport.HeaderInjectorFunc(func(h http.Header) {
		if len(cookies) == 0 {
			return
		}
		h.Set("Cookie", strings.Join(cookies, "; "))
	})
}

// Bearer sets an Authorization header. An empty token is ignored.
func Bearer(token string) transport.HeaderInjector {
	token = strings.TrimSpace(token)
	return transport.HeaderInjectorFunc(func(h http.Header) {
		if token == "" {
			return
		}
		h.Set("Authorization", "Bearer "+token)
	})
}

// Chain applies injectors in order; later ones win on conflicts.
func Chain(injectors ...transport.HeaderInjector) transport.HeaderInjector {
	return transport.HeaderInjectorFunc(func(h http.Header) {
		for _, in := range injectors {
			if in != nil {
				in.Inject(h)
			}
		}
	})
}
