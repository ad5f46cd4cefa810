package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formpipe/pkg/model"
)

var (
	policyOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// RemoteErrors is a backend validation payload split into messages for known
// fields and form-level messages.
type RemoteErrors struct {
	Fields map[string]string
	Form   []string
}

// MapRemoteErrors decodes a rejection body such as
//
//	{"email": ["user with this email already exists."], "non_field_errors": ["..."]}
//
// onto the fields of def. Keys may use dotted or JSON pointer paths and may
// be wrapped in body/data/payload envelopes. Unknown keys become form-level
// messages prefixed with the key so nothing is lost. Bodies that are not JSON
// yield no messages. All messages are stripped of markup and returned as
// plain text, so renderers must escape them.
func MapRemoteErrors(def model.FormDefinition, body []byte) RemoteErrors {
	var out RemoteErrors
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return out
	}

	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return out
	}

	switch typed := payload.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			messages := collectMessages(typed[key])
			if len(messages) == 0 {
				continue
			}
			field, formLevel := mapErrorKey(key, def)
			switch {
			case formLevel:
				out.Form = append(out.Form, messages...)
			case field != "":
				if out.Fields == nil {
					out.Fields = make(map[string]string)
				}
				out.Fields[field] = joinMessages(out.Fields[field], messages)
			default:
				for _, msg := range messages {
					out.Form = append(out.Form, fmt.Sprintf("%s: %s", key, msg))
				}
			}
		}
	default:
		out.Form = collectMessages(typed)
	}
	out.Form = normalizeMessages(out.Form)
	return out
}

func collectMessages(value any) []string {
	switch typed := value.(type) {
	case string:
		return normalizeMessages([]string{typed})
	case []any:
		var out []string
		for _, item := range typed {
			out = append(out, collectMessages(item)...)
		}
		return normalizeMessages(out)
	case map[string]any:
		// DRF nests serializer errors; flatten them in key order.
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var out []string
		for _, key := range keys {
			out = append(out, collectMessages(typed[key])...)
		}
		return normalizeMessages(out)
	default:
		return nil
	}
}

func joinMessages(existing string, messages []string) string {
	joined := strings.Join(messages, " ")
	if existing == "" {
		return joined
	}
	return existing + " " + joined
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	policy := sanitizer()
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		clean := strings.TrimSpace(html.UnescapeString(policy.Sanitize(message)))
		if clean == "" {
			continue
		}
		if _, exists := seen[clean]; exists {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorKey(raw string, def model.FormDefinition) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := dropWrapperSegments(parsePathSegments(trimmed))
	if len(segments) == 0 {
		return "", true
	}
	// A nested path maps to its first segment when that is a known field.
	if def.Has(segments[0]) {
		return segments[0], false
	}
	if joined := strings.Join(segments, "."); def.Has(joined) {
		return joined, false
	}
	return "", false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
	}
	out := segments
	for len(out) > 1 {
		if _, ok := wrappers[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "detail", "error", "message", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
