package render

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted alongside the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken carries a CSRF token under the backend's expected input name
// (for example "_csrf" or "csrfmiddlewaretoken").
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// Intent names the action a multi-purpose form performs (create, update,
// delete).
func Intent(value string) HiddenField {
	return Hidden("intent", value)
}

// methodOverride maps method to a browser-submittable verb plus an optional
// _method field.
func methodOverride(method string) (string, *HiddenField) {
	m := strings.ToUpper(strings.TrimSpace(method))
	switch m {
	case "", http.MethodPost:
		return http.MethodPost, nil
	case http.MethodGet:
		return http.MethodGet, nil
	default:
		field := Hidden("_method", m)
		return http.MethodPost, &field
	}
}

// SortedHiddenFields drops empty names, lets later fields win on collisions
// and sorts by name for deterministic output.
func SortedHiddenFields(fields ...HiddenField) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	clean := make(map[string]string, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		clean[name] = field.Value
	}
	if len(clean) == 0 {
		return nil
	}

	names := make([]string, 0, len(clean))
	for name := range clean {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: clean[name]})
	}
	return out
}
