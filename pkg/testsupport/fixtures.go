package testsupport

import (
	"sort"
	"testing"

	"github.com/goliatone/go-formpipe/pkg/model"
)

// LoadDefinition reads a YAML form definition fixture or fails the test.
func LoadDefinition(t testing.TB, path string) model.FormDefinition {
	t.Helper()
	def, err := model.LoadYAMLFile(path)
	if err != nil {
		t.Fatalf("load definition %s: %v", path, err)
	}
	return def
}

// Editor is the part of a tracker or pipeline Fill drives.
type Editor interface {
	OnChange(field, value string) error
	OnBlur(field string) error
}

// Fill types every value into form and leaves the field, in name order so
// failures are reproducible.
func Fill(t testing.TB, form Editor, values map[string]string) {
	t.Helper()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := form.OnChange(name, values[name]); err != nil {
			t.Fatalf("change %s: %v", name, err)
		}
		if err := form.OnBlur(name); err != nil {
			t.Fatalf("blur %s: %v", name, err)
		}
	}
}
