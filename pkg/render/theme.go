package render

import (
	"fmt"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// StylesheetAsset is the manifest asset key for the page stylesheet.
const StylesheetAsset = "stylesheet"

// DefaultManifest is the built-in theme used when callers do not supply one.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "formpipe",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":        "#1f6feb",
			"surface":      "#ffffff",
			"text":         "#1f2328",
			"danger":       "#cf222e",
			"radius":       "6px",
			"field.gap":    "0.75rem",
			"dialog.width": "32rem",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"surface": "#0d1117",
					"text":    "#e6edf3",
				},
			},
		},
	}
}

type staticSelector struct {
	manifest *theme.Manifest
}

// StaticTheme returns a selector that answers every query with manifest.
func StaticTheme(manifest *theme.Manifest) theme.ThemeSelector {
	return staticSelector{manifest: manifest}
}

func (s staticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if s.manifest == nil {
		return nil, fmt.Errorf("render: no theme manifest configured")
	}
	if name == "" {
		name = s.manifest.Name
	}
	if name != s.manifest.Name {
		return nil, fmt.Errorf("render: theme %q not available", name)
	}
	if _, ok := s.manifest.Variants[variant]; variant != "" && !ok {
		return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: s.manifest}, nil
}

type cssVar struct {
	Name  string
	Value string
}

// themeView is the theme data handed to templates.
type themeView struct {
	Name       string
	Variant    string
	Vars       []cssVar
	Style      string
	Stylesheet string
}

func buildThemeView(selection *theme.Selection) themeView {
	if selection == nil || selection.Manifest == nil {
		return themeView{}
	}
	manifest := selection.Manifest
	view := themeView{Name: selection.Theme, Variant: selection.Variant}

	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	assets := manifest.Assets
	files := make(map[string]string, len(assets.Files))
	for key, value := range assets.Files {
		files[key] = value
	}
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
		for key, value := range variant.Assets.Files {
			files[key] = value
		}
		if variant.Assets.Prefix != "" {
			assets.Prefix = variant.Assets.Prefix
		}
	}

	keys := make([]string, 0, len(tokens))
	for key := range tokens {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	decls := make([]string, 0, len(keys))
	for _, key := range keys {
		v := cssVar{Name: cssVarName(key), Value: tokens[key]}
		view.Vars = append(view.Vars, v)
		decls = append(decls, v.Name+": "+v.Value+";")
	}
	view.Style = strings.Join(decls, " ")

	if sheet := files[StylesheetAsset]; sheet != "" {
		if strings.Contains(sheet, "://") || strings.HasPrefix(sheet, "/") || assets.Prefix == "" {
			view.Stylesheet = sheet
		} else {
			view.Stylesheet = path.Join(assets.Prefix, sheet)
		}
	}
	return view
}

func cssVarName(token string) string {
	name := strings.NewReplacer(".", "-", "_", "-", " ", "-").Replace(strings.TrimSpace(token))
	return "--" + strings.ToLower(name)
}
