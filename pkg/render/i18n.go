package render

import (
	"strings"
)

// Translator resolves localisation keys. Implementations return an error or
// an empty string when a key is unknown; the renderer then keeps the
// definition's text.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

// Translate calls fn.
func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// MapTranslator is a static catalogue keyed by locale then message key.
type MapTranslator map[string]map[string]string

// Translate looks key up in the locale catalogue, falling back to the base
// language ("en" for "en-US").
func (m MapTranslator) Translate(locale, key string, _ ...any) (string, error) {
	for _, candidate := range localeChain(locale) {
		if msg := m[candidate][key]; msg != "" {
			return msg, nil
		}
	}
	return "", nil
}

func localeChain(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil
	}
	chain := []string{locale}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		chain = append(chain, locale[:idx])
	}
	return chain
}

// translate resolves "<form>.<field>.<part>" keys for the label or
// placeholder of a field.
func translate(opts RenderOptions, key, fallback string) string {
	if opts.Translator == nil || strings.TrimSpace(key) == "" {
		return fallback
	}
	msg, err := opts.Translator.Translate(opts.Locale, key)
	if err != nil || strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
