package render

// RenderOptions carry per-request presentation data that is not part of the
// form state.
type RenderOptions struct {
	// Action is the form target; empty posts back to the current URL.
	Action string
	// Method defaults to POST. Verbs other than GET and POST are sent as POST
	// with a hidden _method input.
	Method      string
	Title       string
	SubmitLabel string
	// Hidden adds hidden inputs such as a CSRF token.
	Hidden []HiddenField
	// FormErrors are messages not attached to any field.
	FormErrors []string
	// Notice is an informational banner (for example a partial failure hint).
	Notice string
	// ThemeName and ThemeVariant select a theme when the renderer has a selector.
	ThemeName    string
	ThemeVariant string
	// Locale and Translator localise labels and placeholders.
	Locale     string
	Translator Translator
}
