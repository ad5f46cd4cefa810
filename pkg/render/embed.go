package render

import "embed"

//go:embed templates/*.tpl
var templateFS embed.FS
