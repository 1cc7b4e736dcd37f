package web

import "embed"

// Templates embeds the printable document templates.
//
//go:embed templates/report/*.html
var Templates embed.FS
