package web

import "embed"

// templatesFS embeds the HTML templates for server-side rendering.
//
//go:embed templates
var templatesFS embed.FS

// staticFS embeds static assets (css/js).
//
//go:embed static
var staticFS embed.FS
