package storage

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in page template bundle for consumers that
// want the stock Confluence layout out of the box.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
