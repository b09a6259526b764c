package contractgen

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-contractgen/pkg/templates"
)

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

// DefaultTemplatesFS exposes the built-in contract definitions (loan, rent,
// service and NDA) so callers can load, list or copy them.
func DefaultTemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// DefaultTemplates loads the built-in definitions into a store. The embedded
// files are always loaded strictly.
func DefaultTemplates() (*templates.Store, error) {
	return templates.LoadFS(DefaultTemplatesFS(), templates.WithStrict())
}
