package render

import (
	"context"

	"github.com/Devgaze/mpt-objects-inventory/pkg/page"
)

// Renderer converts a page model into a byte representation. The storage
// renderer produces Confluence storage-format XHTML; alternative renderers
// (plain HTML previews, say) register under their own names.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, model page.Model, options RenderOptions) ([]byte, error)
}
