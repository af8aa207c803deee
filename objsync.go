// Package objsync keeps platform object documentation in step with its
// design sources: it loads object schemas, exports the referenced diagrams
// and publishes the generated pages. The root package re-exports the pieces
// most callers need; the pkg tree holds the full surface.
package objsync

import (
	"context"
	"io/fs"

	internalLoader "github.com/Devgaze/mpt-objects-inventory/internal/schema/loader"
	"github.com/Devgaze/mpt-objects-inventory/pkg/render"
	"github.com/Devgaze/mpt-objects-inventory/pkg/renderers/storage"
	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/sync"
)

// Descriptor is one platform object's parsed schema.
type Descriptor = schema.Descriptor

// Inventory is the outcome of loading a schema directory: parsed descriptors
// plus per-file parse errors.
type Inventory = schema.Inventory

// RenderOptions carries per-run rendering knobs such as theme selection.
type RenderOptions = render.RenderOptions

// Result records the outcome of one object's pipeline run.
type Result = sync.Result

// Summary aggregates per-object results for one run.
type Summary = sync.Summary

// NewLoader constructs a schema loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return internalLoader.New(schema.NewLoaderOptions(options...))
}

// NewOrchestrator exposes the pipeline constructor from the top-level module.
func NewOrchestrator(options ...sync.Option) *sync.Orchestrator {
	return sync.New(options...)
}

// SyncDir loads every schema under dir and runs the full pipeline over the
// resulting inventory. It is the simplest entry point for callers that just
// want a one-shot sync.
func SyncDir(ctx context.Context, dir string, options ...sync.Option) (Summary, error) {
	loader := NewLoader()
	inventory, err := loader.Load(ctx, schema.SourceFromDir(dir))
	if err != nil {
		return Summary{}, err
	}
	return sync.New(options...).Run(ctx, inventory)
}

// EmbeddedTemplates exposes the built-in storage renderer templates so
// callers can reuse or extend them without importing the renderer package
// directly.
func EmbeddedTemplates() fs.FS {
	return storage.TemplatesFS()
}
