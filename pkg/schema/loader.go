package schema

import (
	"context"
	"io/fs"
)

// Loader turns a schema Source into an Inventory. Implementations live under
// internal/schema/loader but satisfy this contract so callers can substitute
// fakes.
type Loader interface {
	Load(ctx context.Context, src Source) (Inventory, error)
}

// LoaderOptions configures how a Loader resolves sources.
type LoaderOptions struct {
	// FileSystem backs SourceKindFS sources and, when set, directory sources
	// are resolved against it as well. Nil means the operating system.
	FileSystem fs.FS

	// Validate toggles structural validation of schema documents before they
	// become descriptors. Enabled by default; disable only for tooling that
	// wants to inspect broken schemas.
	Validate bool
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS implementation for schema lookups.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithoutValidation disables document validation. Malformed documents then
// fail only on missing required fields.
func WithoutValidation() LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Validate = false
	}
}

// NewLoaderOptions applies a set of LoaderOption values and returns the
// resulting configuration.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{Validate: true}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}
