package figma

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/staging"
)

// Exporter is the capability the fetcher needs from the design tool. The
// concrete Client satisfies it; tests substitute fakes.
type Exporter interface {
	ExportPNG(ctx context.Context, frameURL string) ([]byte, error)
}

// FetcherOption customises fetcher construction.
type FetcherOption func(*Fetcher)

// WithPlaceholderFrame sets the frame exported in place of view references
// the schema declares as null. Without a placeholder, omitted views are
// skipped entirely.
func WithPlaceholderFrame(frameURL string) FetcherOption {
	return func(f *Fetcher) {
		f.placeholder = frameURL
	}
}

// WithLogger injects a logger. Defaults to a no-op logger so library callers
// stay quiet.
func WithLogger(logger *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher turns one object descriptor into its full set of staged diagram
// artifacts, one per supported view path.
type Fetcher struct {
	exporter    Exporter
	placeholder string
	logger      *zap.Logger
}

// NewFetcher constructs a Fetcher around an Exporter.
func NewFetcher(exporter Exporter, options ...FetcherOption) (*Fetcher, error) {
	if exporter == nil {
		return nil, errors.New("figma: exporter is required")
	}
	f := &Fetcher{
		exporter: exporter,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f, nil
}

// Fetch exports every supported view of the descriptor into the workspace.
// A single failing view fails the whole object: a page with holes in its
// diagram matrix is worse than a page left at its previous revision. Already
// staged artifacts are cleaned up on failure.
func (f *Fetcher) Fetch(ctx context.Context, desc schema.Descriptor, ws *staging.Workspace) ([]staging.Artifact, error) {
	paths := schema.SupportedViewPaths()
	artifacts := make([]staging.Artifact, 0, len(paths))

	for _, view := range paths {
		if err := ctx.Err(); err != nil {
			_ = ws.Remove(artifacts...)
			return nil, err
		}

		frameURL, declared := desc.View(view)
		if !declared {
			if f.placeholder == "" {
				f.logger.Debug("view omitted, no placeholder configured",
					zap.String("object", desc.Name),
					zap.String("view", string(view)))
				continue
			}
			frameURL = f.placeholder
		}

		f.logger.Debug("exporting view",
			zap.String("object", desc.Name),
			zap.String("view", string(view)))

		data, err := f.exporter.ExportPNG(ctx, frameURL)
		if err != nil {
			_ = ws.Remove(artifacts...)
			return nil, fmt.Errorf("figma: fetch %s view %s: %w", desc.Name, view, err)
		}

		artifact, err := ws.Stage(desc.ImageFileName(view), data)
		if err != nil {
			_ = ws.Remove(artifacts...)
			return nil, fmt.Errorf("figma: stage %s view %s: %w", desc.Name, view, err)
		}

		f.logger.Debug("staged diagram",
			zap.String("object", desc.Name),
			zap.String("artifact", artifact.Name),
			zap.Int64("bytes", artifact.Size),
			zap.String("sha256", artifact.SHA256))

		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}
