// Package sync coordinates the full pipeline for an inventory of platform
// objects: fetch diagrams, build and render the page model, publish the page
// and its attachments. Objects run concurrently but fail independently; one
// broken object never blocks the rest of the run.
package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Devgaze/mpt-objects-inventory/pkg/page"
	"github.com/Devgaze/mpt-objects-inventory/pkg/render"
	"github.com/Devgaze/mpt-objects-inventory/pkg/renderers/storage"
	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/staging"
)

const (
	defaultRendererName = "storage"
	defaultConcurrency  = 4
)

// DiagramFetcher stages every diagram an object's page embeds.
type DiagramFetcher interface {
	Fetch(ctx context.Context, desc schema.Descriptor, ws *staging.Workspace) ([]staging.Artifact, error)
}

// PagePublisher upserts one object's page and attachments. Implementations
// may record a newly created page id on the descriptor.
type PagePublisher interface {
	Publish(ctx context.Context, desc *schema.Descriptor, artifacts []staging.Artifact, body []byte, ws *staging.Workspace) error
}

// WorkspaceFactory produces a fresh staging workspace for one object.
type WorkspaceFactory func() (*staging.Workspace, error)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFetcher injects the diagram fetcher. Required unless running dry
// without diagrams.
func WithFetcher(fetcher DiagramFetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithPublisher injects the page publisher. Required unless WithDryRun.
func WithPublisher(publisher PagePublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = publisher
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithRenderer overrides the renderer used for page bodies.
func WithRenderer(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.rendererName = name
		}
	}
}

// WithConcurrency bounds how many objects run in flight at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithWorkspaceFactory overrides how per-object staging workspaces are made.
func WithWorkspaceFactory(factory WorkspaceFactory) Option {
	return func(o *Orchestrator) {
		if factory != nil {
			o.newWorkspace = factory
		}
	}
}

// WithThemeSelector resolves theme and variant names ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithThemeVariant picks a variant of the renderer's built-in theme.
func WithThemeVariant(variant string) Option {
	return func(o *Orchestrator) {
		o.themeVariant = variant
	}
}

// WithDryRun renders pages but never contacts the documentation platform.
func WithDryRun() Option {
	return func(o *Orchestrator) {
		o.dryRun = true
	}
}

// WithOutputDir writes each rendered page body under dir as
// "<object>.storage.html".
func WithOutputDir(dir string) Option {
	return func(o *Orchestrator) {
		o.outputDir = dir
	}
}

// WithKeepStaging leaves per-object staging directories in place after the
// run, useful when inspecting exported diagrams.
func WithKeepStaging() Option {
	return func(o *Orchestrator) {
		o.keepStaging = true
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator runs the per-object pipeline over a loaded inventory. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
type Orchestrator struct {
	fetcher       DiagramFetcher
	publisher     PagePublisher
	registry      *render.Registry
	rendererName  string
	concurrency   int
	newWorkspace  WorkspaceFactory
	themeSelector theme.ThemeSelector
	themeName     string
	themeVariant  string
	dryRun        bool
	outputDir     string
	keepStaging   bool
	logger        *zap.Logger
	now           func() time.Time

	initialiseErr error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		rendererName: defaultRendererName,
		concurrency:  defaultConcurrency,
		logger:       zap.NewNop(),
		now:          time.Now,
		newWorkspace: func() (*staging.Workspace, error) {
			return staging.NewWorkspace()
		},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := storage.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("sync: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(renderer)
	}
}

// Run executes the pipeline for every descriptor in the inventory and returns
// a per-object summary. Parse failures recorded on the inventory surface as
// failed results at the load stage. Run returns an error only for
// configuration problems; per-object failures live in the summary.
func (o *Orchestrator) Run(ctx context.Context, inventory schema.Inventory) (Summary, error) {
	if ctx == nil {
		return Summary{}, errors.New("sync: context is required")
	}
	if err := o.initialiseErr; err != nil {
		return Summary{}, err
	}
	if o.fetcher == nil {
		return Summary{}, errors.New("sync: diagram fetcher is required")
	}
	if o.publisher == nil && !o.dryRun {
		return Summary{}, errors.New("sync: publisher is required unless running dry")
	}

	renderer, err := o.registry.Get(o.rendererName)
	if err != nil {
		return Summary{}, fmt.Errorf("sync: renderer %q: %w", o.rendererName, err)
	}

	renderOptions, err := o.resolveRenderOptions()
	if err != nil {
		return Summary{}, err
	}

	if o.outputDir != "" {
		if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("sync: create output dir: %w", err)
		}
	}

	summary := Summary{Started: o.now()}
	for _, parseErr := range inventory.Errors {
		summary.Results = append(summary.Results, Result{
			Object: parseErr.File,
			Status: StatusFailed,
			Stage:  StageLoad,
			Err:    parseErr,
		})
	}

	results := make([]Result, len(inventory.Descriptors))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.concurrency)

	for i := range inventory.Descriptors {
		i := i
		// Processed through the inventory slice so page ids recorded by the
		// publisher survive into re-runs of the same inventory.
		desc := &inventory.Descriptors[i]
		if groupCtx.Err() != nil {
			results[i] = Result{Object: desc.Name, Status: StatusSkipped}
			continue
		}
		group.Go(func() error {
			results[i] = o.processObject(groupCtx, desc, renderer, renderOptions)
			return nil
		})
	}

	_ = group.Wait()
	summary.Results = append(summary.Results, results...)
	summary.Finished = o.now()

	o.logger.Info("run complete",
		zap.Int("published", summary.Published()),
		zap.Int("rendered", summary.Rendered()),
		zap.Int("failed", summary.Failed()),
		zap.Int("skipped", summary.Skipped()),
	)
	return summary, nil
}

func (o *Orchestrator) processObject(ctx context.Context, desc *schema.Descriptor, renderer render.Renderer, options render.RenderOptions) Result {
	logger := o.logger.With(zap.String("object", desc.Name))

	if err := ctx.Err(); err != nil {
		return Result{Object: desc.Name, Status: StatusSkipped}
	}

	fail := func(stage Stage, err error) Result {
		logger.Error("object failed", zap.String("stage", string(stage)), zap.Error(err))
		return Result{Object: desc.Name, Status: StatusFailed, Stage: stage, Err: err}
	}

	ws, err := o.newWorkspace()
	if err != nil {
		return fail(StageFetch, fmt.Errorf("sync: create workspace: %w", err))
	}
	if !o.keepStaging {
		defer func() {
			if err := ws.Cleanup(); err != nil {
				logger.Warn("staging cleanup failed", zap.Error(err))
			}
		}()
	}

	artifacts, err := o.fetcher.Fetch(ctx, *desc, ws)
	if err != nil {
		return fail(StageFetch, err)
	}
	logger.Debug("diagrams staged", zap.Int("count", len(artifacts)))

	model, err := page.Build(*desc, artifacts, o.now())
	if err != nil {
		return fail(StageRender, err)
	}

	body, err := renderer.Render(ctx, model, options)
	if err != nil {
		return fail(StageRender, err)
	}

	if o.outputDir != "" {
		path := filepath.Join(o.outputDir, desc.Name+".storage.html")
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fail(StageRender, fmt.Errorf("sync: write rendered page: %w", err))
		}
		logger.Debug("rendered page written", zap.String("path", path))
	}

	if o.dryRun {
		return Result{Object: desc.Name, Status: StatusRendered, Artifacts: len(artifacts)}
	}

	// In-flight publishes run to completion even when the run is cancelled,
	// so a page is never left with fresh attachments and a stale body.
	if err := o.publisher.Publish(context.WithoutCancel(ctx), desc, artifacts, body, ws); err != nil {
		return fail(StagePublish, err)
	}

	logger.Info("page published", zap.String("page_id", desc.PageID), zap.Int("attachments", len(artifacts)))
	return Result{Object: desc.Name, Status: StatusPublished, PageID: desc.PageID, Artifacts: len(artifacts)}
}

func (o *Orchestrator) resolveRenderOptions() (render.RenderOptions, error) {
	options := render.RenderOptions{
		ThemeName:    o.themeName,
		ThemeVariant: o.themeVariant,
	}
	if o.themeSelector == nil {
		return options, nil
	}

	selection, err := o.themeSelector.Select(o.themeName, o.themeVariant)
	if err != nil {
		return render.RenderOptions{}, fmt.Errorf("sync: select theme: %w", err)
	}
	if selection != nil && selection.Manifest != nil {
		options.Theme = storage.ResolveTheme(selection.Manifest, selection.Variant)
	}
	return options, nil
}
