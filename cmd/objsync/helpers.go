package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	schemaloader "github.com/Devgaze/mpt-objects-inventory/internal/schema/loader"
	"github.com/Devgaze/mpt-objects-inventory/pkg/config"
	"github.com/Devgaze/mpt-objects-inventory/pkg/confluence"
	"github.com/Devgaze/mpt-objects-inventory/pkg/figma"
	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/staging"
	"github.com/Devgaze/mpt-objects-inventory/pkg/sync"
)

const defaultConfigName = config.DefaultFileName

func buildLogger() (*zap.Logger, error) {
	if rootFlags.debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// loadConfig resolves the runtime configuration. Validation failures are
// fatal before any remote call happens.
func loadConfig(publish bool) (config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return config.Config{}, exitf(exitFatal, "load config: %v", err)
	}
	if err := cfg.Validate(publish); err != nil {
		return config.Config{}, exitf(exitFatal, "%v", err)
	}
	return cfg, nil
}

func loadInventory(ctx context.Context, schemaDir string) (schema.Inventory, error) {
	loader := schemaloader.New(schema.NewLoaderOptions())
	inventory, err := loader.Load(ctx, schema.SourceFromDir(schemaDir))
	if err != nil {
		return schema.Inventory{}, exitf(exitFatal, "load schemas from %s: %v", schemaDir, err)
	}
	return inventory, nil
}

// buildOrchestrator wires the full pipeline from the loaded configuration.
// The publisher is only constructed when the run will publish.
func buildOrchestrator(cfg config.Config, logger *zap.Logger, publish bool, extra ...sync.Option) (*sync.Orchestrator, error) {
	exporter, err := figma.NewClient(figma.Options{
		Token:      cfg.FigmaToken,
		BaseURL:    cfg.FigmaBaseURL,
		MaxRetries: cfg.MaxRetries,
		RateLimit:  cfg.RequestsPerS,
	})
	if err != nil {
		return nil, exitf(exitFatal, "configure figma client: %v", err)
	}

	fetcherOptions := []figma.FetcherOption{figma.WithLogger(logger)}
	if cfg.PlaceholderFrameURL != "" {
		fetcherOptions = append(fetcherOptions, figma.WithPlaceholderFrame(cfg.PlaceholderFrameURL))
	}
	fetcher, err := figma.NewFetcher(exporter, fetcherOptions...)
	if err != nil {
		return nil, exitf(exitFatal, "configure diagram fetcher: %v", err)
	}

	options := []sync.Option{
		sync.WithFetcher(fetcher),
		sync.WithLogger(logger),
		sync.WithConcurrency(cfg.Concurrency),
		sync.WithThemeVariant(cfg.ThemeVariant),
		sync.WithWorkspaceFactory(func() (*staging.Workspace, error) {
			return staging.NewWorkspace(staging.WithBaseDir(cfg.StagingDir))
		}),
	}

	if publish {
		api, err := confluence.NewClient(confluence.Options{
			BaseURL:    cfg.ConfluenceBaseURL,
			Email:      cfg.ConfluenceEmail,
			APIToken:   cfg.ConfluenceToken,
			MaxRetries: cfg.MaxRetries,
			RateLimit:  cfg.RequestsPerS,
		})
		if err != nil {
			return nil, exitf(exitFatal, "configure confluence client: %v", err)
		}

		publisherOptions := []confluence.PublisherOption{
			confluence.WithSpace(cfg.SpaceKey, cfg.ParentPageID),
			confluence.WithLogger(logger),
		}
		if cfg.BackupPages {
			publisherOptions = append(publisherOptions, confluence.WithBackups())
		}
		publisher, err := confluence.NewPublisher(api, publisherOptions...)
		if err != nil {
			return nil, exitf(exitFatal, "configure publisher: %v", err)
		}
		options = append(options, sync.WithPublisher(publisher))
	}

	return sync.New(append(options, extra...)...), nil
}

func printSummary(summary sync.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECT\tSTATUS\tSTAGE\tDETAIL")
	for _, result := range summary.Results {
		detail := ""
		switch {
		case result.Err != nil:
			detail = result.Err.Error()
		case result.PageID != "":
			detail = "page " + result.PageID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Object, result.Status, result.Stage, detail)
	}
	w.Flush()

	fmt.Printf("\n%d published, %d rendered, %d failed, %d skipped (took %s)\n",
		summary.Published(), summary.Rendered(), summary.Failed(), summary.Skipped(),
		summary.Finished.Sub(summary.Started).Round(time.Millisecond))
}

func summaryExit(summary sync.Summary) error {
	if summary.Ok() {
		return nil
	}
	return &exitError{code: exitPartial}
}
