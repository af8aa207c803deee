package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Devgaze/mpt-objects-inventory/internal/watch"
	"github.com/Devgaze/mpt-objects-inventory/pkg/sync"
)

var watchFlags struct {
	schemaDir string
	dryRun    bool
	debounce  time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-sync whenever a schema file changes",
	Long: `Watch the schema directory and run a full sync after each change.
Stops on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchFlags.schemaDir, "schema-dir", "", "Directory holding object schema files (default from config)")
	f.BoolVar(&watchFlags.dryRun, "dry-run", false, "Fetch and render but do not publish")
	f.DurationVar(&watchFlags.debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change triggers a sync")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	publish := !watchFlags.dryRun

	cfg, err := loadConfig(publish)
	if err != nil {
		return err
	}
	if watchFlags.schemaDir != "" {
		cfg.SchemaDir = watchFlags.schemaDir
	}

	logger, err := buildLogger()
	if err != nil {
		return exitf(exitFatal, "configure logging: %v", err)
	}
	defer logger.Sync()

	var extra []sync.Option
	if watchFlags.dryRun {
		extra = append(extra, sync.WithDryRun())
	}
	orch, err := buildOrchestrator(cfg, logger, publish, extra...)
	if err != nil {
		return err
	}

	resync := func(ctx context.Context) error {
		inventory, err := loadInventory(ctx, cfg.SchemaDir)
		if err != nil {
			return err
		}
		summary, err := orch.Run(ctx, inventory)
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	}

	watcher, err := watch.New(cfg.SchemaDir,
		watch.WithDebounce(watchFlags.debounce),
		watch.WithLogger(logger),
	)
	if err != nil {
		return exitf(exitFatal, "watch: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial sync before watching so a fresh checkout converges immediately.
	if err := resync(ctx); err != nil {
		return exitf(exitFatal, "initial sync: %v", err)
	}

	if err := watcher.Run(ctx, resync); err != nil && !errors.Is(err, context.Canceled) {
		return exitf(exitFatal, "watch: %v", err)
	}

	fmt.Println("watch stopped")
	return nil
}
