package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/Devgaze/mpt-objects-inventory/pkg/sync"
)

var syncFlags struct {
	schemaDir   string
	dryRun      bool
	interactive bool
	keepStaging bool
	renderer    string
	concurrency int
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export diagrams and publish every object's documentation page",
	Long: `Load every object schema, export its diagrams and upsert the
documentation page with fresh attachments. Objects fail independently: one
broken schema or unreachable frame never blocks the rest of the run.

Exit codes: 0 every object synced, 1 some objects failed, 2 the run never
started.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.StringVar(&syncFlags.schemaDir, "schema-dir", "", "Directory holding object schema files (default from config)")
	f.BoolVar(&syncFlags.dryRun, "dry-run", false, "Fetch and render but do not publish")
	f.BoolVarP(&syncFlags.interactive, "interactive", "i", false, "Confirm before publishing")
	f.BoolVar(&syncFlags.keepStaging, "keep-staging", false, "Keep staged diagrams on disk after the run")
	f.StringVar(&syncFlags.renderer, "renderer", "", "Renderer for page bodies (default: storage)")
	f.IntVar(&syncFlags.concurrency, "concurrency", 0, "Objects processed in parallel (default from config)")
}

func runSync(cmd *cobra.Command, _ []string) error {
	publish := !syncFlags.dryRun

	cfg, err := loadConfig(publish)
	if err != nil {
		return err
	}
	if syncFlags.schemaDir != "" {
		cfg.SchemaDir = syncFlags.schemaDir
	}
	if syncFlags.concurrency > 0 {
		cfg.Concurrency = syncFlags.concurrency
	}

	logger, err := buildLogger()
	if err != nil {
		return exitf(exitFatal, "configure logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inventory, err := loadInventory(ctx, cfg.SchemaDir)
	if err != nil {
		return err
	}
	if len(inventory.Descriptors) == 0 && len(inventory.Errors) == 0 {
		fmt.Println("no object schemas found, nothing to do")
		return nil
	}

	if publish && syncFlags.interactive {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Publish %d objects to %s?", len(inventory.Descriptors), cfg.ConfluenceBaseURL),
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return exitf(exitFatal, "prompt: %v", err)
		}
		if !confirmed {
			fmt.Println("aborted")
			return nil
		}
	}

	var extra []sync.Option
	if syncFlags.dryRun {
		extra = append(extra, sync.WithDryRun())
	}
	if syncFlags.keepStaging {
		extra = append(extra, sync.WithKeepStaging())
	}
	if syncFlags.renderer != "" {
		extra = append(extra, sync.WithRenderer(syncFlags.renderer))
	}

	orch, err := buildOrchestrator(cfg, logger, publish, extra...)
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx, inventory)
	if err != nil {
		return exitf(exitFatal, "sync: %v", err)
	}

	printSummary(summary)
	return summaryExit(summary)
}
