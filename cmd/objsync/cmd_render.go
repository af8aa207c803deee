package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Devgaze/mpt-objects-inventory/pkg/sync"
)

var renderFlags struct {
	schemaDir string
	outDir    string
	renderer  string
	variant   string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render page bodies locally without publishing",
	Long: `Fetch diagrams and render every object's page body to local files for
review. The documentation platform is never contacted.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.schemaDir, "schema-dir", "", "Directory holding object schema files (default from config)")
	f.StringVarP(&renderFlags.outDir, "out", "o", "rendered", "Output directory for rendered pages")
	f.StringVar(&renderFlags.renderer, "renderer", "", "Renderer for page bodies (default: storage)")
	f.StringVar(&renderFlags.variant, "theme-variant", "", "Palette variant (default from config)")
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if renderFlags.schemaDir != "" {
		cfg.SchemaDir = renderFlags.schemaDir
	}
	if renderFlags.variant != "" {
		cfg.ThemeVariant = renderFlags.variant
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

	extra := []sync.Option{
		sync.WithDryRun(),
		sync.WithOutputDir(renderFlags.outDir),
	}
	if renderFlags.renderer != "" {
		extra = append(extra, sync.WithRenderer(renderFlags.renderer))
	}

	orch, err := buildOrchestrator(cfg, logger, false, extra...)
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx, inventory)
	if err != nil {
		return exitf(exitFatal, "render: %v", err)
	}

	printSummary(summary)
	if summary.Ok() {
		fmt.Printf("rendered pages written to %s\n", renderFlags.outDir)
	}
	return summaryExit(summary)
}
