// Package cli wires configuration, the pipeline and its outputs into the
// house-flipping commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"house-flipping/config"
	"house-flipping/loader"
	"house-flipping/services"
	"house-flipping/utils"
)

var (
	dataPath string
	logLevel string
)

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:   "house-flipping",
	Short: "King County house sales analysis",
	Long: `Loads the King County house sales file, derives the descriptive columns
and reports price statistics and the houses worth buying and reselling.`,
	Example: `  # Print the report and write CSV, XLSX and GeoJSON outputs
  $ house-flipping report

  # Serve the reports over HTTP, refreshing when the file changes
  $ house-flipping serve --addr :9090`,
}

// Execute executes the root command. Interrupt and SIGTERM cancel the
// command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "sales file path or URL (overrides DATA_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads the configuration, applies flag overrides and builds the
// logger and pipeline shared by every command.
func setup() (*config.Config, *utils.Logger, *services.Pipeline) {
	cfg := config.Load()
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := utils.NewLogger()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	ld := loader.New(logger, loader.WithRowLimit(cfg.RowLimit))
	return cfg, logger, services.NewPipeline(logger, ld, cfg.DataPath, cfg.GeoURL)
}
