// Command sitelog is the site daily-log tracker: an HTTP server plus
// one-shot commands over the same store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitelog/internal/cli"
	"sitelog/internal/config"
	"sitelog/internal/core"
	"sitelog/internal/log"
)

var (
	logLevel string

	// selection flags shared by entry, analyze
	selDate     string
	selCategory string
	selSub      string
)

func main() {
	cli.LoadEnvFile()

	rootCmd := &cobra.Command{
		Use:           "sitelog",
		Short:         "Site daily-log tracker for civil works",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(categoryCmd())
	rootCmd.AddCommand(subCmd())
	rootCmd.AddCommand(entryCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(sheetsAuthCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openApp loads configuration and the logbook for a one-shot command. Logs
// go to stderr so stdout stays parseable.
func openApp(ctx context.Context) (*cli.App, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, log.ComponentApp, os.Stderr)
	if err != nil {
		logger.Warn("Invalid log level, using info", log.FieldError, err)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend: changes made by this command are not kept (set DATA_BACKEND=sqlite)")
	}
	return cli.NewApp(ctx, cfg, logger)
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&selDate, "date", "d", "", "Day to select (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&selCategory, "category", "c", core.AllCategories, "Category filter")
	cmd.Flags().StringVarP(&selSub, "sub", "s", "", "Sub-category filter")
}

func selection(cmd *cobra.Command) (core.Selection, error) {
	day := core.Today()
	if selDate != "" {
		d, err := core.ParseDate(selDate)
		if err != nil {
			return core.Selection{}, err
		}
		day = d
	}
	sel := core.SelectDay(day).WithCategory(selCategory)
	if cmd.Flags().Changed("sub") {
		sel = sel.WithSubCategory(selSub)
	}
	return sel, nil
}
