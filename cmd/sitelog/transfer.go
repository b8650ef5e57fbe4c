package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sitelog/internal/cli"
	"sitelog/internal/services"
	"sitelog/internal/transfer"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate a supervisor report for the visible entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selection(cmd)
			if err != nil {
				return err
			}
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			st := app.Logbook.Analyze(cmd.Context(), sel)
			if st.Status != services.AnalysisSuccess {
				return fmt.Errorf("analysis %s: %s", st.Status, st.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Message)
			return nil
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	var format, output string
	var toSheets bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every entry to a file, stdout or the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if toSheets {
				sc, err := cli.NewSheetsClient(ctx, app.Config, app.Logger)
				if err != nil {
					return err
				}
				entries := app.Logbook.Snapshot()
				if err := sc.Export(ctx, entries); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d entries to %s\n", len(entries), app.Config.GoogleSheetName)
				return nil
			}

			if format == "" {
				format = app.Config.ExportFormat
			}
			codec, err := transfer.ForFormat(format)
			if err != nil {
				return err
			}
			data, err := app.Logbook.Export(codec)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Document format: json or cbor (default EXPORT_FORMAT)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "Export to the configured Google spreadsheet")
	return cmd
}

func importCmd() *cobra.Command {
	var format string
	var fromSheets bool
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace every entry with the contents of a document",
		Long: "Replace every entry with the contents of a document. The import is all or nothing:\n" +
			"a malformed document leaves the log untouched.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			var n int
			if fromSheets {
				sc, err := cli.NewSheetsClient(ctx, app.Config, app.Logger)
				if err != nil {
					return err
				}
				entries, err := sc.Import(ctx)
				if err != nil {
					return err
				}
				if n, err = app.Logbook.ReplaceEntries(ctx, entries); err != nil {
					return err
				}
			} else {
				if format == "" {
					format = app.Config.ExportFormat
				}
				codec, err := transfer.ForFormat(format)
				if err != nil {
					return err
				}
				data, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				if n, err = app.Logbook.Import(ctx, codec, data); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Document format: json or cbor (default EXPORT_FORMAT)")
	cmd.Flags().BoolVar(&fromSheets, "from-sheets", false, "Import from the configured Google spreadsheet")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}
