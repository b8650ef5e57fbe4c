package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sitelog/internal/core"
)

func entryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Create, list and edit log entries",
	}
	cmd.AddCommand(entryAddCmd())
	cmd.AddCommand(entryListCmd())
	cmd.AddCommand(entryShowCmd())
	cmd.AddCommand(entrySetCmd())
	cmd.AddCommand(entryRmCmd())
	return cmd
}

func entryAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [field=value ...]",
		Short: "Create an entry for the selected day and category",
		Example: `  sitelog entry add -c 道路工程 description=沥青摊铺 amount=1200 status=已完成
  sitelog entry add -d 2024-05-06 location=K12+300 'resources=[{"type":"personnel","name":"工人","count":8,"unit":"人"}]'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selection(cmd)
			if err != nil {
				return err
			}
			muts, err := parseAssignments(args)
			if err != nil {
				return err
			}
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			e, err := app.Logbook.CreateEntry(cmd.Context(), sel, muts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.ID)
			return nil
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

// parseAssignments turns field=value arguments into mutations, ordered so a
// category change is applied before an explicit sub-category.
func parseAssignments(args []string) ([]core.Mutation, error) {
	muts := make([]core.Mutation, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		m, err := core.ParseMutation(field, value)
		if err != nil {
			return nil, err
		}
		muts = append(muts, m)
	}
	slices.SortStableFunc(muts, func(a, b core.Mutation) int {
		return slices.Index(core.Fields, a.Field()) - slices.Index(core.Fields, b.Field())
	})
	return muts, nil
}

func entryListCmd() *cobra.Command {
	var sortField, sortDir string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries visible for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selection(cmd)
			if err != nil {
				return err
			}
			order, err := core.ParseOrder(sortField, sortDir)
			if err != nil {
				return err
			}
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			res := app.Logbook.View(sel, order)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tSUB\tLOCATION\tDESCRIPTION\tAMOUNT\tSTATUS")
			for _, e := range res.Entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%g\t%s\n",
					e.ID, e.Date, e.Category, e.SubCategory, e.Location, e.Description, e.Amount, e.Status.Label())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d entries, %d completed, total %g\n",
				res.Stats.Count, res.Stats.Completed, res.Stats.Total)
			for _, c := range res.Stats.ByCategory {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %g\n", c.Name, c.Amount)
			}
			return nil
		},
	}
	addSelectionFlags(cmd)
	cmd.Flags().StringVar(&sortField, "sort", "", "Sort field (date, category, amount, status, ...)")
	cmd.Flags().StringVar(&sortDir, "dir", "", "Sort direction (asc or desc)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

func entryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one entry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			e, err := app.Logbook.Entry(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(e)
		},
	}
}

func entrySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Change one field of an entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := core.ParseMutation(args[1], args[2])
			if err != nil {
				return err
			}
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			e, err := app.Logbook.UpdateEntry(cmd.Context(), args[0], m)
			if err != nil {
				return err
			}
			if m.Field() == core.FieldCategory {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s/%s\n", e.ID, e.Category, e.SubCategory)
			}
			return nil
		},
	}
}

func entryRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			for _, id := range args {
				if err := app.Logbook.DeleteEntry(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
