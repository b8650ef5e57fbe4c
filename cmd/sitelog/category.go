package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sitelog/internal/core"
)

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage the category tree",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print categories and their sub-categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			printTree(cmd, app.Logbook.Categories())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "Print the built-in category tree and location presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printTree(cmd, core.DefaultCategoryTree().Nodes())
			fmt.Fprintf(cmd.OutOrStdout(), "\nlocations: %s\n", strings.Join(core.LocationPresets, ", "))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Append a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Logbook.AddCategory(cmd.Context(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a category; its entries are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Logbook.RemoveCategory(cmd.Context(), args[0])
		},
	})
	return cmd
}

func subCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sub",
		Short: "Manage the sub-categories of a category",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <category> <name>",
		Short: "Append a sub-category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Logbook.AddSubCategory(cmd.Context(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <category> <name>",
		Short: "Remove a sub-category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Logbook.RemoveSubCategory(cmd.Context(), args[0], args[1])
		},
	})
	return cmd
}

func printTree(cmd *cobra.Command, nodes []core.CategoryNode) {
	out := cmd.OutOrStdout()
	for _, n := range nodes {
		fmt.Fprintln(out, n.Name)
		if len(n.SubCategories) > 0 {
			fmt.Fprintf(out, "  %s\n", strings.Join(n.SubCategories, ", "))
		}
	}
}
