package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nishant946/masset/internal/api"
)

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage asset categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.services(); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			cats, err := a.categories.List(ctx)
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED")
			for _, c := range cats {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.services(); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return report(cmd, a.categories.Add(ctx, a.session(), strings.Join(args, " ")))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an unused category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid category id %q", args[0])
			}
			if err := a.services(); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return report(cmd, a.categories.Delete(ctx, a.session(), id))
		},
	})

	return cmd
}

// report prints a successful result and turns a failed one into an error so
// the process exits non-zero.
func report(cmd *cobra.Command, r api.Result) error {
	if !r.Success {
		return errors.New(r.Message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.Message)
	return nil
}
