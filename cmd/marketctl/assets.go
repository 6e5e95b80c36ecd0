package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAssetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Moderate uploaded assets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List assets awaiting moderation, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.services(); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			listings, err := a.assets.ListPending(ctx, a.session())
			if err != nil {
				return err
			}
			if len(listings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to moderate")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tOWNER\tUPLOADED")
			for _, l := range listings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Title, l.CategoryName, l.OwnerName, l.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "approve <id>...",
		Short: "Publish assets to the gallery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.services(); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			for _, id := range args {
				if err := report(cmd, a.assets.Approve(ctx, a.session(), id)); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reject <id>...",
		Short: "Reject assets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.services(); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			for _, id := range args {
				if err := report(cmd, a.assets.Reject(ctx, a.session(), id)); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
			}
			return nil
		},
	})

	return cmd
}
