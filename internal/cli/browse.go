package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/space"
	"taeu.kr/kirosumi/pkg/client"
)

func newItemsCmd(a *app) *cobra.Command {
	var (
		filter item.ListFilter
		kind   string
	)

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List tasks, notes and scratches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Kind = item.Kind(kind)
			if err := filter.Validate(); err != nil {
				return err
			}

			items, err := client.CachedQuery[[]*item.Item](cmd.Context(), a.client, "item.all", filter)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tDONE\tNAME")
			for _, it := range items {
				statusName := "-"
				if it.Status != nil {
					statusName = it.Status.Name
				}
				done := ""
				if it.IsCompleted {
					done = "x"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.PublicID, it.Kind, statusName, done, it.Name)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "task, note or scratch")
	cmd.Flags().StringVar(&filter.SpacePublicID, "space", "", "only items of this space")
	cmd.Flags().BoolVar(&filter.IncludeCompleted, "all", false, "include completed items")
	return cmd
}

func newSpacesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "spaces",
		Short: "List spaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spaces, err := client.CachedQuery[[]*space.Space](cmd.Context(), a.client, "space.all", nil)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd.OutOrStdout(), spaces)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDEFAULT")
			for _, sp := range spaces {
				def := ""
				if sp.IsDefault {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", sp.PublicID, sp.Name, def)
			}
			return tw.Flush()
		},
	}
}
