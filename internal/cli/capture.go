package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"taeu.kr/kirosumi/internal/capture"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/richtext"
	"taeu.kr/kirosumi/pkg/client"
)

const captureListKey = "capture.all"

func newCaptureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "capture",
		Aliases: []string{"c"},
		Short:   "Record and manage captures",
	}
	cmd.AddCommand(newCaptureAddCmd(a))
	cmd.AddCommand(newCaptureListCmd(a))
	cmd.AddCommand(newCaptureRmCmd(a))
	cmd.AddCommand(newCaptureConvertCmd(a))
	return cmd
}

func newCaptureAddCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Record a new capture",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := capture.CreateRequest{Title: strings.Join(args, " ")}
			if strings.TrimSpace(description) != "" {
				req.Description = richtext.FromText(description)
			}

			created, err := client.Mutate[*capture.Capture](cmd.Context(), a.client, "capture.create", req)
			if err != nil {
				return err
			}
			a.client.Cache().Invalidate(captureListKey)

			if a.flags.jsonMode {
				return a.printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Captured %s %q\n", created.PublicID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "plain text body")
	return cmd
}

func newCaptureListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List captures, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			captures, err := client.CachedQuery[[]*capture.Capture](cmd.Context(), a.client, captureListKey, nil)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd.OutOrStdout(), captures)
			}
			if len(captures) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No captures")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCREATED")
			for _, c := range captures {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.PublicID, c.Title, c.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func captureID(c *capture.Capture) string { return c.PublicID }

func newCaptureRmCmd(a *app) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "rm <publicId...>",
		Short: "Delete captures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := "capture.softDelete"
			if hard {
				path = "capture.hardDelete"
			}

			// 목록을 캐시에 올려 두고 하나씩 낙관적으로 뺀다
			if _, err := client.CachedQuery[[]*capture.Capture](ctx, a.client, captureListKey, nil); err != nil {
				return err
			}

			var failed []error
			for _, id := range args {
				_, err := client.MutateOptimistic[*capture.Capture](ctx, a.client, path, map[string]string{"publicId": id}, client.Optimistic[[]*capture.Capture]{
					Key: captureListKey,
					Apply: func(list []*capture.Capture) []*capture.Capture {
						return client.RemoveListItem(list, id, captureID)
					},
				})
				if err != nil {
					failed = append(failed, fmt.Errorf("%s: %w", id, err))
					continue
				}
				if !a.flags.jsonMode {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}
			}

			var remaining []*capture.Capture
			if _, err := a.client.Cache().Get(captureListKey, &remaining); err != nil {
				return err
			}
			if a.flags.jsonMode {
				if err := a.printJSON(cmd.OutOrStdout(), remaining); err != nil {
					return err
				}
			}
			return errors.Join(failed...)
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "remove permanently instead of soft delete")
	return cmd
}

func newCaptureConvertCmd(a *app) *cobra.Command {
	var (
		req      capture.ConvertRequest
		priority int
	)

	cmd := &cobra.Command{
		Use:   "convert <publicId>",
		Short: "Turn a capture into a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.PublicID = args[0]
			if cmd.Flags().Changed("priority") {
				req.Priority = &priority
			}

			task, err := client.Mutate[*item.Item](cmd.Context(), a.client, "capture.convertToTask", req)
			if err != nil {
				return err
			}
			a.client.Cache().Invalidate(captureListKey, "item.")

			if a.flags.jsonMode {
				return a.printJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s to task %s %q\n", args[0], task.PublicID, task.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.SpacePublicID, "space", "", "target space public id (default space if empty)")
	cmd.Flags().StringVar(&req.ProjectPublicID, "project", "", "target project public id")
	cmd.Flags().StringVar(&req.StatusPublicID, "status", "", "target status public id")
	cmd.Flags().IntVar(&priority, "priority", 0, "task priority")
	return cmd
}
