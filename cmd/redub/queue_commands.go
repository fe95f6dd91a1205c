package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"redub/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the render log",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List render entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(listStatuses)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				if len(resp.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Kind", "Label", "Status", "Progress", "Created"},
					buildQueueListRows(resp.Entries),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by entry status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one render entry in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueDescribe(id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				entry := resp.Entry

				fmt.Fprintln(stdout, renderStatusLine("ID", statusInfo, strconv.FormatInt(entry.ID, 10), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Kind", statusInfo, entry.Kind, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Label", statusInfo, entry.Label, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Status", queueStatusKind(entry.Status), entry.Status, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, formatProgress(entry), colorize))
				if entry.ResultURL != "" {
					fmt.Fprintln(stdout, renderStatusLine("Result", statusOK, entry.ResultURL, colorize))
				}
				if entry.ErrorMessage != "" {
					fmt.Fprintln(stdout, renderStatusLine("Error", statusError, entry.ErrorMessage, colorize))
				}
				if entry.RequestID != "" {
					fmt.Fprintln(stdout, renderStatusLine("Request", statusInfo, entry.RequestID, colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Created", statusInfo, entry.CreatedAt, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Elapsed", statusInfo, fmt.Sprintf("%.1fs", entry.ElapsedSeconds), colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var finishedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove render entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClear(finishedOnly)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", resp.Removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&finishedOnly, "finished", false, "Remove only finished entries, keep in-flight ones")
	return cmd
}

func buildQueueListRows(entries []ipc.QueueEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(entry.ID, 10),
			entry.Kind,
			truncateText(entry.Label, 40),
			entry.Status,
			formatProgress(entry),
			entry.CreatedAt,
		})
	}
	return rows
}

func formatProgress(entry ipc.QueueEntry) string {
	if entry.ProgressMessage != "" {
		return fmt.Sprintf("%.0f%% %s", entry.ProgressPercent, entry.ProgressMessage)
	}
	return fmt.Sprintf("%.0f%%", entry.ProgressPercent)
}

func queueStatusKind(status string) statusKind {
	switch status {
	case "done":
		return statusOK
	case "failed":
		return statusError
	case "rendering":
		return statusWarn
	default:
		return statusInfo
	}
}
