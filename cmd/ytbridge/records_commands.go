package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytbridge/internal/notifications"
	"ytbridge/internal/syncstate"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect sync records",
	}
	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsStatsCommand(ctx))
	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sync records",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withApp(false, func(a *app) error {
				records, err := a.store.RecordsByStatus(cmd.Context(), statuses...)
				if err != nil {
					return fmt.Errorf("list records: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No records")
					return nil
				}
				printRecords(out, records)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Only show records in these statuses (name or code)")
	return cmd
}

func newRecordsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count records per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(false, func(a *app) error {
				counts, err := a.store.StatusCounts(cmd.Context())
				if err != nil {
					return fmt.Errorf("count records: %w", err)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(counts)+1)
				total := 0
				for _, status := range syncstate.AllStatuses() {
					n := counts[status]
					if n == 0 {
						continue
					}
					total += n
					rows = append(rows, []string{statusLabel(status, colorize), strconv.Itoa(n)})
				}
				rows = append(rows, []string{"total", strconv.Itoa(total)})
				fmt.Fprintln(out, renderTable([]string{"Status", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newErrorsCommand(ctx *commandContext) *cobra.Command {
	var notify bool
	var markNotified bool
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Report records waiting for manual triage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(false, func(a *app) error {
				records, err := a.engine.StuckRecords(cmd.Context())
				if err != nil {
					return fmt.Errorf("list stuck records: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No records need attention")
					return nil
				}
				printRecords(out, records)

				if notify {
					sent, err := notifications.Stuck(cmd.Context(), a.sender, records)
					if err != nil {
						return fmt.Errorf("send stuck report: %w", err)
					}
					fmt.Fprintf(out, "Report sent: %s\n", yesNo(sent))
				}
				if markNotified {
					marked := 0
					for _, rec := range records {
						if !rec.Status.IsErrorState() {
							continue
						}
						if err := a.engine.MarkNotified(cmd.Context(), rec); err != nil {
							return fmt.Errorf("mark %s notified: %w", rec.AssetID, err)
						}
						marked++
					}
					fmt.Fprintf(out, "Marked %d records as notified\n", marked)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "Send the report through ntfy")
	cmd.Flags().BoolVar(&markNotified, "mark-notified", false, "Move reported error records to notified_error")
	return cmd
}

func parseStatuses(values []string) ([]syncstate.Status, error) {
	if len(values) == 0 {
		return syncstate.AllStatuses(), nil
	}
	statuses := make([]syncstate.Status, 0, len(values))
	for _, value := range values {
		status, err := syncstate.ParseStatus(value)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func printRecords(out io.Writer, records []*syncstate.Record) {
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.AssetID,
			statusLabel(rec.Status, colorize),
			dashIfEmpty(rec.RemoteID),
			dashIfEmpty(rec.AccountLogin),
			formatTime(rec.UpdatedAt),
			errorSummary(rec.LastError),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Asset", "Status", "Video", "Account", "Updated", "Last error"},
		rows,
		nil,
	))
}

func errorSummary(rec *syncstate.ErrorRecord) string {
	if rec == nil {
		return "-"
	}
	message := strings.TrimSpace(rec.Message)
	if runes := []rune(message); len(runes) > 60 {
		message = string(runes[:57]) + "..."
	}
	if rec.Reason == "" {
		return message
	}
	return rec.Reason + ": " + message
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
