package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ytbridge/internal/batch"
	"ytbridge/internal/reconcile"
)

func newPassCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSyncCommand(ctx),
		newUploadCommand(ctx),
		newUpdateCommand(ctx),
		newDeleteCommand(ctx),
	}
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run every pass in order (orphans, delete, upload, status, metadata, playlists, captions)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runPasses(cmd, "sync", func(engine *reconcile.Engine) []batch.Step {
				return batch.FullCycle(engine, limit)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of uploads (0 uses youtube.upload_limit)")
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload publishable assets that have no live video",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runPasses(cmd, reconcile.PassUpload, func(engine *reconcile.Engine) []batch.Step {
				return []batch.Step{{Name: reconcile.PassUpload, Run: func(runCtx context.Context) (reconcile.PassResult, error) {
					return engine.Upload(runCtx, limit)
				}}}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of uploads (0 uses youtube.upload_limit)")
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update published videos",
	}

	updateCmd.AddCommand(&cobra.Command{
		Use:   "metadata",
		Short: "Push changed catalog metadata to published videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd, reconcile.PassMetadata, func(e *reconcile.Engine) passFunc { return e.UpdateMetadata })
		},
	})

	var full bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh the remote processing status of uploaded videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd, reconcile.PassStatus, func(e *reconcile.Engine) passFunc {
				return func(runCtx context.Context) (reconcile.PassResult, error) {
					return e.RefreshStatus(runCtx, full)
				}
			})
		},
	}
	statusCmd.Flags().BoolVar(&full, "full", false, "Also re-check published and duplicated videos")
	updateCmd.AddCommand(statusCmd)

	updateCmd.AddCommand(&cobra.Command{
		Use:   "playlists",
		Short: "Align account playlists and video memberships",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd, reconcile.PassPlaylists, func(e *reconcile.Engine) passFunc { return e.SyncPlaylists })
		},
	})
	updateCmd.AddCommand(&cobra.Command{
		Use:   "captions",
		Short: "Upload and remove captions of published videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd, reconcile.PassCaptions, func(e *reconcile.Engine) passFunc { return e.SyncCaptions })
		},
	})
	return updateCmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete videos of assets that are no longer publishable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd, reconcile.PassDelete, func(e *reconcile.Engine) passFunc { return e.DeleteUnpublished })
		},
	}
	deleteCmd.AddCommand(&cobra.Command{
		Use:   "orphans",
		Short: "Delete videos whose catalog asset is gone or marked for deletion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd, reconcile.PassOrphans, func(e *reconcile.Engine) passFunc { return e.DeleteOrphans })
		},
	})
	return deleteCmd
}

type passFunc func(context.Context) (reconcile.PassResult, error)

func (c *commandContext) runSingle(cmd *cobra.Command, pass string, pick func(*reconcile.Engine) passFunc) error {
	return c.runPasses(cmd, pass, func(engine *reconcile.Engine) []batch.Step {
		return []batch.Step{{Name: pass, Run: pick(engine)}}
	})
}

// runPasses executes the steps under the batch runner and prints the summary.
// Item failures are reported through the digest and do not fail the command;
// aborted passes and lock contention do.
func (c *commandContext) runPasses(cmd *cobra.Command, cause string, build func(*reconcile.Engine) []batch.Step) error {
	return c.withApp(true, func(a *app) error {
		summary, err := a.runner.Run(cmd.Context(), cause, build(a.engine)...)
		if len(summary.Results) > 0 {
			printSummary(cmd.OutOrStdout(), summary)
		}
		return err
	})
}

func printSummary(out io.Writer, summary batch.Summary) {
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		rows = append(rows, []string{
			r.Pass,
			strconv.Itoa(r.Candidates),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Skipped),
			r.Elapsed.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Pass", "Candidates", "Succeeded", "Failed", "Skipped", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Run %s: %d failed, digest sent: %s\n", summary.RunID, summary.Failed(), yesNo(summary.Notified))
}
