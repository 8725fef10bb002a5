package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytbridge/internal/catalog"
	"ytbridge/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, credentials and notification delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(false, func(a *app) error {
				tags, err := a.store.Tags(cmd.Context())
				if err != nil {
					return fmt.Errorf("load tags: %w", err)
				}
				var logins []string
				for _, account := range catalog.NewTree(tags).Accounts(a.cfg.YouTube.AccountRootTag) {
					if login := account.Login(); login != "" {
						logins = append(logins, login)
					}
				}

				results := preflight.RunAll(cmd.Context(), a.cfg, logins)
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				if failed := preflight.Failed(results); failed > 0 {
					return fmt.Errorf("%d of %d checks failed", failed, len(results))
				}
				return nil
			})
		},
	}
}
