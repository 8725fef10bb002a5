package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytbridge/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sender := notifications.NewSender(cfg)
			if notifications.IsNoop(sender) {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are disabled or notifications.ntfy_topic is empty")
				return nil
			}
			if err := notifications.TestNotification(cmd.Context(), sender); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
