package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytbridge/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Maintain the local catalog",
	}
	catalogCmd.AddCommand(newCatalogImportCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))
	return catalogCmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle.json>",
		Short: "Import tags and assets from a JSON catalog export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := catalog.LoadBundle(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(false, func(a *app) error {
				tags, assets, err := catalog.Import(cmd.Context(), a.store, bundle, a.cfg.YouTube.PublishedTag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tags and %d assets\n", tags, assets)
				return nil
			})
		},
	}
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <asset-id>...",
		Short: "Remove assets from the catalog and mark their videos for deletion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(false, func(a *app) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					id = strings.TrimSpace(id)
					if id == "" {
						continue
					}
					if err := a.store.DeleteAsset(cmd.Context(), id); err != nil {
						return fmt.Errorf("remove asset %s: %w", id, err)
					}
					fmt.Fprintf(out, "Removed asset %s\n", id)
				}
				return nil
			})
		},
	}
}
