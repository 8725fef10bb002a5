package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ytbridge/internal/remote/ytapi"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth <login>",
		Short: "Authorize an account and store its OAuth token",
		Long: "Prints the Google consent URL for the account, reads the authorization code " +
			"from stdin and stores the resulting token under paths.credentials_dir.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			login := strings.TrimSpace(args[0])
			if login == "" {
				return errors.New("login is required")
			}
			oauthCfg, err := ytapi.LoadOAuthConfig(cfg.Paths.ClientSecrets)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL signed in as %s and approve access:\n\n  %s\n\n", login, ytapi.AuthCodeURL(oauthCfg, login))
			fmt.Fprint(out, "Authorization code: ")
			// A code without a trailing newline still counts.
			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return errors.New("no authorization code entered")
			}

			tokens := ytapi.NewTokenStore(cfg.Paths.CredentialsDir)
			if err := tokens.Exchange(cmd.Context(), oauthCfg, login, code); err != nil {
				return fmt.Errorf("exchange authorization code: %w", err)
			}
			fmt.Fprintf(out, "\nToken stored at %s\n", tokens.Path(login))
			return nil
		},
	}
}
