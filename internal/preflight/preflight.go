package preflight

import (
	"context"

	"ytbridge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check. logins are the account logins found
// in the catalog; each needs a stored token.
func RunAll(ctx context.Context, cfg *config.Config, logins []string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Credentials directory", cfg.Paths.CredentialsDir),
		CheckClientSecrets(cfg.Paths.ClientSecrets),
	}
	if len(logins) == 0 {
		results = append(results, Result{Name: "Accounts", Detail: "no account tags with a login under " + cfg.YouTube.AccountRootTag})
	}
	for _, login := range logins {
		results = append(results, CheckAccountToken(cfg.Paths.CredentialsDir, login))
	}

	if cfg.Notifications.Enabled && cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
