package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"ytbridge/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Client secrets missing")

	target := filepath.Join(t.TempDir(), "config.toml")
	out = mustRunCLI(t, nil, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, nil, "config", "init", "--path", target); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	mustRunCLI(t, nil, "config", "init", "--path", target, "--overwrite")
}

func TestTestNotify(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRunCLI(t, env, "test-notify")
	requireContains(t, out, "disabled")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	env = setupCLITestEnv(t, testsupport.WithNtfyTopic(srv.URL))
	out = mustRunCLI(t, env, "test-notify")
	requireContains(t, out, "Test notification sent")
	if hits.Load() != 1 {
		t.Fatalf("expected one ntfy request, got %d", hits.Load())
	}
}

func TestAuthPrintsConsentURL(t *testing.T) {
	env := setupCLITestEnv(t)
	secrets := `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(env.cfg.Paths.ClientSecrets, []byte(secrets), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	out, _, err := runCLI(t, env, "auth", testsupport.AccountLogin)
	if err == nil || !strings.Contains(err.Error(), "no authorization code") {
		t.Fatalf("expected missing code error, got %v", err)
	}
	requireContains(t, out, "https://accounts.google.com/o/oauth2/auth")
	requireContains(t, out, "login_hint=main%40example.com")
}

func TestCheckReportsMissingCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "catalog", "import", writeBundle(t, env))

	out, _, err := runCLI(t, env, "check")
	if err == nil || !strings.Contains(err.Error(), "checks failed") {
		t.Fatalf("expected failed checks, got %v", err)
	}
	requireContains(t, out, "Data directory")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Account "+testsupport.AccountLogin)
}
