package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytbridge/internal/catalog"
	"ytbridge/internal/config"
	"ytbridge/internal/remote"
	"ytbridge/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	pub        *testsupport.FakePublisher
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("YTBRIDGE_NTFY_TOPIC", "")
	t.Setenv("YTBRIDGE_CLIENT_SECRETS", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	pub := testsupport.NewFakePublisher()
	previous := newPublisher
	newPublisher = func(*config.Config, *slog.Logger, bool) (remote.Publisher, error) {
		return pub, nil
	}
	t.Cleanup(func() { newPublisher = previous })

	return &cliTestEnv{cfg: cfg, pub: pub, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\ncredentials_dir = %q\nclient_secrets = %q\n\n[notifications]\nntfy_topic = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.CredentialsDir,
		cfg.Paths.ClientSecrets,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// writeBundle writes a catalog export with the fixture account tags and the
// given assets.
func writeBundle(t *testing.T, env *cliTestEnv, assets ...*catalog.Asset) string {
	t.Helper()
	data, err := json.Marshal(catalog.Bundle{Tags: testsupport.AccountTags(), Assets: assets})
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	return testsupport.WriteFile(t, env.baseDir, "bundle.json", string(data))
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	flags := []string{}
	if env != nil && env.configPath != "" {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, _, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
