package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, configDir string, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config-dir", configDir, "--env", "test"}, args...))
	return cmd.Execute()
}

func configDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("server:\n  port: \":8080\"\n"), 0o600))
	return dir
}

func TestRoot_MissingConfig(t *testing.T) {
	err := run(t, t.TempDir(), "migrate")
	assert.ErrorContains(t, err, "failed to load config")
}

func TestCreateAdmin_ValidatesFlags(t *testing.T) {
	dir := configDir(t)

	assert.EqualError(t, run(t, dir, "create-admin", "--email", "  "), "--email and --password are required")
	assert.EqualError(t, run(t, dir, "create-admin", "--email", "a@b.co", "--password", "short"),
		"password must be at least 8 characters")
}

func TestReplayOutbox_ValidatesFlags(t *testing.T) {
	dir := configDir(t)

	assert.EqualError(t, run(t, dir, "replay-outbox"), "pass exactly one of --id or --failed")
	assert.EqualError(t, run(t, dir, "replay-outbox", "--id", "4", "--failed"), "pass exactly one of --id or --failed")
	assert.EqualError(t, run(t, dir, "replay-outbox", "--failed", "--limit", "0"), "--limit must be positive")
}

func TestRoot_RejectsExtraArgs(t *testing.T) {
	err := run(t, configDir(t), "migrate", "now")
	assert.Error(t, err)
}
