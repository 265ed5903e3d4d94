package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("TELLER_STORE", "file")
	t.Setenv("TELLER_DATA_DIR", filepath.Join(t.TempDir(), "sessions"))
	t.Setenv("TELLER_LOG_LEVEL", "error")
	envFile := filepath.Join(t.TempDir(), "missing.env")

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "teller version dev")

	out, err = run(t, "session", "ls", "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "No active sessions found.")

	out, err = run(t, "session", "prune", "--env-file", envFile, "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 0 sessions")

	_, err = run(t, "session", "inspect", "ghost", "--env-file", envFile)
	assert.ErrorContains(t, err, "ghost")

	_, err = run(t, "session", "ls", "--env-file", envFile, "--store", "postgres")
	assert.ErrorContains(t, err, "TELLER_STORE")
}
