package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/puzzlebox/internal/testutil"
)

// lidCorners matches testutil.DefaultPuzzleBoxConfig.
const lidCorners = "140,90 520,110 100,400 560,380"

// isolate runs the test in an empty directory with no config file or
// PUZZLEBOX_ variables in reach, and returns that directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "PUZZLEBOX_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Chdir(dir)
	return dir
}

// run executes a fresh command tree and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// writeLidPhoto saves the synthetic lid photo into dir.
func writeLidPhoto(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "lid.png")
	testutil.SaveImage(t, testutil.GeneratePuzzleBox(testutil.DefaultPuzzleBoxConfig()), path)
	return path
}

func TestRootCommand(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "puzzlebox", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)

	names := make([]string, 0, len(root.Commands()))
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"box", "correct", "edit", "batch", "serve", "config"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandHelp(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "perspective-corrected texture")
	assert.Contains(t, out, "Available Commands:")
}

func TestRootCommandInvalidFlag(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "--no-such-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestRootCommandMissingConfigFile(t *testing.T) {
	dir := isolate(t)
	_, _, err := run(t, "--config", filepath.Join(dir, "missing.yaml"), "box", "photo.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestRootCommandInvalidConfigRejected(t *testing.T) {
	dir := isolate(t)
	cfgPath := testutil.WriteFile(t, dir, "puzzlebox.yaml", "rectify:\n  interpolation: cubic\n")
	photo := writeLidPhoto(t, dir)

	_, _, err := run(t, "--config", cfgPath, "box", photo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestRootCommandVerboseLogsToStderr(t *testing.T) {
	dir := isolate(t)
	photo := writeLidPhoto(t, dir)

	out, stderr, err := run(t, "-v", "correct", photo, "--corners", lidCorners,
		"-o", filepath.Join(dir, "out.png"))
	require.NoError(t, err)
	assert.NotContains(t, out, `"level"`)
	assert.Contains(t, stderr, `"msg":"correction written"`)
}
