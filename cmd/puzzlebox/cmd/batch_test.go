package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/puzzlebox/internal/testutil"
)

func TestBatchCommand_Directory(t *testing.T) {
	dir := isolate(t)
	photos := filepath.Join(dir, "photos")
	require.NoError(t, os.MkdirAll(filepath.Join(photos, "more"), 0o750))
	writeLidPhoto(t, photos)
	img := testutil.GeneratePuzzleBox(testutil.DefaultPuzzleBoxConfig())
	testutil.SaveImage(t, img, filepath.Join(photos, "more", "other.png"))

	out, _, err := run(t, "batch", photos, "--recursive", "--output-dir", "flat",
		"--manifest", "--width", "50", "--height", "40", "--jobs", "2", "--format", "json")
	require.NoError(t, err)

	var res struct {
		Items []struct {
			File     string `json:"file"`
			Output   string `json:"output"`
			Manifest string `json:"manifest"`
			Applied  bool   `json:"applied"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
		} `json:"items"`
		Workers int `json:"workers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Workers)
	for _, it := range res.Items {
		assert.True(t, it.Applied)
		assert.Equal(t, 640, it.Width)
		assert.Equal(t, 430, it.Height)
		assert.True(t, testutil.FileExists(it.Manifest))
	}
	assert.Equal(t, filepath.Join("flat", "lid_corrected.png"), res.Items[0].Output)
	assert.Equal(t, filepath.Join("flat", "other_corrected.png"), res.Items[1].Output)
}

func TestBatchCommand_TextAndFailure(t *testing.T) {
	dir := isolate(t)
	photo := writeLidPhoto(t, dir)
	broken := testutil.WriteFile(t, dir, "broken.png", "not a png")

	out, _, err := run(t, "batch", photo, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 inputs failed")
	assert.Contains(t, out, "OK   "+photo)
	assert.Contains(t, out, "FAIL "+broken)
	assert.True(t, testutil.FileExists(filepath.Join(dir, "lid_corrected.png")))
}

func TestBatchCommand_CSVAndProgress(t *testing.T) {
	dir := isolate(t)
	photo := writeLidPhoto(t, dir)

	out, stderr, err := run(t, "batch", photo, "--suffix", "_flat", "--format", "csv", "--progress")
	require.NoError(t, err)
	assert.Contains(t, out, "file,output,detected,applied")
	assert.Contains(t, out, filepath.Join(dir, "lid_flat.png"))
	assert.Contains(t, stderr, "0/1")
	assert.Contains(t, stderr, "Completed in")
}

func TestBatchCommand_ConfigSection(t *testing.T) {
	dir := isolate(t)
	photo := writeLidPhoto(t, dir)
	testutil.WriteFile(t, dir, "puzzlebox.yaml", "batch:\n  output_dir: from-config\n")

	_, _, err := run(t, "batch", photo)
	require.NoError(t, err)
	assert.True(t, testutil.FileExists(filepath.Join(dir, "from-config", "lid_corrected.png")))
}

func TestBatchCommand_Errors(t *testing.T) {
	dir := isolate(t)
	photo := writeLidPhoto(t, dir)
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o750))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no paths", []string{"batch"}, "requires at least 1 arg"},
		{"missing path", []string{"batch", filepath.Join(dir, "nope")}, "cannot access"},
		{"no inputs", []string{"batch", empty}, "no input files found"},
		{"bad format", []string{"batch", photo, "--format", "xml"}, "unsupported format"},
		{"bad interpolation", []string{"batch", photo, "--interpolation", "cubic"}, "interpolation"},
		{"overwrite inputs", []string{"batch", photo, "--suffix", ""}, "suffix is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
