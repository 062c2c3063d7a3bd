package support

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/puzzlebox/internal/pdf"
	"github.com/MeKo-Tech/puzzlebox/internal/testutil"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// path resolves name inside the scenario workspace.
func (testCtx *TestContext) path(name string) string {
	name = testCtx.substitute(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// aPhotoOfAPuzzleBox writes the synthetic slanted lid photo.
func (testCtx *TestContext) aPhotoOfAPuzzleBox(name string) error {
	img := testutil.GeneratePuzzleBox(testutil.DefaultPuzzleBoxConfig())
	return utils.SaveImage(testCtx.path(name), img)
}

// aScannedPDFOfThePuzzleBox embeds the lid photo into a single-page PDF.
func (testCtx *TestContext) aScannedPDFOfThePuzzleBox(name string) error {
	photo := testCtx.path("scan-source.png")
	if err := testCtx.aPhotoOfAPuzzleBox(photo); err != nil {
		return err
	}
	return pdf.ImportImage(photo, testCtx.path(name), 30, 20)
}

// aFileContaining writes a docstring verbatim.
func (testCtx *TestContext) aFileContaining(name string, content *godog.DocString) error {
	path := testCtx.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(testCtx.substitute(content.Content)), 0o600)
}

// theFileShouldExist checks for an output file.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.path(name)) {
		return fmt.Errorf("file %s does not exist", testCtx.path(name))
	}
	return nil
}

// theImageShouldBe checks the pixel size of a PNG output.
func (testCtx *TestContext) theImageShouldBe(name string, width, height int) error {
	f, err := os.Open(testCtx.path(name))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if cfg.Width != width || cfg.Height != height {
		return fmt.Errorf("image %s is %dx%d, expected %dx%d", name, cfg.Width, cfg.Height, width, height)
	}
	return nil
}

// RegisterFixtureSteps registers steps that create and inspect files.
func (testCtx *TestContext) RegisterFixtureSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a photo of a puzzle box "([^"]*)"$`, testCtx.aPhotoOfAPuzzleBox)
	sc.Step(`^a scanned PDF "([^"]*)" of the puzzle box$`, testCtx.aScannedPDFOfThePuzzleBox)
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContaining)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+)$`, testCtx.theImageShouldBe)
}
