package batch

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/puzzlebox/internal/barcode"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
	"github.com/MeKo-Tech/puzzlebox/internal/testutil"
)

// recordingProgress counts callbacks.
type recordingProgress struct {
	mu       sync.Mutex
	total    int
	progress []int
	errors   []string
	complete bool
}

func (r *recordingProgress) OnStart(total int) { r.total = total }
func (r *recordingProgress) OnProgress(current, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, current)
}

func (r *recordingProgress) OnError(file string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, filepath.Base(file))
}
func (r *recordingProgress) OnComplete() { r.complete = true }

func writeLids(t *testing.T, dir string, names ...string) {
	t.Helper()
	img := testutil.GeneratePuzzleBox(testutil.DefaultPuzzleBoxConfig())
	for _, name := range names {
		testutil.SaveImage(t, img, filepath.Join(dir, name))
	}
}

func TestProcessBatch(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeLids(t, inDir, "a.png", "b.png", "c.png")
	testutil.WriteFile(t, inDir, "broken.jpg", "not a jpeg")

	progress := &recordingProgress{}
	cfg := DefaultConfig()
	cfg.OutputDir = outDir
	cfg.Workers = 2
	cfg.Manifest = true
	cfg.WidthText = "50"
	cfg.HeightText = "40"
	cfg.Progress = progress

	res, err := ProcessBatch(context.Background(), []string{inDir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 4)
	assert.Equal(t, 2, res.WorkerCount)
	assert.Equal(t, 1, res.Failed())

	// Directory entries are walked in lexical order.
	broken := res.Items[2]
	assert.Equal(t, filepath.Join(inDir, "broken.jpg"), broken.File)
	assert.True(t, broken.Failed())
	assert.Empty(t, broken.Output)

	for _, it := range []ItemResult{res.Items[0], res.Items[1], res.Items[3]} {
		assert.False(t, it.Failed(), it.Error)
		assert.True(t, it.Applied)
		assert.False(t, it.Detected)
		// Default box over 640x480 leaves out the bottom 50 pixels.
		assert.Equal(t, 640, it.Width)
		assert.Equal(t, 430, it.Height)
		assert.True(t, testutil.FileExists(it.Output))
		assert.Equal(t, outDir, filepath.Dir(it.Output))
		assert.True(t, testutil.FileExists(it.Manifest))
	}
	assert.Equal(t, filepath.Join(outDir, "a_corrected.png"), res.Items[0].Output)

	assert.Equal(t, 4, progress.total)
	assert.Len(t, progress.progress, 4)
	assert.Equal(t, []string{"broken.jpg"}, progress.errors)
	assert.True(t, progress.complete)

	plane := testutil.LoadImage(t, res.Items[0].Output)
	assert.Equal(t, 640, plane.Bounds().Dx())
}

func TestProcessBatch_OutputNextToInput(t *testing.T) {
	inDir := t.TempDir()
	writeLids(t, inDir, "lid.png")

	res, err := ProcessBatch(context.Background(), []string{filepath.Join(inDir, "lid.png")}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, filepath.Join(inDir, "lid_corrected.png"), res.Items[0].Output)
	assert.Empty(t, res.Items[0].Manifest)
}

func TestProcessBatch_NoInputs(t *testing.T) {
	_, err := ProcessBatch(context.Background(), []string{t.TempDir()}, DefaultConfig())
	require.ErrorIs(t, err, ErrNoInputs)
}

func TestProcessBatch_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Suffix = ""
	_, err := ProcessBatch(context.Background(), []string{t.TempDir()}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid batch config")
}

func TestProcessBatch_Cancelled(t *testing.T) {
	inDir := t.TempDir()
	writeLids(t, inDir, "a.png", "b.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ProcessBatch(ctx, []string{inDir}, DefaultConfig())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Items, 2)
	for _, it := range res.Items {
		assert.True(t, it.Failed())
	}
}

func TestProcessBatch_MissingDetectorFallsBack(t *testing.T) {
	inDir := t.TempDir()
	writeLids(t, inDir, "lid.png")

	cfg := DefaultConfig()
	cfg.Detector.Enabled = true
	cfg.Detector.ModelPath = filepath.Join(inDir, "missing.onnx")

	res, err := ProcessBatch(context.Background(), []string{inDir}, cfg)
	require.NoError(t, err)
	assert.False(t, res.Items[0].Detected)
	assert.True(t, res.Items[0].Applied)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Workers = -1
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Rectify.Interpolation = "cubic"
	require.Error(t, cfg.Validate())
}

func TestProcessSingle_Manifest(t *testing.T) {
	inDir := t.TempDir()
	writeLids(t, inDir, "lid.png")

	cfg := DefaultConfig()
	cfg.Manifest = true
	corrector, err := rectify.New(cfg.Rectify)
	require.NoError(t, err)

	p := &processor{corrector: corrector, size: overlay.FromCentimeters(30, 20), cfg: cfg}
	res := p.processSingle(context.Background(), filepath.Join(inDir, "lid.png"))
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, filepath.Join(inDir, "lid_corrected.yaml"), res.Manifest)

	manifest, err := os.ReadFile(res.Manifest)
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "lid_corrected.png")
}

func TestProcessBatch_ReadCodes(t *testing.T) {
	inDir := t.TempDir()
	qr, err := qrcode.NewQRCodeWriter().Encode("puzzle:750", gozxing.BarcodeFormat_QR_CODE, 160, 160, nil)
	require.NoError(t, err)
	lid := testutil.SolidImage(400, 300, color.White)
	draw.Draw(lid, image.Rect(200, 40, 360, 200), qr, image.Point{}, draw.Src)
	testutil.SaveImage(t, lid, filepath.Join(inDir, "coded.png"))
	writeLids(t, inDir, "plain.png")

	cfg := DefaultConfig()
	cfg.Overlay.ReadCodes = true
	res, err := ProcessBatch(context.Background(), []string{inDir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	require.Len(t, res.Items[0].Codes, 1)
	assert.Equal(t, "puzzle:750", res.Items[0].Codes[0].Value)
	assert.Equal(t, barcode.FormatQR, res.Items[0].Codes[0].Format)
	assert.Empty(t, res.Items[1].Codes)
}
