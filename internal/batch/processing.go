package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/puzzlebox/internal/barcode"
	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/pdf"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// ItemResult describes the correction of one input.
type ItemResult struct {
	File       string          `json:"file"`
	Output     string          `json:"output,omitempty"`
	Manifest   string          `json:"manifest,omitempty"`
	Detected   bool            `json:"detected"`
	Box        skewbox.SkewBox `json:"box"`
	Applied    bool            `json:"applied"`
	Codes      []barcode.Code  `json:"codes,omitempty"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	Warning    string          `json:"warning,omitempty"` // why the correction was skipped
	Error      string          `json:"error,omitempty"`   // why the input could not be processed
}

// Failed reports whether the input could not be processed at all.
func (r ItemResult) Failed() bool { return r.Error != "" }

// processor corrects single inputs with shared, read-only collaborators.
type processor struct {
	corrector *rectify.Corrector
	detector  detector.Detector
	codes     *barcode.Reader // nil unless codes are read
	size      overlay.PhysicalSize
	cfg       Config
}

// outputPath places the corrected image for input.
func (p *processor) outputPath(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + p.cfg.Suffix + ".png"
	if p.cfg.OutputDir != "" {
		return filepath.Join(p.cfg.OutputDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

// processSingle loads, corrects and writes one input. Failures are reported
// in the result rather than returned, so one bad file does not stop a batch.
func (p *processor) processSingle(ctx context.Context, path string) ItemResult {
	res := ItemResult{File: path}
	start := time.Now()
	defer func() { res.DurationMs = time.Since(start).Milliseconds() }()

	img, err := pdf.LoadInput(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	box, detected := detector.InitialBox(p.detector, img)
	res.Box = box
	res.Detected = detected

	corrected, err := p.corrector.Correct(img, box)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Applied = corrected.Applied
	res.Width = corrected.Width
	res.Height = corrected.Height
	if corrected.Err != nil {
		res.Warning = corrected.Err.Error()
	}

	out := p.outputPath(path)
	if err := utils.SaveImage(out, corrected.Image); err != nil {
		res.Error = fmt.Sprintf("write %s: %v", out, err)
		return res
	}
	res.Output = out

	plane := overlay.NewPlane(corrected.Image, p.size, p.cfg.Overlay).WithTexturePath(out)
	if p.codes != nil {
		plane = plane.WithCodes(p.codes.Lookup(ctx, corrected.Image))
		res.Codes = plane.Codes
	}

	if p.cfg.Manifest {
		manifest := strings.TrimSuffix(out, filepath.Ext(out)) + ".yaml"
		if err := overlay.WriteManifest(manifest, plane); err != nil {
			res.Error = err.Error()
			return res
		}
		res.Manifest = manifest
	}
	return res
}

// processParallel corrects paths with at most workers goroutines. Results
// keep the order of paths. Inputs not started before ctx is cancelled are
// reported with the context error.
func (p *processor) processParallel(ctx context.Context, paths []string, workers int, progress ProgressCallback) []ItemResult {
	results := make([]ItemResult, len(paths))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	progress.OnStart(len(paths))

	for i, path := range paths {
		if err := gctx.Err(); err != nil {
			results[i] = ItemResult{File: path, Error: err.Error()}
			continue
		}
		g.Go(func() error {
			res := p.processSingle(gctx, path)
			if res.Failed() {
				slog.Warn("batch item failed", "file", path, "error", res.Error)
				progress.OnError(path, errors.New(res.Error))
			}
			results[i] = res
			progress.OnProgress(int(done.Add(1)), len(paths))
			return nil
		})
	}
	_ = g.Wait()
	progress.OnComplete()
	return results
}
