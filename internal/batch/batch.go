// Package batch corrects many puzzle-box photos in one run: inputs are
// discovered from files and directories, corrected in parallel with the
// detected or default box, and summarised as text, JSON or CSV.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/puzzlebox/internal/barcode"
	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
)

// ErrNoInputs reports a batch without any input files.
var ErrNoInputs = errors.New("no input files found")

// Result holds the result of a batch run.
type Result struct {
	Items       []ItemResult  `json:"items"`
	Duration    time.Duration `json:"-"`
	WorkerCount int           `json:"workers"`
}

// Failed returns the number of inputs that could not be processed.
func (r *Result) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Failed() {
			n++
		}
	}
	return n
}

// ProcessBatch corrects every input named by args. A detector that cannot
// be loaded degrades to the default box for every input.
func ProcessBatch(ctx context.Context, args []string, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}

	files, err := discoverInputs(args, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	corrector, err := rectify.New(config.Rectify)
	if err != nil {
		return nil, err
	}

	det, closeDet, err := detector.New(config.Detector)
	if err != nil {
		slog.Warn("corner detector unavailable, using default boxes", "error", err)
		det = detector.None()
	}
	defer func() {
		if err := closeDet(); err != nil {
			slog.Error("Error closing corner detector", "error", err)
		}
	}()

	progress := config.Progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	p := &processor{
		corrector: corrector,
		detector:  det,
		size:      overlay.ParseSize(config.WidthText, config.HeightText),
		cfg:       config,
	}
	if config.Overlay.ReadCodes {
		p.codes = barcode.NewReader(barcode.Options{TryHarder: true})
	}

	start := time.Now()
	items := p.processParallel(ctx, files, config.workers(), progress)
	return &Result{
		Items:       items,
		Duration:    time.Since(start),
		WorkerCount: config.workers(),
	}, ctx.Err()
}
