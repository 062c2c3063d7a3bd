package cmd

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/puzzlebox/internal/config"
	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/pdf"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
)

// Box sources reported by the CLI.
const (
	sourceCorners  = "corners"
	sourceDetected = "detected"
	sourceDefault  = "default"
)

// loadInput reads a photo, or the first embedded image of a scanned PDF.
func loadInput(path string) (image.Image, error) {
	return pdf.LoadInput(path)
}

// addBoxFlags registers the flags that choose the starting box.
func addBoxFlags(cmd *cobra.Command) {
	cmd.Flags().String("corners", "", `lid corners in image pixels as "x,y x,y x,y x,y" (TL TR BL BR)`)
	addDetectorFlags(cmd)
}

// addDetectorFlags registers the corner detector flags.
func addDetectorFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("detect", false, "run the ONNX corner detector when no corners are given")
	cmd.Flags().String("model-path", "", "override corner detector model path")
	cmd.Flags().Bool("gpu", false, "run the corner detector on the CUDA execution provider")
}

// applyDetectorFlags copies explicitly set detector flags onto cfg.
func applyDetectorFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("detect") {
		cfg.Detector.Enabled, _ = cmd.Flags().GetBool("detect")
	}
	if cmd.Flags().Changed("model-path") {
		cfg.Detector.ModelPath, _ = cmd.Flags().GetString("model-path")
	}
	if cmd.Flags().Changed("gpu") {
		cfg.Detector.UseGPU, _ = cmd.Flags().GetBool("gpu")
	}
}

// startingBox returns the box given by --corners, otherwise the detected or
// default box for img.
func startingBox(cmd *cobra.Command, cfg config.Config, img image.Image) (skewbox.SkewBox, string, error) {
	if corners, _ := cmd.Flags().GetString("corners"); corners != "" {
		box, err := skewbox.Parse(corners)
		if err != nil {
			return skewbox.SkewBox{}, "", fmt.Errorf("invalid --corners: %w", err)
		}
		return box, sourceCorners, nil
	}

	det, closeDet, err := detector.New(cfg.ToDetectorConfig())
	if err != nil {
		slog.Warn("corner detector unavailable, using default box", "error", err)
		det = detector.None()
	}
	defer func() {
		if closeDet != nil {
			_ = closeDet()
		}
	}()

	box, detected := detector.InitialBox(det, img)
	if detected {
		return box, sourceDetected, nil
	}
	return box, sourceDefault, nil
}
