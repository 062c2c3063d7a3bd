package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/puzzlebox/internal/barcode"
	"github.com/MeKo-Tech/puzzlebox/internal/config"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// correctionOutput summarises one correction.
type correctionOutput struct {
	Input      string          `json:"input"`
	Output     string          `json:"output"`
	Manifest   string          `json:"manifest,omitempty"`
	PDF        string          `json:"pdf,omitempty"`
	Source     string          `json:"source"`
	Box        skewbox.SkewBox `json:"box"`
	Applied    bool            `json:"applied"`
	Error      string          `json:"error,omitempty"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Plane      string          `json:"plane"`
	Codes      []barcode.Code  `json:"codes,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

func newCorrectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct IMAGE",
		Short: "Straighten the lid in a photo",
		Long: `Straighten the quadrilateral lid of a puzzle box into an upright image.

The lid is taken from --corners, the corner detector (--detect) or the
default box. Width and height are the lid's real size in centimeters; values
that cannot be parsed fall back to 1 cm. A singular box leaves the image
unchanged.

Examples:
  puzzlebox correct photo.jpg --corners "120,80 530,95 90,410 560,390" -o lid.png
  puzzlebox correct photo.jpg --width 50 --height 40 --manifest plane.yaml --pdf print.pdf
  puzzlebox correct scan.pdf --interpolation nearest --output-width 1000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			applyDetectorFlags(cmd, &cfg)
			if err := applyCorrectionFlags(cmd, &cfg); err != nil {
				return err
			}

			input := args[0]
			img, err := loadInput(input)
			if err != nil {
				return err
			}
			box, source, err := startingBox(cmd, cfg, img)
			if err != nil {
				return err
			}

			out, err := writeCorrection(cmd, cfg, input, img, box)
			if err != nil {
				return err
			}
			out.Source = source
			return printCorrection(cmd, out)
		},
	}
	addBoxFlags(cmd)
	addCorrectionFlags(cmd)
	cmd.Flags().String("format", formatText, "summary format: text or json")
	return cmd
}

// addCorrectionFlags registers flags shared by every command that writes a corrected image.
func addCorrectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "corrected image path (default IMAGE_corrected.png)")
	cmd.Flags().String("width", "", "lid width in centimeters")
	cmd.Flags().String("height", "", "lid height in centimeters")
	cmd.Flags().String("manifest", "", "write the AR plane manifest (YAML) to this path")
	cmd.Flags().String("pdf", "", "write a printable PDF at the lid's physical size to this path")
	cmd.Flags().String("interpolation", "", "sampling: bilinear or nearest")
	cmd.Flags().String("size-mode", "", "output size from the quad: bounds or edges")
	cmd.Flags().Int("output-width", 0, "fixed output width in pixels")
	cmd.Flags().Int("output-height", 0, "fixed output height in pixels")
	cmd.Flags().Int("workers", 0, "parallel row bands (0 = all CPUs)")
	cmd.Flags().String("debug-dir", "", "write overlay and comparison PNGs to this directory")
	cmd.Flags().Float64("opacity", 0, "overlay opacity written to the manifest (0-1)")
	cmd.Flags().Bool("read-codes", false, "read barcodes printed on the corrected lid into the manifest")
}

// applyCorrectionFlags copies explicitly set correction flags onto cfg.
func applyCorrectionFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("interpolation") {
		cfg.Rectify.Interpolation, _ = cmd.Flags().GetString("interpolation")
	}
	if cmd.Flags().Changed("size-mode") {
		cfg.Rectify.SizeMode, _ = cmd.Flags().GetString("size-mode")
	}
	if cmd.Flags().Changed("output-width") {
		cfg.Rectify.OutputWidth, _ = cmd.Flags().GetInt("output-width")
	}
	if cmd.Flags().Changed("output-height") {
		cfg.Rectify.OutputHeight, _ = cmd.Flags().GetInt("output-height")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Rectify.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("debug-dir") {
		cfg.Rectify.DebugDir, _ = cmd.Flags().GetString("debug-dir")
	}
	if cmd.Flags().Changed("opacity") {
		cfg.Overlay.Opacity, _ = cmd.Flags().GetFloat64("opacity")
	}
	if cmd.Flags().Changed("read-codes") {
		cfg.Overlay.ReadCodes, _ = cmd.Flags().GetBool("read-codes")
	}
	return cfg.Validate()
}

// writeCorrection corrects img and writes the image, the manifest and the PDF.
func writeCorrection(cmd *cobra.Command, cfg config.Config, input string, img image.Image, box skewbox.SkewBox) (correctionOutput, error) {
	corrector, err := rectify.New(cfg.ToRectifyConfig())
	if err != nil {
		return correctionOutput{}, err
	}
	res, err := corrector.Correct(img, box)
	if err != nil {
		return correctionOutput{}, err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "_corrected.png"
	}
	if err := utils.SaveImage(output, res.Image); err != nil {
		return correctionOutput{}, fmt.Errorf("write corrected image: %w", err)
	}

	widthText, _ := cmd.Flags().GetString("width")
	heightText, _ := cmd.Flags().GetString("height")
	size := overlay.ParseSize(widthText, heightText)
	plane := overlay.NewPlane(res.Image, size, cfg.ToOverlayOptions()).WithTexturePath(output)
	if cfg.Overlay.ReadCodes {
		plane = plane.WithCodes(barcode.NewReader(barcode.Options{TryHarder: true}).Lookup(cmd.Context(), res.Image))
	}

	out := correctionOutput{
		Input:      input,
		Output:     output,
		Box:        box,
		Applied:    res.Applied,
		Width:      res.Width,
		Height:     res.Height,
		Plane:      size.String(),
		Codes:      plane.Codes,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}

	if manifest, _ := cmd.Flags().GetString("manifest"); manifest != "" {
		if err := overlay.WriteManifest(manifest, plane); err != nil {
			return correctionOutput{}, err
		}
		out.Manifest = manifest
	}

	pdfPath, _ := cmd.Flags().GetString("pdf")
	if pdfPath == "" && cfg.Overlay.PDF {
		pdfPath = strings.TrimSuffix(output, filepath.Ext(output)) + ".pdf"
	}
	if pdfPath != "" {
		if err := overlay.ExportPDF(output, pdfPath, size); err != nil {
			return correctionOutput{}, fmt.Errorf("export pdf: %w", err)
		}
		out.PDF = pdfPath
	}

	slog.Debug("correction written", "output", output, "applied", res.Applied, "plane", size.String())
	return out, nil
}

func printCorrection(cmd *cobra.Command, out correctionOutput) error {
	format, _ := cmd.Flags().GetString("format")
	w := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case formatText, "":
		status := "corrected"
		if !out.Applied {
			status = "unchanged (" + out.Error + ")"
		}
		_, _ = fmt.Fprintf(w, "%s -> %s: %s, %dx%d, plane %s\n",
			out.Input, out.Output, status, out.Width, out.Height, out.Plane)
		if out.Manifest != "" {
			_, _ = fmt.Fprintf(w, "manifest: %s\n", out.Manifest)
		}
		if out.PDF != "" {
			_, _ = fmt.Fprintf(w, "pdf: %s\n", out.PDF)
		}
		for _, c := range out.Codes {
			_, _ = fmt.Fprintf(w, "code: %s %s\n", c.Format, c.Value)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
}
