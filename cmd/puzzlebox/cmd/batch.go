package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/puzzlebox/internal/batch"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch PATH...",
		Short: "Straighten every lid photo in files or directories",
		Long: `Straighten many puzzle box photos in one run.

Each input gets the detected lid (--detect) or the default box. Corrected
images are written as NAME_corrected.png next to the input or into
--output-dir. Inputs that cannot be read are reported and skipped; the
command fails when any input failed.

Examples:
  puzzlebox batch photos/ --recursive --output-dir flat/
  puzzlebox batch a.jpg b.jpg --width 50 --height 40 --manifest --format json
  puzzlebox batch scans/ --include "*.pdf" --jobs 4 --progress`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			applyDetectorFlags(cmd, &cfg)
			if err := applyCorrectionFlags(cmd, &cfg); err != nil {
				return err
			}

			bc := cfg.ToBatchConfig()
			if cmd.Flags().Changed("recursive") {
				bc.Recursive, _ = cmd.Flags().GetBool("recursive")
			}
			if cmd.Flags().Changed("output-dir") {
				bc.OutputDir, _ = cmd.Flags().GetString("output-dir")
			}
			if cmd.Flags().Changed("suffix") {
				bc.Suffix, _ = cmd.Flags().GetString("suffix")
			}
			if cmd.Flags().Changed("jobs") {
				bc.Workers, _ = cmd.Flags().GetInt("jobs")
			}
			bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
			bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
			bc.Manifest, _ = cmd.Flags().GetBool("manifest")
			bc.WidthText, _ = cmd.Flags().GetString("width")
			bc.HeightText, _ = cmd.Flags().GetString("height")
			if progress, _ := cmd.Flags().GetBool("progress"); progress {
				bc.Progress = batch.NewConsoleProgressCallback(cmd.ErrOrStderr(), "")
			}

			format, _ := cmd.Flags().GetString("format")
			if format != batch.FormatText && format != batch.FormatJSON && format != batch.FormatCSV {
				return fmt.Errorf("unsupported format %q (must be text, json or csv)", format)
			}

			res, err := batch.ProcessBatch(cmd.Context(), args, bc)
			if err != nil {
				return err
			}
			if err := res.Write(cmd.OutOrStdout(), format); err != nil {
				return err
			}
			if failed := res.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d inputs failed", failed, len(res.Items))
			}
			return nil
		},
	}

	addDetectorFlags(cmd)
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringSlice("include", nil, "only inputs whose name matches one of these globs")
	cmd.Flags().StringSlice("exclude", nil, "skip inputs whose name matches one of these globs")
	cmd.Flags().String("output-dir", "", "write corrected images here instead of next to each input")
	cmd.Flags().String("suffix", "", `appended to each input name (default "_corrected")`)
	cmd.Flags().Bool("manifest", false, "write a plane manifest next to every corrected image")
	cmd.Flags().String("width", "", "lid width in centimeters")
	cmd.Flags().String("height", "", "lid height in centimeters")
	cmd.Flags().String("interpolation", "", "sampling: bilinear or nearest")
	cmd.Flags().String("size-mode", "", "output size from the quad: bounds or edges")
	cmd.Flags().Int("output-width", 0, "fixed output width in pixels")
	cmd.Flags().Int("output-height", 0, "fixed output height in pixels")
	cmd.Flags().IntP("jobs", "j", 0, "images corrected at once (default from batch.workers)")
	cmd.Flags().Float64("opacity", 0, "overlay opacity written to manifests (0-1)")
	cmd.Flags().Bool("read-codes", false, "read barcodes printed on each corrected lid")
	cmd.Flags().String("format", batch.FormatText, "summary format: text, json or csv")
	cmd.Flags().Bool("progress", false, "draw a progress bar on stderr")
	return cmd
}
