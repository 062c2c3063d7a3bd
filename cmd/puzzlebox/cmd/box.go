package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
)

// boxOutput is printed by the box command.
type boxOutput struct {
	Source        string          `json:"source"`
	Box           skewbox.SkewBox `json:"box"`
	Handles       skewbox.SkewBox `json:"handles"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	DisplayHeight float64         `json:"display_height"`
}

func newBoxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "box IMAGE",
		Short: "Print the initial lid box for an image",
		Long: `Print the box an adjustment session starts from, in image pixels, together
with the handle positions on the half-resolution display surface.

Without --corners the corner detector is used when enabled; when it finds
nothing the box covers the full width and leaves out the bottom 50 pixels.

Examples:
  puzzlebox box photo.jpg
  puzzlebox box photo.jpg --detect --models-dir ./models`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			applyDetectorFlags(cmd, &cfg)

			img, err := loadInput(args[0])
			if err != nil {
				return err
			}
			box, source, err := startingBox(cmd, cfg, img)
			if err != nil {
				return err
			}

			b := img.Bounds()
			displayHeight := skewbox.DisplayHeightFor(b.Dy())
			out := boxOutput{
				Source:        source,
				Box:           box,
				Handles:       skewbox.BoxToDisplay(box, displayHeight),
				Width:         b.Dx(),
				Height:        b.Dy(),
				DisplayHeight: displayHeight,
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode box: %w", err)
			}
			return nil
		},
	}
	addBoxFlags(cmd)
	return cmd
}
