package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
)

// editOutput is the result of replaying a gesture script.
type editOutput struct {
	Source     string            `json:"source"`
	Events     int               `json:"events"`
	State      string            `json:"state"`
	Start      skewbox.SkewBox   `json:"start"`
	Box        skewbox.SkewBox   `json:"box"`
	Correction *correctionOutput `json:"correction,omitempty"`
}

// readEvents decodes a YAML list of gesture events.
func readEvents(path string) ([]skewbox.Event, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: events file path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	var events []skewbox.Event
	if err := yaml.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse events %s: %w", path, err)
	}
	return events, nil
}

func newEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit IMAGE",
		Short: "Replay corner adjustments against the starting box",
		Long: `Replay a scripted corner-adjustment session and print the confirmed box.

The events file is a YAML list of gestures in display coordinates (half the
image resolution, origin at the bottom left):

  - {phase: begin, x: 310, y: 190}
  - {phase: move, x: 300, y: 200}
  - {phase: end, x: 300, y: 200}
  - {phase: undo}

With --output the confirmed box is also corrected like "puzzlebox correct".

Examples:
  puzzlebox edit photo.jpg --events gestures.yaml
  puzzlebox edit photo.jpg --events gestures.yaml --detect -o lid.png --width 50 --height 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			applyDetectorFlags(cmd, &cfg)
			if cmd.Flags().Changed("tolerance") {
				cfg.Editor.Tolerance, _ = cmd.Flags().GetFloat64("tolerance")
			}
			if err := applyCorrectionFlags(cmd, &cfg); err != nil {
				return err
			}

			var events []skewbox.Event
			if path, _ := cmd.Flags().GetString("events"); path != "" {
				var err error
				if events, err = readEvents(path); err != nil {
					return err
				}
			}

			input := args[0]
			img, err := loadInput(input)
			if err != nil {
				return err
			}
			start, source, err := startingBox(cmd, cfg, img)
			if err != nil {
				return err
			}

			editor := skewbox.NewEditor(start, skewbox.DisplayHeightFor(img.Bounds().Dy()), cfg.Editor.Tolerance)
			if err := editor.Replay(events); err != nil {
				return err
			}
			state := editor.State()
			box := editor.Confirm()

			out := editOutput{
				Source: source,
				Events: len(events),
				State:  state.String(),
				Start:  start,
				Box:    box,
			}
			if output, _ := cmd.Flags().GetString("output"); output != "" {
				corrected, err := writeCorrection(cmd, cfg, input, img, box)
				if err != nil {
					return err
				}
				corrected.Source = source
				out.Correction = &corrected
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	addBoxFlags(cmd)
	addCorrectionFlags(cmd)
	cmd.Flags().String("events", "", "YAML file of gesture events to replay")
	cmd.Flags().Float64("tolerance", 0, "handle hit radius in display pixels (default from config)")
	return cmd
}
