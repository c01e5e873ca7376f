package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"camclip/internal/logging"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	var output string
	var withOverlay bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a single still frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			cam := buildCamera(cfg)
			frame, err := cam.CaptureStill(cmd.Context())
			if err != nil {
				return fmt.Errorf("capture still: %w", err)
			}

			now := time.Now()
			if withOverlay {
				overlay := buildOverlay(cfg, logging.NewNop())
				if overlay == nil {
					return fmt.Errorf("overlay requested but osd is disabled or no font is available")
				}
				tel := cam.FetchTelemetry(cmd.Context())
				frame, err = overlay(frame, now, tel)
				if err != nil {
					return fmt.Errorf("render overlay: %w", err)
				}
			}

			target := output
			if target == "" {
				target = filepath.Join(cfg.RecordingsDir(),
					fmt.Sprintf("%s_%s.jpg", cfg.Camera.Name, now.Format("20060102_150405")))
			}
			if err := os.WriteFile(target, frame, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot to %s (%d bytes)\n", target, len(frame))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default under the recordings directory)")
	cmd.Flags().BoolVar(&withOverlay, "osd", false, "Render the configured overlay onto the frame")
	return cmd
}
