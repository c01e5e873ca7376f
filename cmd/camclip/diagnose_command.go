package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"camclip/internal/diagnose"
	"camclip/internal/logging"
)

func newDiagnoseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Probe the camera's RTSP paths",
		Long: `Diagnose tries every known RTSP stream path against the camera and
reports which ones answer. Use the recommended path as
camera.stream_path when the default probing order fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Probing %d RTSP paths on %s...\n", len(diagnose.Paths()), cfg.Camera.Host)

			results, err := diagnose.RTSP(cmd.Context(), buildCamera(cfg), buildFFmpeg(cfg), logger)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(results))
			for _, result := range results {
				status := "no answer"
				if result.Success {
					status = "OK"
				}
				rows = append(rows, []string{result.Path, status})
			}
			table := renderTable([]string{"Path", "Result"}, rows)
			fmt.Fprintln(cmd.OutOrStdout(), table)

			if recommended := diagnose.Recommended(results); recommended != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Recommended stream path: %s\n", recommended)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No working stream path found")
			}
			return nil
		},
	}
}
