package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"camclip/internal/camera"
	"camclip/internal/config"
	"camclip/internal/delivery"
	"camclip/internal/fileutil"
	"camclip/internal/logging"
)

func newDeliverCommand(ctx *commandContext) *cobra.Command {
	var caption string
	var target string

	cmd := &cobra.Command{
		Use:   "deliver <file>",
		Short: "Deliver an existing recording file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
				return errors.New("telegram.bot_token is not configured")
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			size := fileutil.FileSize(path)
			if size <= 0 {
				return fmt.Errorf("file not found or empty: %s", path)
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			engine := buildDeliverer(cfg, logger)
			outcome, err := engine.Deliver(cmd.Context(), delivery.Artifact{
				Path:       path,
				FileName:   filepath.Base(path),
				SizeBytes:  size,
				Camera:     camera.DisplayName(cfg.Camera.Name),
				CapturedAt: time.Now(),
				Caption:    caption,
				Target:     target,
			})

			printAttempts(cmd, outcome)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered via %s\n", outcome.Mechanism)
			return nil
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "Caption headline for the delivered file")
	cmd.Flags().StringVar(&target, "target", "", "Destination chat id (default from config)")
	return cmd
}

func printAttempts(cmd *cobra.Command, outcome delivery.Outcome) {
	if len(outcome.Attempts) == 0 {
		return
	}
	rows := make([][]string, 0, len(outcome.Attempts))
	for _, att := range outcome.Attempts {
		rows = append(rows, []string{
			fmt.Sprintf("%d", att.Index),
			att.Mechanism,
			yesNo(att.Success),
			att.Elapsed.Round(time.Millisecond).String(),
			att.Error,
		})
	}
	table := renderTable(
		[]string{"#", "Mechanism", "OK", "Elapsed", "Error"},
		rows, 0, 3,
	)
	fmt.Fprintln(cmd.OutOrStdout(), table)
}
