package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"camclip/internal/logging"
	"camclip/internal/recorder"
	"camclip/internal/store"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var method string
	var duration int
	var noDeliver bool
	var caption string
	var target string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a clip from the camera and deliver it",
		Long: `Record captures a clip in the foreground, without a daemon. The stream
method copies the camera's RTSP feed; the snapshots method polls still
frames and assembles them into a timelapse.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			captureMethod, err := parseMethod(method)
			if err != nil {
				return err
			}
			if duration <= 0 {
				duration = cfg.Recording.DefaultDurationSeconds
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ledger, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer ledger.Close()

			orchestrator := buildOrchestrator(cfg, logger, ledger)

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			outcome, err := orchestrator.Run(runCtx, recorder.StartRequest{
				Method:   captureMethod,
				Duration: time.Duration(duration) * time.Second,
				Deliver:  !noDeliver,
				Caption:  caption,
				Target:   target,
			})
			if err != nil {
				return err
			}

			printOutcome(cmd, outcome)
			if !outcome.Result.Success {
				return fmt.Errorf("recording failed: %s", outcome.Result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "stream", "Capture method: stream or snapshots")
	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "Recording duration in seconds (default from config)")
	cmd.Flags().BoolVar(&noDeliver, "no-deliver", false, "Keep the clip on disk without delivering it")
	cmd.Flags().StringVar(&caption, "caption", "", "Caption headline for the delivered clip")
	cmd.Flags().StringVar(&target, "target", "", "Destination chat id (default from config)")
	return cmd
}

func parseMethod(value string) (recorder.Method, error) {
	switch recorder.Method(value) {
	case recorder.MethodStream:
		return recorder.MethodStream, nil
	case recorder.MethodSnapshots:
		return recorder.MethodSnapshots, nil
	default:
		return "", fmt.Errorf("method must be %q or %q, got %q", recorder.MethodStream, recorder.MethodSnapshots, value)
	}
}

func printOutcome(cmd *cobra.Command, outcome recorder.JobOutcome) {
	stdout := cmd.OutOrStdout()
	result := outcome.Result

	rows := [][]string{
		{"Job", outcome.JobID},
		{"Method", string(result.Method)},
		{"Success", yesNo(result.Success)},
	}
	if result.FilePath != "" {
		rows = append(rows,
			[]string{"File", result.FilePath},
			[]string{"Size", humanize.Bytes(uint64(result.SizeBytes))},
			[]string{"Duration", fmt.Sprintf("%ds", result.DurationSeconds)},
		)
	}
	if result.Method == recorder.MethodSnapshots {
		rows = append(rows, []string{"Frames", fmt.Sprintf("%d", result.Frames)})
	}
	if result.Method == recorder.MethodStream && result.Transport != "" {
		rows = append(rows, []string{"Transport", string(result.Transport)})
	}
	if result.Error != "" {
		rows = append(rows, []string{"Error", result.Error})
	}
	rows = append(rows, []string{"Delivered", yesNo(outcome.Delivered)})
	if outcome.Mechanism != "" {
		rows = append(rows, []string{"Mechanism", outcome.Mechanism})
	}

	fmt.Fprintln(stdout, renderFieldTable(rows))
}
