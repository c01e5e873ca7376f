package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"camclip/internal/api"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var method string
	var duration int
	var noDeliver bool
	var caption string
	var target string

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Ask the daemon to start a recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseMethod(method); err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Record(cmd.Context(), api.RecordRequest{
				Method:          method,
				DurationSeconds: duration,
				Deliver:         !noDeliver,
				Caption:         caption,
				Target:          target,
			})
			if err != nil {
				return wrapDaemonError(err, ctx.apiAddr())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recording started (job %s)\n", resp.JobID)
			return nil
		},
	}
	startCmd.Flags().StringVarP(&method, "method", "m", "stream", "Capture method: stream or snapshots")
	startCmd.Flags().IntVarP(&duration, "duration", "d", 0, "Recording duration in seconds (default from daemon config)")
	startCmd.Flags().BoolVar(&noDeliver, "no-deliver", false, "Keep the clip on disk without delivering it")
	startCmd.Flags().StringVar(&caption, "caption", "", "Caption headline for the delivered clip")
	startCmd.Flags().StringVar(&target, "target", "", "Destination chat id (default from daemon config)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon's active recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.StopRecording(cmd.Context())
			if err != nil {
				return wrapDaemonError(err, ctx.apiAddr())
			}
			if resp.Stopped {
				fmt.Fprintln(cmd.OutOrStdout(), "Recording stopped")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No recording in progress")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and recording status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return wrapDaemonError(err, ctx.apiAddr())
			}
			printDaemonStatus(cmd, status)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func printDaemonStatus(cmd *cobra.Command, status *api.DaemonStatus) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Running", statusOK, fmt.Sprintf("pid %d", status.PID), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Camera", statusInfo, status.Camera, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Ledger", statusInfo, status.LedgerDBPath, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Recording", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if status.Job.Recording {
		remaining := time.Duration(status.Job.RemainingSeconds) * time.Second
		fmt.Fprintln(stdout, renderStatusLine("Active job", statusOK,
			fmt.Sprintf("%s (%s, %s remaining)", status.Job.JobID, status.Job.Method, remaining), colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Active job", statusInfo, "idle", colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Ledger", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := [][]string{
		{"Recordings", fmt.Sprintf("%d", status.Stats.Total)},
		{"Succeeded", fmt.Sprintf("%d", status.Stats.Succeeded)},
		{"Delivered", fmt.Sprintf("%d", status.Stats.Delivered)},
		{"Total size", humanize.Bytes(uint64(status.Stats.TotalBytes))},
	}
	fmt.Fprintln(stdout, renderTable([]string{"Metric", "Value"}, rows, 1))
}
