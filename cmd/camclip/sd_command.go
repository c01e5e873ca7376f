package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"camclip/internal/camera"
)

func newSDCommand(ctx *commandContext) *cobra.Command {
	sdCmd := &cobra.Command{
		Use:   "sd",
		Short: "Control the camera's on-board SD recording",
	}

	sdCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start recording to the camera's SD card",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := buildCamera(cfg).StartSDRecording(cmd.Context()); err != nil {
				return sdControlError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SD recording started")
			return nil
		},
	})

	sdCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop recording to the camera's SD card",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := buildCamera(cfg).StopSDRecording(cmd.Context()); err != nil {
				return sdControlError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SD recording stopped")
			return nil
		},
	})

	sdCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the camera is recording to its SD card",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			recording, err := buildCamera(cfg).SDRecordingStatus(cmd.Context())
			if err != nil {
				return sdControlError(err)
			}
			if recording {
				fmt.Fprintln(cmd.OutOrStdout(), "SD recording is active")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "SD recording is inactive")
			}
			return nil
		},
	})

	return sdCmd
}

func sdControlError(err error) error {
	if errors.Is(err, camera.ErrSDControlUnsupported) {
		return fmt.Errorf("this camera firmware does not expose an SD record control endpoint")
	}
	return err
}
