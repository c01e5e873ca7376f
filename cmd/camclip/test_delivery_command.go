package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"camclip/internal/logging"
)

func newTestDeliveryCommand(ctx *commandContext) *cobra.Command {
	var target string
	var skipSend bool

	cmd := &cobra.Command{
		Use:   "test-delivery",
		Short: "Verify the delivery chain with a small test upload",
		Long: `Test-delivery lists the configured delivery mechanisms, then uploads a
small generated file to the destination chat so credentials can be
verified without recording anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			engine := buildDeliverer(cfg, logging.NewNop())
			for _, line := range renderSectionHeader("Delivery mechanisms", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if engine == nil {
				fmt.Fprintln(stdout, renderStatusLine("Telegram", statusError, "telegram.bot_token is not configured", colorize))
				return errors.New("delivery is not configured")
			}
			for _, status := range engine.Diagnose() {
				kind := statusOK
				message := "configured"
				if !status.Configured {
					kind = statusWarn
					message = "not configured"
				}
				fmt.Fprintln(stdout, renderStatusLine(status.Mechanism, kind, message, colorize))
			}
			if skipSend {
				return nil
			}

			fmt.Fprintln(stdout)
			if err := engine.Test(cmd.Context(), target); err != nil {
				fmt.Fprintln(stdout, renderStatusLine("Test upload", statusError, err.Error(), colorize))
				return errors.New("test upload failed")
			}
			fmt.Fprintln(stdout, renderStatusLine("Test upload", statusOK, "delivered", colorize))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Destination chat id (default from config)")
	cmd.Flags().BoolVar(&skipSend, "skip-send", false, "List the mechanism chain without uploading anything")
	return cmd
}
