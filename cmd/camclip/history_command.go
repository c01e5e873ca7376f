package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"camclip/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent recordings from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ledger, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer ledger.Close()

			recordings, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recordings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recordings yet")
				return nil
			}

			rows := make([][]string, 0, len(recordings))
			for _, rec := range recordings {
				size := ""
				if rec.SizeBytes > 0 {
					size = humanize.Bytes(uint64(rec.SizeBytes))
				}
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
					rec.Method,
					rec.FileName,
					size,
					yesNo(rec.Success),
					yesNo(rec.Delivered),
				})
			}

			table := renderTable(
				[]string{"When", "Method", "File", "Size", "OK", "Delivered"},
				rows, 3,
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
