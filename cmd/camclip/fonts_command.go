package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"camclip/internal/osd"
)

func newFontsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List fonts available for the overlay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			fonts, err := osd.ListFonts(cfg.Paths.FontsDir)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("list fonts in %s: %w", cfg.Paths.FontsDir, err)
			}
			if len(fonts) == 0 {
				fmt.Fprintf(stdout, "No fonts found in %s\n", cfg.Paths.FontsDir)
				fmt.Fprintln(stdout, "Copy a .ttf file there to enable the overlay")
				return nil
			}

			selected, err := osd.ResolveFont(cfg.Paths.FontsDir, cfg.OSD.Font)
			if err != nil && !errors.Is(err, osd.ErrNoFont) {
				return err
			}

			rows := make([][]string, 0, len(fonts))
			for _, font := range fonts {
				marker := ""
				if font == filepath.Base(selected) {
					marker = "selected"
				}
				rows = append(rows, []string{font, marker})
			}
			table := renderTable([]string{"Font", ""}, rows)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}
}
