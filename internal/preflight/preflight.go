package preflight

import (
	"context"

	"camclip/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckBinary("FFmpeg", cfg.FFmpegBinary(), "Required for encoding and stream capture"))
	results = append(results, CheckDirectoryAccess("Recordings directory", cfg.RecordingsDir()))
	results = append(results, CheckCamera(ctx, cfg.Camera.Host, cfg.Camera.Port))

	if cfg.OSD.Enabled {
		results = append(results, CheckFonts(cfg.Paths.FontsDir))
	}
	if cfg.Telegram.BotToken != "" {
		results = append(results, CheckTelegram(ctx, "", cfg.Telegram.BotToken))
	}

	return results
}

// Passed reports whether every non-optional check succeeded.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return false
		}
	}
	return true
}
