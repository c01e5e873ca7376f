package main

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"camclip/internal/camera"
	"camclip/internal/config"
	"camclip/internal/delivery"
	"camclip/internal/logging"
	"camclip/internal/notifications"
	"camclip/internal/osd"
	"camclip/internal/recorder"
	"camclip/internal/services/ffmpeg"
	"camclip/internal/store"
)

func buildCamera(cfg *config.Config) *camera.Client {
	return camera.New(camera.Config{
		Name:              cfg.Camera.Name,
		Host:              cfg.Camera.Host,
		Port:              cfg.Camera.Port,
		RTSPPort:          cfg.Camera.RTSPPort,
		Username:          cfg.Camera.Username,
		Password:          cfg.Camera.Password,
		SnapshotEndpoints: cfg.Camera.SnapshotEndpoints,
	})
}

func buildFFmpeg(cfg *config.Config) *ffmpeg.CLI {
	return ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
}

// primaryStreamPath maps the configured profile to the OpenIPC stream slots
// unless an explicit path overrides it.
func primaryStreamPath(cfg *config.Config) string {
	if path := strings.TrimSpace(cfg.Camera.StreamPath); path != "" {
		return path
	}
	if cfg.Camera.StreamProfile == "sub" {
		return "/stream=1"
	}
	return "/stream=0"
}

func buildOverlay(cfg *config.Config, logger *slog.Logger) recorder.OverlayFunc {
	if !cfg.OSD.Enabled {
		return nil
	}
	fontPath, err := osd.ResolveFont(cfg.Paths.FontsDir, cfg.OSD.Font)
	if err != nil {
		logger.Warn("overlay disabled, no usable font",
			logging.String("fonts_dir", cfg.Paths.FontsDir),
			logging.Error(err))
		return nil
	}

	overlay := osd.Overlay{
		FontPath: fontPath,
		FontSize: cfg.OSD.FontSize,
		Position: cfg.OSD.Position,
		Color:    osd.ColorByName(cfg.OSD.Color),
	}
	cameraName := cfg.Camera.Name
	template := cfg.OSD.Template
	return func(frame []byte, at time.Time, tel camera.Telemetry) ([]byte, error) {
		lines := osd.ExpandTemplate(template, osd.Context{
			CameraName: cameraName,
			Timestamp:  at,
			Telemetry:  tel,
		})
		return osd.Render(frame, lines, overlay)
	}
}

func deliveryOptions(cfg *config.Config) delivery.Options {
	return delivery.Options{
		MaxRetries:   cfg.Telegram.MaxRetries,
		SizeLimitMB:  cfg.Telegram.SizeLimitMB,
		TimeoutScale: cfg.Telegram.TimeoutScale,
		MinTimeout:   time.Duration(cfg.Telegram.MinTimeoutSeconds) * time.Second,
		MaxTimeout:   time.Duration(cfg.Telegram.MaxTimeoutSeconds) * time.Second,
		RetryBackoff: time.Duration(cfg.Telegram.RetryBackoffSecond) * time.Second,
	}
}

// buildDeliverer assembles the Telegram engine with its fallback chain, or
// nil when no bot token is configured.
func buildDeliverer(cfg *config.Config, logger *slog.Logger) *delivery.Engine {
	if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
		return nil
	}
	sender := delivery.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	var hooks []delivery.Hook
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		client := &http.Client{Timeout: time.Duration(cfg.Notifications.RequestTimeout) * time.Second}
		hooks = append(hooks, delivery.NtfyUploadHook(topic, client))
	}
	hooks = append(hooks, delivery.TelegramMessageHook(sender))

	return delivery.NewEngine(sender, deliveryOptions(cfg), logger, hooks...)
}

// buildOrchestrator wires the full capture pipeline for one camera. The
// ledger is optional; pass nil to skip persistence.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger, ledger *store.Store) *recorder.Orchestrator {
	cam := buildCamera(cfg)
	encoder := buildFFmpeg(cfg)

	assembler := recorder.NewAssembler(
		cam,
		encoder,
		time.Duration(cfg.Recording.SnapshotInterval)*time.Second,
		logger,
		recorder.WithOverlay(buildOverlay(cfg, logger)),
		recorder.WithFrameRate(cfg.Recording.FrameRate),
	)
	streamRec := recorder.NewStreamRecorder(
		cam,
		encoder,
		logger,
		recorder.WithPrimaryPath(primaryStreamPath(cfg)),
		recorder.WithAudio(cfg.Recording.StreamAudio),
	)

	opts := []recorder.OrchestratorOption{
		recorder.WithNotifier(notifications.NewService(cfg)),
		recorder.WithDisplayName(cam.DisplayName()),
	}
	if ledger != nil {
		opts = append(opts, recorder.WithLedger(ledger))
	}
	if deliverer := buildDeliverer(cfg, logger); deliverer != nil {
		opts = append(opts, recorder.WithDeliverer(deliverer))
	}

	return recorder.NewOrchestrator(cfg.Camera.Name, cfg.RecordingsDir(), assembler, streamRec, logger, opts...)
}
