package config

const (
	defaultRecordingsDir     = "~/.local/share/camclip/recordings"
	defaultFontsDir          = "~/.local/share/camclip/fonts"
	defaultLogDir            = "~/.local/share/camclip/logs"
	defaultAPIBind           = "127.0.0.1:7474"
	defaultCameraPort        = 80
	defaultRTSPPort          = 554
	defaultUsername          = "root"
	defaultStreamProfile     = "main"
	defaultDurationSeconds   = 30
	defaultSnapshotInterval  = 5
	defaultFrameRate         = 1
	defaultOSDPosition       = "top_left"
	defaultOSDFontSize       = 24
	defaultOSDColor          = "white"
	defaultTelegramRetries   = 3
	defaultSizeLimitMB       = 50
	defaultTimeoutScale      = 30
	defaultMinTimeoutSeconds = 120
	defaultMaxTimeoutSeconds = 600
	defaultRetryBackoff      = 10
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

const defaultOSDTemplate = `{camera_name}
{timestamp}
Temp: {cpu_temp}C
Uptime: {uptime}`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Camera: Camera{
			Name:          "camera",
			Port:          defaultCameraPort,
			RTSPPort:      defaultRTSPPort,
			Username:      defaultUsername,
			StreamProfile: defaultStreamProfile,
		},
		Paths: Paths{
			RecordingsDir: defaultRecordingsDir,
			FontsDir:      defaultFontsDir,
			LogDir:        defaultLogDir,
			APIBind:       defaultAPIBind,
		},
		Recording: Recording{
			DefaultDurationSeconds: defaultDurationSeconds,
			SnapshotInterval:       defaultSnapshotInterval,
			FrameRate:              defaultFrameRate,
		},
		OSD: OSD{
			Template: defaultOSDTemplate,
			Position: defaultOSDPosition,
			FontSize: defaultOSDFontSize,
			Color:    defaultOSDColor,
		},
		Telegram: Telegram{
			MaxRetries:         defaultTelegramRetries,
			SizeLimitMB:        defaultSizeLimitMB,
			TimeoutScale:       defaultTimeoutScale,
			MinTimeoutSeconds:  defaultMinTimeoutSeconds,
			MaxTimeoutSeconds:  defaultMaxTimeoutSeconds,
			RetryBackoffSecond: defaultRetryBackoff,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Recording:      true,
			Delivery:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
