package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Camera contains connection settings for the camera's HTTP and RTSP surfaces.
type Camera struct {
	Name              string   `toml:"name"`
	Host              string   `toml:"host"`
	Port              int      `toml:"port"`
	RTSPPort          int      `toml:"rtsp_port"`
	Username          string   `toml:"username"`
	Password          string   `toml:"password"`
	SnapshotEndpoints []string `toml:"snapshot_endpoints"`
	StreamProfile     string   `toml:"stream_profile"`
	StreamPath        string   `toml:"stream_path"`
}

// Paths contains directory and bind address configuration.
type Paths struct {
	RecordingsDir string `toml:"recordings_dir"`
	FontsDir      string `toml:"fonts_dir"`
	LogDir        string `toml:"log_dir"`
	APIBind       string `toml:"api_bind"`
	APIToken      string `toml:"api_token"`
}

// Recording contains capture loop and transcoder settings.
type Recording struct {
	DefaultDurationSeconds int    `toml:"default_duration_seconds"`
	SnapshotInterval       int    `toml:"snapshot_interval"`
	FrameRate              int    `toml:"frame_rate"`
	StreamAudio            bool   `toml:"stream_audio"`
	FFmpegBinary           string `toml:"ffmpeg_binary"`
}

// OSD contains defaults for the on-screen text overlay.
type OSD struct {
	Enabled  bool   `toml:"enabled"`
	Template string `toml:"template"`
	Position string `toml:"position"`
	FontSize int    `toml:"font_size"`
	Font     string `toml:"font"`
	Color    string `toml:"color"`
}

// Telegram contains configuration for the chat delivery destination.
type Telegram struct {
	BotToken           string `toml:"bot_token"`
	ChatID             string `toml:"chat_id"`
	MaxRetries         int    `toml:"max_retries"`
	SizeLimitMB        int    `toml:"size_limit_mb"`
	TimeoutScale       int    `toml:"timeout_scale"`
	MinTimeoutSeconds  int    `toml:"min_timeout_seconds"`
	MaxTimeoutSeconds  int    `toml:"max_timeout_seconds"`
	RetryBackoffSecond int    `toml:"retry_backoff_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Recording      bool   `toml:"recording"`
	Delivery       bool   `toml:"delivery"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for camclip.
//
// Configuration sections by subsystem:
//   - Camera: camera endpoints, credentials, and stream selection
//   - Paths: recordings tree, font resources, logs, API bind address
//   - Recording: snapshot loop timing and ffmpeg settings
//   - OSD: overlay template and placement defaults
//   - Telegram: delivery destination, size ceiling, and retry policy
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Camera        Camera        `toml:"camera"`
	Paths         Paths         `toml:"paths"`
	Recording     Recording     `toml:"recording"`
	OSD           OSD           `toml:"osd"`
	Telegram      Telegram      `toml:"telegram"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/camclip/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("camclip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// The fonts directory is created on a best-effort basis because recordings
// proceed without an overlay when fonts are unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.RecordingsDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.FontsDir) != "" {
		_ = os.MkdirAll(c.Paths.FontsDir, 0o755)
	}
	return nil
}

// RecordingsDir returns the per-camera recordings directory.
func (c *Config) RecordingsDir() string {
	return filepath.Join(c.Paths.RecordingsDir, c.Camera.Name)
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Recording.FFmpegBinary) != "" {
		return c.Recording.FFmpegBinary
	}
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
