package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCamera()
	c.normalizeRecording()
	c.normalizeTelegram()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		c.Paths.RecordingsDir = defaultRecordingsDir
	}
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FontsDir) == "" {
		c.Paths.FontsDir = defaultFontsDir
	}
	if c.Paths.FontsDir, err = expandPath(c.Paths.FontsDir); err != nil {
		return fmt.Errorf("paths.fonts_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeCamera() {
	// Camera names become path segments and filename prefixes.
	name := strings.ToLower(strings.TrimSpace(c.Camera.Name))
	c.Camera.Name = strings.ReplaceAll(name, " ", "_")
	c.Camera.Host = strings.TrimSpace(c.Camera.Host)
	c.Camera.Username = strings.TrimSpace(c.Camera.Username)
	if c.Camera.Port <= 0 {
		c.Camera.Port = defaultCameraPort
	}
	if c.Camera.RTSPPort <= 0 {
		c.Camera.RTSPPort = defaultRTSPPort
	}
	if strings.TrimSpace(c.Camera.StreamProfile) == "" {
		c.Camera.StreamProfile = defaultStreamProfile
	}
	cleaned := make([]string, 0, len(c.Camera.SnapshotEndpoints))
	for _, endpoint := range c.Camera.SnapshotEndpoints {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint == "" {
			continue
		}
		if !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}
		cleaned = append(cleaned, endpoint)
	}
	c.Camera.SnapshotEndpoints = cleaned
}

func (c *Config) normalizeRecording() {
	if c.Recording.DefaultDurationSeconds <= 0 {
		c.Recording.DefaultDurationSeconds = defaultDurationSeconds
	}
	if c.Recording.SnapshotInterval <= 0 {
		c.Recording.SnapshotInterval = defaultSnapshotInterval
	}
	if c.Recording.FrameRate <= 0 {
		c.Recording.FrameRate = defaultFrameRate
	}
	c.Recording.FFmpegBinary = strings.TrimSpace(c.Recording.FFmpegBinary)
}

func (c *Config) normalizeTelegram() {
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	c.Telegram.ChatID = strings.TrimSpace(c.Telegram.ChatID)
	if c.Telegram.MaxRetries <= 0 {
		c.Telegram.MaxRetries = defaultTelegramRetries
	}
	if c.Telegram.SizeLimitMB <= 0 {
		c.Telegram.SizeLimitMB = defaultSizeLimitMB
	}
	if c.Telegram.TimeoutScale <= 0 {
		c.Telegram.TimeoutScale = defaultTimeoutScale
	}
	if c.Telegram.MinTimeoutSeconds <= 0 {
		c.Telegram.MinTimeoutSeconds = defaultMinTimeoutSeconds
	}
	if c.Telegram.MaxTimeoutSeconds <= 0 {
		c.Telegram.MaxTimeoutSeconds = defaultMaxTimeoutSeconds
	}
	if c.Telegram.RetryBackoffSecond <= 0 {
		c.Telegram.RetryBackoffSecond = defaultRetryBackoff
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
