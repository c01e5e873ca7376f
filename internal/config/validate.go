package config

import (
	"errors"
	"fmt"
)

var validPositions = map[string]struct{}{
	"top_left":     {},
	"top_right":    {},
	"bottom_left":  {},
	"bottom_right": {},
	"center":       {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	if err := c.validateOSD(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCamera() error {
	if c.Camera.Host == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/camclip/config.toml"
		}
		return fmt.Errorf("camera.host is required. Edit %s (create with 'camclip config init')", defaultPath)
	}
	if c.Camera.Name == "" {
		return errors.New("camera.name must be set")
	}
	switch c.Camera.StreamProfile {
	case "main", "sub":
	default:
		return fmt.Errorf("camera.stream_profile must be %q or %q, got %q", "main", "sub", c.Camera.StreamProfile)
	}
	return nil
}

func (c *Config) validateRecording() error {
	if c.Recording.SnapshotInterval <= 0 {
		return errors.New("recording.snapshot_interval must be positive")
	}
	if c.Recording.DefaultDurationSeconds <= 0 {
		return errors.New("recording.default_duration_seconds must be positive")
	}
	return nil
}

func (c *Config) validateOSD() error {
	if !c.OSD.Enabled {
		return nil
	}
	if _, ok := validPositions[c.OSD.Position]; !ok {
		return fmt.Errorf("osd.position %q is not a recognized anchor", c.OSD.Position)
	}
	if c.OSD.FontSize <= 0 {
		return errors.New("osd.font_size must be positive")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id must be set when telegram.bot_token is configured")
	}
	if c.Telegram.MaxTimeoutSeconds < c.Telegram.MinTimeoutSeconds {
		return errors.New("telegram.max_timeout_seconds must be >= telegram.min_timeout_seconds")
	}
	return nil
}
