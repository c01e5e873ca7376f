package osd

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"camclip/internal/camera"
)

// Context carries the values templates can reference.
type Context struct {
	CameraName string
	Timestamp  time.Time
	Telemetry  camera.Telemetry
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// fallbackLines replaces the overlay when a template references an unknown
// placeholder, so a typo in the config is visible on the video itself.
var fallbackLines = []string{"OSD TEST"}

// ExpandTemplate substitutes {placeholder} tokens and returns the overlay
// lines. Blank lines are dropped. An unrecognized placeholder makes the
// whole template invalid and yields the fallback lines.
func ExpandTemplate(template string, octx Context) []string {
	valid := true
	expanded := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		value, ok := placeholderValue(name, octx)
		if !ok {
			valid = false
			return token
		}
		return value
	})
	if !valid {
		return append([]string(nil), fallbackLines...)
	}

	var lines []string
	for _, line := range strings.Split(expanded, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func placeholderValue(name string, octx Context) (string, bool) {
	tel := octx.Telemetry
	switch name {
	case "camera_name":
		return octx.CameraName, true
	case "timestamp":
		return octx.Timestamp.Format("2006-01-02 15:04:05"), true
	case "cpu_temp":
		return fmt.Sprintf("%.1f", tel.CPUTemp), true
	case "uptime":
		return tel.Uptime(), true
	case "fps":
		return fmt.Sprintf("%.0f", tel.FPS), true
	case "bitrate":
		return fmt.Sprintf("%.0f kbps", tel.BitrateKbs), true
	case "resolution":
		return tel.Resolution(), true
	case "wifi_signal":
		return fmt.Sprintf("%d dBm", tel.WifiSignal), true
	case "motion":
		return onOff(tel.Motion), true
	case "recording":
		return onOff(tel.Recording), true
	}
	return "", false
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
