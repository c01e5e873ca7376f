package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("stream probe finished", String(FieldComponent, "diagnose"), Int("paths", 22))

	line := buf.String()
	if !strings.Contains(line, "INFO diagnose: stream probe finished") {
		t.Fatalf("component not promoted into prefix: %q", line)
	}
	if !strings.Contains(line, "paths=22") {
		t.Fatalf("attribute missing: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("capture failed", String("endpoint", "/cgi-bin/snapshot.cgi"), String("detail", "body too small"))

	if !strings.Contains(buf.String(), `detail="body too small"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	ctx := WithJobID(WithCamera(context.Background(), "front_door"), "job-1")
	WithContext(ctx, logger).Info("recording started")

	line := buf.String()
	if !strings.Contains(line, "camera=front_door") || !strings.Contains(line, "job_id=job-1") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	for _, input := range []string{"", "verbose", "INFO"} {
		if got := parseLevel(input); got != slog.LevelInfo {
			t.Fatalf("parseLevel(%q) = %v, want info", input, got)
		}
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("parseLevel(debug) = %v", got)
	}
}
