package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"camclip/internal/config"
	"camclip/internal/daemon"
	"camclip/internal/logging"
	"camclip/internal/recorder"
	"camclip/internal/store"
	"camclip/internal/testsupport"
)

func runCLI(t *testing.T, args []string, configPath, addr string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	if addr != "" {
		flags = append(flags, "--addr", addr)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[camera]
name = %q
host = %q

[paths]
recordings_dir = %q
fonts_dir = %q
log_dir = %q
api_bind = %q
api_token = %q
`,
		cfg.Camera.Name,
		cfg.Camera.Host,
		cfg.Paths.RecordingsDir,
		cfg.Paths.FontsDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Paths.APIToken,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func newTestConfigFile(t *testing.T) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, cfg)
	return cfg, path
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got %q", needle, haystack)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	_, configPath := newTestConfigFile(t)

	out, _, err := runCLI(t, []string{"history"}, configPath, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No recordings yet")
}

func TestHistoryCommandListsRecordings(t *testing.T) {
	cfg, configPath := newTestConfigFile(t)

	st := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, st, "job-1", cfg.Camera.Name, "stream")
	rec := store.Recording{
		FileName:        "test_cam_20250314_092653_30s.mp4",
		FilePath:        filepath.Join(cfg.RecordingsDir(), "test_cam_20250314_092653_30s.mp4"),
		SizeBytes:       2 << 20,
		DurationSeconds: 30,
		Success:         true,
	}
	if err := st.SaveResult(context.Background(), "job-1", rec); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, configPath, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "test_cam_20250314_092653_30s.mp4")
	requireContains(t, out, "stream")
}

func TestRecordCommandRejectsUnknownMethod(t *testing.T) {
	_, configPath := newTestConfigFile(t)

	_, _, err := runCLI(t, []string{"record", "--method", "carrier-pigeon"}, configPath, "")
	if err == nil || !strings.Contains(err.Error(), "method must be") {
		t.Fatalf("expected method error, got %v", err)
	}
}

func TestFontsCommandListsAndSelects(t *testing.T) {
	cfg, configPath := newTestConfigFile(t)

	if err := os.MkdirAll(cfg.Paths.FontsDir, 0o755); err != nil {
		t.Fatalf("create fonts dir: %v", err)
	}
	fontPath := filepath.Join(cfg.Paths.FontsDir, "DejaVuSans.ttf")
	if err := os.WriteFile(fontPath, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}

	out, _, err := runCLI(t, []string{"fonts"}, configPath, "")
	if err != nil {
		t.Fatalf("fonts: %v", err)
	}
	requireContains(t, out, "DejaVuSans.ttf")
	requireContains(t, out, "selected")
}

func TestStatusCommandAgainstDaemon(t *testing.T) {
	cfg, configPath := newTestConfigFile(t)
	cfg.Paths.APIToken = "cli-test-token"
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	orchestrator := recorder.NewOrchestrator(cfg.Camera.Name, cfg.RecordingsDir(), nil, nil, logging.NewNop())
	d, err := daemon.New(daemon.Options{
		Config:       cfg,
		Logger:       logging.NewNop(),
		Store:        st,
		Orchestrator: orchestrator,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		d.Close()
	})

	out, _, err := runCLI(t, []string{"status"}, configPath, d.APIAddr())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, cfg.Camera.Name)
	requireContains(t, out, "idle")
}

func TestStopCommandWithoutActiveJob(t *testing.T) {
	cfg, configPath := newTestConfigFile(t)
	cfg.Paths.APIToken = "cli-test-token"
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	orchestrator := recorder.NewOrchestrator(cfg.Camera.Name, cfg.RecordingsDir(), nil, nil, logging.NewNop())
	d, err := daemon.New(daemon.Options{
		Config:       cfg,
		Logger:       logging.NewNop(),
		Store:        st,
		Orchestrator: orchestrator,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		d.Close()
	})

	out, _, err := runCLI(t, []string{"stop"}, configPath, d.APIAddr())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "No recording in progress")
}

func TestTestDeliveryCommandListsMechanisms(t *testing.T) {
	_, configPath := newTestConfigFile(t)
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content = append(content, []byte("\n[telegram]\nbot_token = \"tok\"\nchat_id = \"42\"\n")...)
	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	out, _, err := runCLI(t, []string{"test-delivery", "--skip-send"}, configPath, "")
	if err != nil {
		t.Fatalf("test-delivery: %v", err)
	}
	requireContains(t, out, "Delivery mechanisms")
	requireContains(t, out, "telegram_api")
	requireContains(t, out, "telegram_message")
}

func TestTestDeliveryCommandWithoutBotToken(t *testing.T) {
	_, configPath := newTestConfigFile(t)

	out, _, err := runCLI(t, []string{"test-delivery", "--skip-send"}, configPath, "")
	if err == nil {
		t.Fatal("expected an error without a bot token")
	}
	requireContains(t, out, "bot_token")
}
