package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not really mp4"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestSendVideoBuildsMultipartRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottok123/sendVideo") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "42" {
			t.Errorf("chat_id = %q", got)
		}
		if got := r.FormValue("caption"); got != "hello" {
			t.Errorf("caption = %q", got)
		}
		file, header, err := r.FormFile("video")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		file.Close()
		if header.Filename != "clip.mp4" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok123", "42", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err := tg.SendVideo(context.Background(), writeVideo(t), "hello", ""); err != nil {
		t.Fatalf("SendVideo: %v", err)
	}
}

func TestSendVideoTargetOverridesChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "-100555" {
			t.Errorf("chat_id = %q, want the per-call target", got)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err := tg.SendVideo(context.Background(), writeVideo(t), "", "-100555"); err != nil {
		t.Fatalf("SendVideo: %v", err)
	}
}

func TestSendDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendDocument") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("document"); err != nil {
			t.Errorf("document part missing: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err := tg.SendDocument(context.Background(), writeVideo(t), "test file", ""); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
}

func TestSendVideoTooBig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte(`{"ok":false,"description":"Request Entity Too Large: file is too big"}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	err := tg.SendVideo(context.Background(), writeVideo(t), "", "")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestSendVideoAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	err := tg.SendVideo(context.Background(), writeVideo(t), "", "")
	if err == nil || errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want a plain API failure", err)
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("description missing from %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err := tg.SendMessage(context.Background(), "stored locally", ""); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}
