package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"camclip/internal/api"
	"camclip/internal/camera"
	"camclip/internal/config"
	"camclip/internal/delivery"
	"camclip/internal/diagnose"
	"camclip/internal/fileutil"
	"camclip/internal/logging"
	"camclip/internal/recorder"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/record", authMiddleware(token, srv.handleRecord))
	mux.HandleFunc("/api/record/stop", authMiddleware(token, srv.handleStop))
	mux.HandleFunc("/api/deliver", authMiddleware(token, srv.handleDeliver))
	mux.HandleFunc("/api/diagnose/paths", authMiddleware(token, srv.handleDiagnosePaths))
	mux.HandleFunc("/api/history", authMiddleware(token, srv.handleHistory))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Camera:       status.Camera,
		LedgerDBPath: status.LedgerDBPath,
		LockFilePath: status.LockFilePath,
		Job: api.JobStatus{
			Recording:        status.Job.Recording,
			JobID:            status.Job.JobID,
			Method:           string(status.Job.Method),
			RemainingSeconds: status.Job.RemainingSeconds,
		},
		Stats: api.LedgerStats{
			Total:      status.Stats.Total,
			Succeeded:  status.Stats.Succeeded,
			Delivered:  status.Stats.Delivered,
			TotalBytes: status.Stats.TotalBytes,
		},
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	method := recorder.Method(strings.TrimSpace(req.Method))
	if method == "" {
		method = recorder.MethodStream
	}
	duration := time.Duration(req.DurationSeconds) * time.Second
	if duration <= 0 {
		duration = time.Duration(s.daemon.cfg.Recording.DefaultDurationSeconds) * time.Second
	}

	jobID, err := s.daemon.orchestrator.Start(recorder.StartRequest{
		Method:   method,
		Duration: duration,
		Deliver:  req.Deliver,
		Caption:  strings.TrimSpace(req.Caption),
		Target:   strings.TrimSpace(req.Target),
	})
	if err != nil {
		if errors.Is(err, recorder.ErrNoCapturer) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.RecordResponse{JobID: jobID})
}

func (s *apiServer) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stopped := s.daemon.orchestrator.Stop()
	s.writeJSON(w, http.StatusOK, api.StopResponse{Stopped: stopped})
}

func (s *apiServer) handleDeliver(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.deliverer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "delivery not configured")
		return
	}
	var req api.DeliverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	size := fileutil.FileSize(path)
	if size == 0 {
		s.writeError(w, http.StatusNotFound, "artifact not found or empty")
		return
	}

	art := delivery.Artifact{
		Path:       path,
		FileName:   filepath.Base(path),
		SizeBytes:  size,
		Camera:     camera.DisplayName(s.daemon.cfg.Camera.Name),
		CapturedAt: time.Now(),
		Caption:    strings.TrimSpace(req.Caption),
		Target:     strings.TrimSpace(req.Target),
	}
	outcome, err := s.daemon.deliverer.Deliver(r.Context(), art)
	resp := api.DeliverResponse{
		Delivered: outcome.Delivered,
		Mechanism: outcome.Mechanism,
		Attempts:  convertAttempts(outcome.Attempts),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleDiagnosePaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	results, err := s.daemon.DiagnosePaths(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	probes := make([]api.PathProbe, len(results))
	for i, result := range results {
		probes[i] = api.PathProbe{
			Path:    result.Path,
			URL:     result.URL,
			Success: result.Success,
			Error:   result.Error,
		}
	}
	s.writeJSON(w, http.StatusOK, api.DiagnoseResponse{
		Results:     probes,
		Recommended: diagnose.Recommended(results),
	})
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recordings, err := s.daemon.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entries := make([]api.HistoryEntry, len(recordings))
	for i, rec := range recordings {
		entries[i] = api.HistoryEntry{
			JobID:           rec.JobID,
			Camera:          rec.Camera,
			Method:          rec.Method,
			FileName:        rec.FileName,
			SizeBytes:       rec.SizeBytes,
			DurationSeconds: rec.DurationSeconds,
			Frames:          rec.Frames,
			Success:         rec.Success,
			Delivered:       rec.Delivered,
			Error:           rec.Error,
			CreatedAt:       rec.CreatedAt,
		}
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Recordings: entries})
}

func convertAttempts(attempts []delivery.Attempt) []api.DeliveryAttempt {
	out := make([]api.DeliveryAttempt, len(attempts))
	for i, att := range attempts {
		out[i] = api.DeliveryAttempt{
			Mechanism: att.Mechanism,
			Index:     att.Index,
			Success:   att.Success,
			ElapsedMS: att.Elapsed.Milliseconds(),
			Error:     att.Error,
		}
	}
	return out
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Warn("encode api response failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
