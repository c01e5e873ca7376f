package api

import "time"

// JobStatus mirrors the orchestrator's view of the active job.
type JobStatus struct {
	Recording        bool   `json:"recording"`
	JobID            string `json:"job_id,omitempty"`
	Method           string `json:"method,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

// LedgerStats aggregates the recording ledger.
type LedgerStats struct {
	Total      int   `json:"total"`
	Succeeded  int   `json:"succeeded"`
	Delivered  int   `json:"delivered"`
	TotalBytes int64 `json:"total_bytes"`
}

// DaemonStatus is the GET /api/status payload.
type DaemonStatus struct {
	Running      bool        `json:"running"`
	PID          int         `json:"pid"`
	Camera       string      `json:"camera"`
	LedgerDBPath string      `json:"ledger_db_path"`
	LockFilePath string      `json:"lock_file_path"`
	Job          JobStatus   `json:"job"`
	Stats        LedgerStats `json:"stats"`
}

// RecordRequest is the POST /api/record payload. Caption and Target
// override the delivery headline and destination chat for this job.
type RecordRequest struct {
	Method          string `json:"method"`
	DurationSeconds int    `json:"duration_seconds"`
	Deliver         bool   `json:"deliver"`
	Caption         string `json:"caption,omitempty"`
	Target          string `json:"target,omitempty"`
}

// RecordResponse acknowledges a started job.
type RecordResponse struct {
	JobID string `json:"job_id"`
}

// StopResponse is the POST /api/record/stop payload.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// DeliverRequest asks the daemon to push an existing artifact. Caption and
// Target override the delivery headline and destination chat.
type DeliverRequest struct {
	Path    string `json:"path"`
	Caption string `json:"caption,omitempty"`
	Target  string `json:"target,omitempty"`
}

// DeliveryAttempt is one entry of a delivery run.
type DeliveryAttempt struct {
	Mechanism string `json:"mechanism"`
	Index     int    `json:"index"`
	Success   bool   `json:"success"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// DeliverResponse summarizes a delivery run.
type DeliverResponse struct {
	Delivered bool              `json:"delivered"`
	Mechanism string            `json:"mechanism,omitempty"`
	Attempts  []DeliveryAttempt `json:"attempts"`
	Error     string            `json:"error,omitempty"`
}

// PathProbe is one RTSP catalog probe result.
type PathProbe struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DiagnoseResponse is the GET /api/diagnose/paths payload.
type DiagnoseResponse struct {
	Results     []PathProbe `json:"results"`
	Recommended string      `json:"recommended,omitempty"`
}

// HistoryEntry is one ledger row in GET /api/history.
type HistoryEntry struct {
	JobID           string    `json:"job_id"`
	Camera          string    `json:"camera"`
	Method          string    `json:"method"`
	FileName        string    `json:"file_name,omitempty"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds int       `json:"duration_seconds"`
	Frames          int       `json:"frames,omitempty"`
	Success         bool      `json:"success"`
	Delivered       bool      `json:"delivered"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HistoryResponse is the GET /api/history payload.
type HistoryResponse struct {
	Recordings []HistoryEntry `json:"recordings"`
}

// ErrorResponse carries an API failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
