package ipc

import (
	"time"

	"github.com/1broseidon/flashnote/internal/overlay"
)

// Endpoint paths served by the daemon.
const (
	PathNotify = "/notify"
	PathHealth = "/healthz"
)

// NotifyRequest is the JSON body accepted by POST /notify.
type NotifyRequest struct {
	Message string `json:"message"`
}

// NotifyResponse is returned once a notification has been dismissed and
// torn down.
type NotifyResponse struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	Outputs   int    `json:"outputs"`
	Windows   int    `json:"windows"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Busy          bool   `json:"busy"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	ID    string `json:"id,omitempty"`
}

func newNotifyResponse(res overlay.Result) NotifyResponse {
	return NotifyResponse{
		ID:        res.ID,
		Reason:    res.Reason.String(),
		Outputs:   res.Outputs,
		Windows:   res.Windows,
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
}

// Elapsed returns ElapsedMS as a duration.
func (r NotifyResponse) Elapsed() time.Duration {
	return time.Duration(r.ElapsedMS) * time.Millisecond
}
