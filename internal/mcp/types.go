package mcp

// NotifyInput is the input for the notify tool.
type NotifyInput struct {
	Message string `json:"message" jsonschema:"required,Text to show on every monitor. Newlines start a new line."`
}

// NotifyOutput is the output for the notify tool.
type NotifyOutput struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	Windows   int    `json:"windows"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// DaemonStatusInput is the input for the daemon_status tool.
type DaemonStatusInput struct{}

// DaemonStatusOutput is the output for the daemon_status tool.
type DaemonStatusOutput struct {
	Running       bool   `json:"running"`
	Busy          bool   `json:"busy"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
	Error         string `json:"error,omitempty"`
}
