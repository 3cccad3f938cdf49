package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/flashnote/internal/ipc"
)

const (
	ServerName    = "flashnote"
	ServerVersion = "0.1.0"
)

// DaemonClient is the subset of the daemon client the tools use.
type DaemonClient interface {
	Notify(ctx context.Context, message string) (*ipc.NotifyResponse, error)
	Health(ctx context.Context) (*ipc.HealthResponse, error)
}

// Server is the MCP server that lets agents raise on-screen notifications
// through a running flashnote daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
	logger    *slog.Logger
}

// NewServer creates a new MCP server backed by client.
func NewServer(client DaemonClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		client: client,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "notify",
		Description: "Show a full-screen text notification on every monitor of the user's X11 desktop and wait until the user dismisses it with a key press or mouse movement (or it times out). Use it to get the user's attention when a long task finishes or needs input. Returns how it was dismissed.",
	}, s.handleNotify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "daemon_status",
		Description: "Report whether the flashnote daemon is reachable and whether a notification is currently on screen.",
	}, s.handleDaemonStatus)
}
