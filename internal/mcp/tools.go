package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleNotify(ctx context.Context, _ *mcpsdk.CallToolRequest, args NotifyInput) (*mcpsdk.CallToolResult, NotifyOutput, error) {
	if strings.TrimSpace(args.Message) == "" {
		return nil, NotifyOutput{}, fmt.Errorf("message must not be empty")
	}

	s.logger.Debug("notify tool called", "length", len(args.Message))
	resp, err := s.client.Notify(ctx, args.Message)
	if err != nil {
		return nil, NotifyOutput{}, fmt.Errorf("notification failed: %w", err)
	}

	return nil, NotifyOutput{
		ID:        resp.ID,
		Reason:    resp.Reason,
		Windows:   resp.Windows,
		ElapsedMS: resp.ElapsedMS,
	}, nil
}

// handleDaemonStatus never fails; an unreachable daemon is reported in the
// output.
func (s *Server) handleDaemonStatus(ctx context.Context, _ *mcpsdk.CallToolRequest, _ DaemonStatusInput) (*mcpsdk.CallToolResult, DaemonStatusOutput, error) {
	health, err := s.client.Health(ctx)
	if err != nil {
		return nil, DaemonStatusOutput{Running: false, Error: err.Error()}, nil
	}
	return nil, DaemonStatusOutput{
		Running:       health.Status == "ok",
		Busy:          health.Busy,
		UptimeSeconds: health.UptimeSeconds,
	}, nil
}
