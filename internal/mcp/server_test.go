package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/flashnote/internal/ipc"
)

type fakeClient struct {
	messages  []string
	notify    *ipc.NotifyResponse
	notifyErr error
	health    *ipc.HealthResponse
	healthErr error
}

func (f *fakeClient) Notify(_ context.Context, message string) (*ipc.NotifyResponse, error) {
	f.messages = append(f.messages, message)
	return f.notify, f.notifyErr
}

func (f *fakeClient) Health(context.Context) (*ipc.HealthResponse, error) {
	return f.health, f.healthErr
}

func TestHandleNotify(t *testing.T) {
	c := &fakeClient{notify: &ipc.NotifyResponse{ID: "01X", Reason: "key_pressed", Windows: 2, ElapsedMS: 640}}
	s := NewServer(c, nil)

	_, out, err := s.handleNotify(context.Background(), nil, NotifyInput{Message: "build done"})
	require.NoError(t, err)
	assert.Equal(t, NotifyOutput{ID: "01X", Reason: "key_pressed", Windows: 2, ElapsedMS: 640}, out)
	assert.Equal(t, []string{"build done"}, c.messages)
}

func TestHandleNotify_RejectsBlankMessage(t *testing.T) {
	c := &fakeClient{}
	s := NewServer(c, nil)

	_, _, err := s.handleNotify(context.Background(), nil, NotifyInput{Message: "  "})
	require.Error(t, err)
	assert.Empty(t, c.messages)
}

func TestHandleNotify_DaemonError(t *testing.T) {
	c := &fakeClient{notifyErr: errors.New("connection refused")}
	s := NewServer(c, nil)

	_, _, err := s.handleNotify(context.Background(), nil, NotifyInput{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHandleDaemonStatus(t *testing.T) {
	s := NewServer(&fakeClient{health: &ipc.HealthResponse{Status: "ok", Busy: true, UptimeSeconds: 12}}, nil)
	_, out, err := s.handleDaemonStatus(context.Background(), nil, DaemonStatusInput{})
	require.NoError(t, err)
	assert.Equal(t, DaemonStatusOutput{Running: true, Busy: true, UptimeSeconds: 12}, out)

	s = NewServer(&fakeClient{healthErr: errors.New("is the daemon running?")}, nil)
	_, out, err = s.handleDaemonStatus(context.Background(), nil, DaemonStatusInput{})
	require.NoError(t, err)
	assert.False(t, out.Running)
	assert.Contains(t, out.Error, "daemon running")
}

func TestServer_ToolsOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{notify: &ipc.NotifyResponse{ID: "01Y", Reason: "timed_out", Windows: 1, ElapsedMS: 60000}}
	s := NewServer(c, nil)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"notify", "daemon_status"}, names)

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "notify",
		Arguments: map[string]any{"message": "from an agent"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out NotifyOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "timed_out", out.Reason)
	assert.Equal(t, []string{"from an agent"}, c.messages)
}
