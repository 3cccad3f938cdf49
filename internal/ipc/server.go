package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/1broseidon/flashnote/internal/overlay"
	"github.com/1broseidon/flashnote/internal/raster"
)

const maxBodyBytes = 64 << 10

var errMissingMessage = errors.New("message parameter is required")

// Notifier shows a message and blocks until it has been dismissed.
type Notifier interface {
	Notify(message string) (overlay.Result, error)
	Busy() bool
}

// Server is the HTTP endpoint that turns requests into notifications.
type Server struct {
	addr      string
	notifier  Notifier
	logger    *slog.Logger
	startTime time.Time

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
}

// NewServer creates a server for addr. Nothing listens until Start.
func NewServer(addr string, notifier Notifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:      addr,
		notifier:  notifier,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathNotify, s.handleNotify)
	mux.HandleFunc("POST "+PathNotify, s.handleNotify)
	mux.HandleFunc("GET "+PathHealth, s.handleHealth)
	return mux
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	s.listener = listener
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("HTTP server listening", "addr", listener.Addr().String())

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops accepting requests and waits for in-flight notifications
// to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	message, err := messageFromRequest(w, r)
	if err != nil {
		s.logger.Debug("rejected notify request", "remote", r.RemoteAddr, "error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Debug("notify request", "remote", r.RemoteAddr, "length", len(message))
	res, err := s.notifier.Notify(message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, overlay.ErrEmptyMessage) || errors.Is(err, raster.ErrTooLarge) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("notification failed", "id", res.ID, "error", err)
		writeJSON(w, status, ErrorResponse{Error: err.Error(), ID: res.ID})
		return
	}

	writeJSON(w, http.StatusOK, newNotifyResponse(res))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Busy:          s.notifier.Busy(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

// messageFromRequest reads the message from the query string (GET), a JSON
// body or a form body (POST). A missing or empty message is an error.
func messageFromRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		if !q.Has("message") || q.Get("message") == "" {
			return "", errMissingMessage
		}
		return q.Get("message"), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req NotifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("invalid JSON body: %w", err)
		}
		if req.Message == "" {
			return "", errMissingMessage
		}
		return req.Message, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("invalid form body: %w", err)
	}
	// r.Form holds both the body and the query string, body first.
	message := r.Form.Get("message")
	if message == "" {
		return "", errMissingMessage
	}
	return message, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
