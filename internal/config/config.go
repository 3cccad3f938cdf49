package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/flashnote/internal/overlay"
)

const (
	// DefaultListen accepts local clients only. Use 0.0.0.0:19324 to accept
	// notifications from other hosts.
	DefaultListen            = "127.0.0.1:19324"
	DefaultMinVisibleMS      = 500
	DefaultMaxVisibleSeconds = 60
	DefaultLogLevel          = "info"
)

// Config is the effective flashnote configuration.
type Config struct {
	// Listen is the host:port the HTTP endpoint binds to.
	Listen string `yaml:"listen"`
	// Display overrides $DISPLAY for the X connection.
	Display string `yaml:"display"`
	// XAuthority overrides $XAUTHORITY for the X connection.
	XAuthority string `yaml:"xauthority"`

	MinVisibleMS      int    `yaml:"min_visible_ms"`
	MaxVisibleSeconds int    `yaml:"max_visible_seconds"`
	LogLevel          string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:            DefaultListen,
		MinVisibleMS:      DefaultMinVisibleMS,
		MaxVisibleSeconds: DefaultMaxVisibleSeconds,
		LogLevel:          DefaultLogLevel,
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return &ValidationError{Path: "listen", Err: fmt.Errorf("listen is required")}
	}
	_, port, err := net.SplitHostPort(c.Listen)
	if err != nil {
		return &ValidationError{Path: "listen", Err: fmt.Errorf("listen must be host:port: %w", err)}
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return &ValidationError{Path: "listen", Err: fmt.Errorf("listen port must be between 0 and 65535")}
	}
	if c.MinVisibleMS < 0 {
		return &ValidationError{Path: "min_visible_ms", Err: fmt.Errorf("min_visible_ms must be >= 0")}
	}
	if c.MaxVisibleSeconds < 1 {
		return &ValidationError{Path: "max_visible_seconds", Err: fmt.Errorf("max_visible_seconds must be >= 1")}
	}
	if time.Duration(c.MaxVisibleSeconds)*time.Second < time.Duration(c.MinVisibleMS)*time.Millisecond {
		return &ValidationError{Path: "max_visible_seconds", Err: fmt.Errorf("max_visible_seconds must not be shorter than min_visible_ms")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

// Timing returns the overlay visibility bounds.
func (c *Config) Timing() overlay.Timing {
	return overlay.Timing{
		MinVisible: time.Duration(c.MinVisibleMS) * time.Millisecond,
		MaxVisible: time.Duration(c.MaxVisibleSeconds) * time.Second,
	}
}

// SlogLevel maps log_level to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
