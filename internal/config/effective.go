package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Listen != nil {
		cfg.Listen = strings.TrimSpace(*raw.Listen)
	}
	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = strings.TrimSpace(*raw.XAuthority)
	}
	if raw.MinVisibleMS != nil {
		cfg.MinVisibleMS = *raw.MinVisibleMS
	}
	if raw.MaxVisibleSeconds != nil {
		cfg.MaxVisibleSeconds = *raw.MaxVisibleSeconds
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}

	if cfg.XAuthority != "" {
		path, err := expandHome(cfg.XAuthority)
		if err != nil {
			return nil, &ValidationError{Path: "xauthority", Err: err}
		}
		cfg.XAuthority = path
	}

	return cfg, nil
}
