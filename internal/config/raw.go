package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig mirrors the file format. Nil fields were not set by any file.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Listen     *string `yaml:"listen"`
	Display    *string `yaml:"display"`
	XAuthority *string `yaml:"xauthority"`

	MinVisibleMS      *int    `yaml:"min_visible_ms"`
	MaxVisibleSeconds *int    `yaml:"max_visible_seconds"`
	LogLevel          *string `yaml:"log_level"`
}

// merge returns c with every field set in overlay replaced.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	if overlay.Listen != nil {
		out.Listen = overlay.Listen
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.MinVisibleMS != nil {
		out.MinVisibleMS = overlay.MinVisibleMS
	}
	if overlay.MaxVisibleSeconds != nil {
		out.MaxVisibleSeconds = overlay.MaxVisibleSeconds
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	out.Include = nil
	return out
}
