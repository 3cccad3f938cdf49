package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML path and its source.
//
// Supported paths:
//
//	listen
//	display
//	xauthority
//	min_visible_ms
//	max_visible_seconds
//	log_level
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// Paths lists every path Explain accepts, in file order.
func Paths() []string {
	return []string{"listen", "display", "xauthority", "min_visible_ms", "max_visible_seconds", "log_level"}
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "listen":
		return cfg.Listen, nil
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	case "min_visible_ms":
		return cfg.MinVisibleMS, nil
	case "max_visible_seconds":
		return cfg.MaxVisibleSeconds, nil
	case "log_level":
		return cfg.LogLevel, nil
	default:
		return nil, fmt.Errorf("unknown config path %q", path)
	}
}
