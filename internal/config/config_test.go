package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Listen != "127.0.0.1:19324" {
		t.Fatalf("expected default listen 127.0.0.1:19324, got %q", cfg.Listen)
	}
	timing := cfg.Timing()
	if timing.MinVisible != 500*time.Millisecond || timing.MaxVisible != 60*time.Second {
		t.Fatalf("unexpected default timing %+v", timing)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Listen != DefaultListen {
		t.Fatalf("expected default listen, got %q", res.Config.Listen)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.MinVisibleMS != DefaultMinVisibleMS {
		t.Fatalf("expected min_visible_ms %d, got %d", DefaultMinVisibleMS, res.Config.MinVisibleMS)
	}
}

func TestLoadFromPath_AllKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"listen: \"0.0.0.0:8080\"",
		"display: \":1\"",
		"xauthority: \"/tmp/test-xauth\"",
		"min_visible_ms: 250",
		"max_visible_seconds: 5",
		"log_level: DEBUG",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Listen != "0.0.0.0:8080" || cfg.Display != ":1" || cfg.XAuthority != "/tmp/test-xauth" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Timing().MinVisible != 250*time.Millisecond || cfg.Timing().MaxVisible != 5*time.Second {
		t.Fatalf("unexpected timing %+v", cfg.Timing())
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFromPath_XAuthorityExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "xauthority: \"~/.Xauthority\"\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := filepath.Join(home, ".Xauthority"); res.Config.XAuthority != want {
		t.Fatalf("expected %q, got %q", want, res.Config.XAuthority)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "listen: \"127.0.0.1:19324\"\nmin_visible_ms: -5\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Path != "min_visible_ms" {
		t.Fatalf("expected path min_visible_ms, got %q", verr.Path)
	}
	if !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"listen":              func(c *Config) { c.Listen = "" },
		"listen_no_port":      func(c *Config) { c.Listen = "localhost" },
		"listen_bad_port":     func(c *Config) { c.Listen = "localhost:99999" },
		"max_visible_seconds": func(c *Config) { c.MaxVisibleSeconds = 0 },
		"max_below_min":       func(c *Config) { c.MinVisibleMS = 5000; c.MaxVisibleSeconds = 2 },
		"log_level":           func(c *Config) { c.LogLevel = "verbose" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(configD, "10-base.yaml"), "min_visible_ms: 100\nmax_visible_seconds: 9\n")
	writeFile(t, filepath.Join(configD, "20-override.yaml"), "min_visible_ms: 200\n")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"min_visible_ms: 300",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.MinVisibleMS != 300 {
		t.Fatalf("expected min_visible_ms 300, got %d", res.Config.MinVisibleMS)
	}
	if res.Config.MaxVisibleSeconds != 9 {
		t.Fatalf("expected max_visible_seconds 9 from include, got %d", res.Config.MaxVisibleSeconds)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestExplain_FileAndDefaultSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_level: warning\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "log_level")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "warning" {
		t.Fatalf("expected warning, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("expected file source at line 1, got %#v", src)
	}

	val, src, err = Explain(res, "max_visible_seconds")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != DefaultMaxVisibleSeconds {
		t.Fatalf("expected default max_visible_seconds, got %#v", val)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %#v", src)
	}

	if _, _, err := Explain(res, "font"); err == nil {
		t.Fatalf("expected unknown path error")
	}
	for _, p := range Paths() {
		if _, _, err := Explain(res, p); err != nil {
			t.Fatalf("explain %q: %v", p, err)
		}
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "min_visible_ms: 500\n")

	changes := make(chan *LoadResult, 4)
	w, err := NewWatcher(path, func(res *LoadResult) { changes <- res }, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	// Invalid content is ignored.
	writeFile(t, path, "min_visible_ms: -1\n")
	select {
	case res := <-changes:
		t.Fatalf("unexpected reload with %+v", res.Config)
	case <-time.After(400 * time.Millisecond):
	}

	writeFile(t, path, "min_visible_ms: 750\n")
	select {
	case res := <-changes:
		if res.Config.MinVisibleMS != 750 {
			t.Fatalf("expected min_visible_ms 750, got %d", res.Config.MinVisibleMS)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}
}

func TestWatcher_ReloadsOnIncludedFileChange(t *testing.T) {
	dir := t.TempDir()
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	include := filepath.Join(configD, "10-timing.yaml")
	writeFile(t, include, "max_visible_seconds: 9\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - config.d\n")

	changes := make(chan *LoadResult, 4)
	w, err := NewWatcher(path, func(res *LoadResult) { changes <- res }, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	writeFile(t, include, "max_visible_seconds: 12\n")
	select {
	case res := <-changes:
		if res.Config.MaxVisibleSeconds != 12 {
			t.Fatalf("expected max_visible_seconds 12, got %d", res.Config.MaxVisibleSeconds)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for reload after include edit")
	}

	// A new file dropped into the include directory is picked up too.
	writeFile(t, filepath.Join(configD, "20-min.yaml"), "min_visible_ms: 800\n")
	deadline := time.After(3 * time.Second)
	for {
		select {
		case res := <-changes:
			if res.Config.MinVisibleMS == 800 {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for reload after new include file")
		}
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.yaml"), nil, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
