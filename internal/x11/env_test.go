package x11

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestResolveEnv_ConfigWinsOverEnvironment(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":99", "/tmp/should-not-be-used" },
		func(string) string { return ":88" },
	)
	defer restore()

	env, err := ResolveEnv([]string{"DISPLAY=:7", "XAUTHORITY=/tmp/xauth-existing"}, ":1", "/tmp/cfg")
	if err != nil {
		t.Fatalf("ResolveEnv returned error: %v", err)
	}
	if env.Display != ":1" || env.XAuthority != "/tmp/cfg" {
		t.Fatalf("ResolveEnv = %+v, want :1 and /tmp/cfg", env)
	}
}

func TestResolveEnv_UsesEnvironment(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":99", "/tmp/should-not-be-used" },
		func(string) string { return ":88" },
	)
	defer restore()

	env, err := ResolveEnv([]string{"HOME=" + t.TempDir(), "DISPLAY=:7", "XAUTHORITY=/tmp/xauth-existing"}, "", "")
	if err != nil {
		t.Fatalf("ResolveEnv returned error: %v", err)
	}
	if env.Display != ":7" {
		t.Fatalf("Display = %q, want %q", env.Display, ":7")
	}
	if env.XAuthority != "/tmp/xauth-existing" {
		t.Fatalf("XAuthority = %q, want %q", env.XAuthority, "/tmp/xauth-existing")
	}
}

func TestResolveEnv_FallsBackToHomeXAuthority(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, []byte("cookie"), 0600); err != nil {
		t.Fatalf("write xauthority: %v", err)
	}

	env, err := ResolveEnv([]string{"HOME=" + home}, ":1", "")
	if err != nil {
		t.Fatalf("ResolveEnv returned error: %v", err)
	}
	if env.XAuthority != xauth {
		t.Fatalf("XAuthority = %q, want %q", env.XAuthority, xauth)
	}
}

func TestResolveEnv_UsesDetectedSession(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":5", "/tmp/xauth-detected" },
		func(string) string { return ":88" },
	)
	defer restore()

	env, err := ResolveEnv([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("ResolveEnv returned error: %v", err)
	}
	if env.Display != ":5" || env.XAuthority != "/tmp/xauth-detected" {
		t.Fatalf("ResolveEnv = %+v, want :5 and /tmp/xauth-detected", env)
	}
}

func TestResolveEnv_UsesSocketWhenNothingElse(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return ":3" },
	)
	defer restore()

	env, err := ResolveEnv([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("ResolveEnv returned error: %v", err)
	}
	if env.Display != ":3" {
		t.Fatalf("Display = %q, want %q", env.Display, ":3")
	}
}

func TestResolveEnv_NoDisplay(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	_, err := ResolveEnv([]string{"HOME=" + t.TempDir()}, "", "")
	if !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("expected ErrNoDisplay, got %v", err)
	}
}

func TestDetectSessionX11Env_ReadsLeaderEnviron(t *testing.T) {
	origRun, origRead := runCommandOutputFn, readFileFn
	defer func() { runCommandOutputFn, readFileFn = origRun, origRead }()

	uid := os.Getuid()
	runCommandOutputFn = func(name string, args ...string) (string, error) {
		switch strings.Join(args, " ") {
		case "list-sessions --no-legend":
			return "c1 " + strconv.Itoa(uid) + " someone seat0\n", nil
		case "show-session c1 -p Display --value":
			return ":0\n", nil
		case "show-session c1 -p Leader --value":
			return "4242\n", nil
		}
		return "", errors.New("unexpected command")
	}
	readFileFn = func(path string) ([]byte, error) {
		if path != "/proc/4242/environ" {
			return nil, os.ErrNotExist
		}
		return []byte("DISPLAY=:1\x00XAUTHORITY=/run/user/1000/gdm/Xauthority\x00"), nil
	}

	display, xauth := detectSessionX11Env()
	if display != ":1" || xauth != "/run/user/1000/gdm/Xauthority" {
		t.Fatalf("detectSessionX11Env = %q %q", display, xauth)
	}
}

func TestDetectDisplayFromSockets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X2", "not-a-display"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if got := detectDisplayFromSockets(dir); got != ":2" {
		t.Fatalf("detectDisplayFromSockets = %q, want %q", got, ":2")
	}
}

func TestParseLoginctlSessions(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := parseLoginctlSessions(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("parseLoginctlSessions = %v, want [1 3]", got)
	}
}

func stubDetectFns(
	detectSession func() (string, string),
	detectSocket func(string) string,
) func() {
	origSession := detectSessionX11EnvFn
	origSocket := detectDisplayFromSocketFn
	detectSessionX11EnvFn = detectSession
	detectDisplayFromSocketFn = detectSocket
	return func() {
		detectSessionX11EnvFn = origSession
		detectDisplayFromSocketFn = origSocket
	}
}
