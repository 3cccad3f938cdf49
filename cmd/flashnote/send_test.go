package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/flashnote/internal/config"
	"github.com/1broseidon/flashnote/internal/runtimepath"
)

func TestReadMessage_JoinsArgs(t *testing.T) {
	msg, err := readMessage([]string{"build", "finished"}, os.Stdin)
	require.NoError(t, err)
	assert.Equal(t, "build finished", msg)
}

func TestReadMessage_ReadsPipedStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte("first line\nsecond line\n"), 0600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	msg, err := readMessage(nil, f)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", msg)
}

func TestReadMessage_EmptyStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = readMessage(nil, f)
	assert.Error(t, err)
}

func TestResolveListen_Priority(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	assert.Equal(t, "10.0.0.1:1", resolveListen("10.0.0.1:1"))
	assert.Equal(t, config.DefaultListen, resolveListen(""))

	require.NoError(t, runtimepath.WriteState(runtimepath.State{PID: 1, Listen: "127.0.0.1:4000"}))
	assert.Equal(t, "127.0.0.1:4000", resolveListen(""))
}

func TestFormatSource(t *testing.T) {
	assert.Equal(t, "file:/a.yaml:3:5", formatSource(config.Source{Kind: config.SourceFile, File: "/a.yaml", Line: 3, Column: 5}))
	assert.Equal(t, "default:defaults", formatSource(config.Source{Kind: config.SourceDefault, Name: "defaults"}))
}
