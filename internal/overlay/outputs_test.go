package overlay_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/flashnote/internal/overlay"
	"github.com/1broseidon/flashnote/internal/overlay/overlaytest"
)

var discard = slog.New(slog.DiscardHandler)

func TestEnumerateOutputs_UsesReportedOutputsInOrder(t *testing.T) {
	d := overlaytest.NewDisplay()
	d.Outputs = []overlay.Region{
		{X: 1920, Y: 0, Width: 1280, Height: 1024},
		{X: 0, Y: 0, Width: 1920, Height: 1080},
	}

	got, err := overlay.EnumerateOutputs(d, discard)
	require.NoError(t, err)
	assert.Equal(t, d.Outputs, got)
	assert.Zero(t, d.Count("RootGeometry"))
}

func TestEnumerateOutputs_FallsBackToRoot(t *testing.T) {
	d := overlaytest.NewDisplay()
	d.Root = overlay.Region{Width: 2560, Height: 1440}

	got, err := overlay.EnumerateOutputs(d, discard)
	require.NoError(t, err)
	assert.Equal(t, []overlay.Region{{Width: 2560, Height: 1440}}, got)
}

func TestEnumerateOutputs_QueryErrorIsNotFatal(t *testing.T) {
	d := overlaytest.NewDisplay()
	d.OutputsErr = errors.New("extension missing")

	got, err := overlay.EnumerateOutputs(d, discard)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1920, got[0].Width)
}

func TestEnumerateOutputs_IgnoresEmptyRegions(t *testing.T) {
	d := overlaytest.NewDisplay()
	d.Outputs = []overlay.Region{{X: 0, Y: 0, Width: 0, Height: 0}}

	got, err := overlay.EnumerateOutputs(d, discard)
	require.NoError(t, err)
	assert.Equal(t, []overlay.Region{{Width: 1920, Height: 1080}}, got)
}

func TestEnumerateOutputs_DropsOnlyEmptyRegions(t *testing.T) {
	d := overlaytest.NewDisplay()
	d.Outputs = []overlay.Region{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 0, Height: 1080},
		{X: 3840, Y: 0, Width: 1280, Height: 1024},
	}

	got, err := overlay.EnumerateOutputs(d, discard)
	require.NoError(t, err)
	assert.Equal(t, []overlay.Region{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 3840, Y: 0, Width: 1280, Height: 1024},
	}, got)
	assert.Zero(t, d.Count("RootGeometry"))
}
