package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/1broseidon/flashnote/internal/overlay"
)

func TestPlacement_CentersInRegion(t *testing.T) {
	got := overlay.Placement(overlay.Region{Width: 1920, Height: 1080}, 40, 20)
	assert.Equal(t, overlay.Rect{X: 940, Y: 530, Width: 40, Height: 20}, got)
}

func TestPlacement_OffsetRegion(t *testing.T) {
	got := overlay.Placement(overlay.Region{X: 1920, Y: 0, Width: 1280, Height: 1024}, 100, 50)
	assert.Equal(t, overlay.Rect{X: 2510, Y: 487, Width: 100, Height: 50}, got)
}

func TestPlacement_LargerThanRegionGoesNegative(t *testing.T) {
	got := overlay.Placement(overlay.Region{Width: 800, Height: 600}, 1000, 700)
	assert.Equal(t, -100, got.X)
	assert.Equal(t, -50, got.Y)
}

func TestRect_String(t *testing.T) {
	assert.Equal(t, "1920x1080+0+0", overlay.Rect{Width: 1920, Height: 1080}.String())
	assert.Equal(t, "40x20+-10+5", overlay.Rect{X: -10, Y: 5, Width: 40, Height: 20}.String())
}

func TestDismissReason_String(t *testing.T) {
	assert.Equal(t, "key_pressed", overlay.KeyPressed.String())
	assert.Equal(t, "pointer_moved", overlay.PointerMoved.String())
	assert.Equal(t, "timed_out", overlay.TimedOut.String())

	text, err := overlay.PointerMoved.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "pointer_moved", string(text))
}
