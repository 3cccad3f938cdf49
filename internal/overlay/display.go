// Package overlay shows a rasterized message centered on every physical
// output as a borderless, top-most window and blocks until the user
// dismisses it or the display deadline passes.
//
// The display server is reached only through the Display interface so the
// whole lifecycle can be exercised without an X server.
package overlay

import (
	"errors"
	"time"

	"github.com/1broseidon/flashnote/internal/raster"
)

// WindowID identifies a display-server window.
type WindowID uint32

// GCID identifies a graphics context paired with a window.
type GCID uint32

// ImageID identifies a server-side copy of the rasterized message.
type ImageID uint32

// ErrDeadline is returned by Display.NextEvent when the deadline passes
// before an event arrives.
var ErrDeadline = errors.New("event wait deadline exceeded")

// Display is the set of display-server primitives a notification needs.
// Implementations are not required to be safe for concurrent use; the
// Notifier serializes every call.
type Display interface {
	// QueryOutputs reports the active physical outputs in server order. An
	// empty result means multi-output information is unavailable.
	QueryOutputs() ([]Region, error)
	// RootGeometry returns the full root window area.
	RootGeometry() (Region, error)

	CreateImage(buf *raster.Buffer) (ImageID, error)
	DestroyImage(img ImageID)

	// CreateWindow creates an unmapped override-redirect child of the root
	// window selecting exposure, key-press and pointer-motion events.
	CreateWindow(bounds Rect) (WindowID, error)
	DestroyWindow(win WindowID)
	CreateGC(win WindowID) (GCID, error)
	FreeGC(gc GCID)
	PutImage(win WindowID, gc GCID, img ImageID) error
	MapWindow(win WindowID) error

	GrabKeyboard() error
	GrabPointer() error
	UngrabPointer()
	UngrabKeyboard()

	// NextEvent blocks for the next event, returning ErrDeadline once the
	// deadline has passed.
	NextEvent(deadline time.Time) (Event, error)
	// Sync blocks until the server has processed every request sent so far.
	Sync() error
	// DrainEvents discards events already queued on the connection.
	DrainEvents()
}

// Rasterizer turns message text into pixels.
type Rasterizer interface {
	Rasterize(text string) (*raster.Buffer, error)
}

// Event is a display-server event relevant to an overlay. The concrete
// types are ExposeEvent, KeyPressEvent, PointerMotionEvent and OtherEvent.
type Event interface {
	event()
}

// ExposeEvent asks for part of a window to be repainted.
type ExposeEvent struct {
	Window WindowID
}

// KeyPressEvent reports any key press.
type KeyPressEvent struct{}

// PointerMotionEvent reports pointer movement.
type PointerMotionEvent struct{}

// OtherEvent is any event the overlay does not act on.
type OtherEvent struct {
	Kind string
}

func (ExposeEvent) event()        {}
func (KeyPressEvent) event()      {}
func (PointerMotionEvent) event() {}
func (OtherEvent) event()         {}
