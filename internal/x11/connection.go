package x11

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/flashnote/internal/overlay"
)

// Connection is a long-lived X11 client connection implementing
// overlay.Display. It is opened once at startup and shared by every
// notification; callers must not use it from more than one goroutine at a
// time.
type Connection struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	screen *xproto.ScreenInfo
	logger *slog.Logger

	xinerama  bool
	maxReqLen int
	msbFirst  bool
	images    map[overlay.ImageID]serverImage

	// events is fed by a single goroutine blocked in WaitForEvent.
	events chan queuedEvent
	done   chan struct{}

	// marker is an unmapped InputOnly window that receives the ClientMessage
	// DrainEvents uses to find the end of the queue.
	marker      xproto.Window
	markerAtom  xproto.Atom
	drainSerial uint32

	closeOnce sync.Once
}

var _ overlay.Display = (*Connection)(nil)

// NewConnection connects to the named X display. An empty name uses
// $DISPLAY.
func NewConnection(display string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display %q: %w", display, err)
	}

	setup := xproto.Setup(xu.Conn())
	c := &Connection{
		xu:        xu,
		root:      xu.RootWin(),
		screen:    xu.Screen(),
		logger:    logger,
		maxReqLen: int(setup.MaximumRequestLength) * 4,
		msbFirst:  setup.ImageByteOrder == xproto.ImageOrderMSBFirst,
	}

	if err := xinerama.Init(xu.Conn()); err != nil {
		logger.Debug("xinerama extension unavailable", "error", err)
	} else {
		c.xinerama = true
	}

	if wm, err := ewmh.GetEwmhWM(xu); err == nil {
		logger.Debug("window manager detected", "name", wm)
	}

	if err := c.createMarker(); err != nil {
		xu.Conn().Close()
		return nil, err
	}

	c.events = make(chan queuedEvent, eventBacklog)
	c.done = make(chan struct{})
	go c.pumpEvents()

	logger.Info("connected to X display",
		"display", display,
		"root", fmt.Sprintf("%dx%d", c.screen.WidthInPixels, c.screen.HeightInPixels),
		"depth", c.screen.RootDepth,
		"xinerama", c.xinerama,
	)
	return c, nil
}

// Close disconnects from the X server. Calling it again is a no-op.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.xu.Conn().Close()
	})
}

// Sync performs a round trip so every request sent so far has been
// processed by the server.
func (c *Connection) Sync() error {
	if _, err := xproto.GetInputFocus(c.xu.Conn()).Reply(); err != nil {
		return fmt.Errorf("failed to sync with X server: %w", err)
	}
	return nil
}

func (c *Connection) createMarker() error {
	conn := c.xu.Conn()
	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return fmt.Errorf("failed to allocate marker window id: %w", err)
	}
	err = xproto.CreateWindowChecked(conn, 0, wid, c.root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, c.screen.RootVisual, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("failed to create marker window: %w", err)
	}
	atom, err := xprop.Atm(c.xu, "_FLASHNOTE_DRAIN")
	if err != nil {
		xproto.DestroyWindow(conn, wid)
		return fmt.Errorf("failed to intern drain atom: %w", err)
	}
	c.marker = wid
	c.markerAtom = atom
	return nil
}
