package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/flashnote/internal/overlay"
)

const (
	windowName  = "flashnote"
	windowClass = "Flashnote"
)

const overlayEventMask = xproto.EventMaskExposure |
	xproto.EventMaskKeyPress |
	xproto.EventMaskPointerMotion

// CreateWindow creates an unmapped override-redirect window at bounds.
func (c *Connection) CreateWindow(bounds overlay.Rect) (overlay.WindowID, error) {
	if bounds.Width < 1 || bounds.Height < 1 {
		return 0, fmt.Errorf("invalid window size %dx%d", bounds.Width, bounds.Height)
	}

	win, err := xwindow.Generate(c.xu)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	// Value order follows the mask bit order.
	err = win.CreateChecked(c.root,
		bounds.X, bounds.Y, bounds.Width, bounds.Height,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		c.screen.BlackPixel,
		c.screen.BlackPixel,
		1,
		uint32(overlayEventMask),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}

	// Hints help compositors and screenshot tools; the window works without them.
	if err := ewmh.WmWindowTypeSet(c.xu, win.Id, []string{"_NET_WM_WINDOW_TYPE_NOTIFICATION"}); err != nil {
		c.logger.Debug("failed to set window type", "window", win.Id, "error", err)
	}
	if err := ewmh.WmNameSet(c.xu, win.Id, windowName); err != nil {
		c.logger.Debug("failed to set window name", "window", win.Id, "error", err)
	}
	if err := icccm.WmClassSet(c.xu, win.Id, &icccm.WmClass{Instance: windowName, Class: windowClass}); err != nil {
		c.logger.Debug("failed to set window class", "window", win.Id, "error", err)
	}

	return overlay.WindowID(win.Id), nil
}

// DestroyWindow destroys win. Errors surface asynchronously and are
// collected by the next Sync.
func (c *Connection) DestroyWindow(win overlay.WindowID) {
	xproto.DestroyWindow(c.xu.Conn(), xproto.Window(win))
}

// MapWindow shows win.
func (c *Connection) MapWindow(win overlay.WindowID) error {
	if err := xproto.MapWindowChecked(c.xu.Conn(), xproto.Window(win)).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	return nil
}

// CreateGC creates a graphics context for blitting into win.
func (c *Connection) CreateGC(win overlay.WindowID) (overlay.GCID, error) {
	gc, err := xproto.NewGcontextId(c.xu.Conn())
	if err != nil {
		return 0, fmt.Errorf("failed to allocate graphics context id: %w", err)
	}
	// No GraphicsExpose/NoExpose events from CopyArea.
	err = xproto.CreateGCChecked(c.xu.Conn(), gc, xproto.Drawable(win),
		xproto.GcGraphicsExposures, []uint32{0}).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create graphics context: %w", err)
	}
	return overlay.GCID(gc), nil
}

// FreeGC releases gc.
func (c *Connection) FreeGC(gc overlay.GCID) {
	xproto.FreeGC(c.xu.Conn(), xproto.Gcontext(gc))
}
