package x11

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/flashnote/internal/overlay"
)

const (
	eventBacklog = 256
	drainTimeout = time.Second
)

var errConnectionClosed = errors.New("X connection closed")

// GrabKeyboard grabs the keyboard on the root window so a key press on any
// window dismisses the overlay.
func (c *Connection) GrabKeyboard() error {
	reply, err := xproto.GrabKeyboard(c.xu.Conn(), true, c.root, xproto.TimeCurrentTime,
		xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
	if err != nil {
		return fmt.Errorf("failed to grab keyboard: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("failed to grab keyboard: %s", grabStatusString(reply.Status))
	}
	return nil
}

// GrabPointer grabs pointer motion on the root window.
func (c *Connection) GrabPointer() error {
	reply, err := xproto.GrabPointer(c.xu.Conn(), true, c.root,
		uint16(xproto.EventMaskPointerMotion),
		xproto.GrabModeAsync, xproto.GrabModeAsync,
		xproto.WindowNone, xproto.CursorNone, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return fmt.Errorf("failed to grab pointer: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("failed to grab pointer: %s", grabStatusString(reply.Status))
	}
	return nil
}

func (c *Connection) UngrabPointer() {
	xproto.UngrabPointer(c.xu.Conn(), xproto.TimeCurrentTime)
}

func (c *Connection) UngrabKeyboard() {
	xproto.UngrabKeyboard(c.xu.Conn(), xproto.TimeCurrentTime)
}

// queuedEvent is one item read from the connection: an event or an X
// protocol error from an unchecked request.
type queuedEvent struct {
	event xgb.Event
	err   xgb.Error
}

// pumpEvents forwards everything the server sends until the connection
// closes.
func (c *Connection) pumpEvents() {
	defer close(c.events)
	for {
		ev, xerr := c.xu.Conn().WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		select {
		case c.events <- queuedEvent{event: ev, err: xerr}:
		case <-c.done:
			return
		}
	}
}

// NextEvent blocks until an event arrives or the deadline passes. X protocol
// errors from unchecked requests are logged and skipped.
func (c *Connection) NextEvent(deadline time.Time) (overlay.Event, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	for {
		select {
		case q, ok := <-c.events:
			if !ok {
				return nil, errConnectionClosed
			}
			if q.err != nil {
				c.logger.Debug("X protocol error", "error", q.err)
				continue
			}
			return convertEvent(q.event), nil
		case <-timer.C:
			return nil, overlay.ErrDeadline
		}
	}
}

// DrainEvents discards every event the server sent before the call. It
// sends itself a marker ClientMessage and drops everything up to it, since
// the server delivers events in order.
func (c *Connection) DrainEvents() {
	c.drainSerial++
	serial := c.drainSerial
	err := xproto.SendEventChecked(c.xu.Conn(), false, c.marker, xproto.EventMaskNoEvent,
		string(markerEvent(c.marker, c.markerAtom, serial).Bytes())).Check()
	if err != nil {
		c.logger.Warn("failed to send drain marker", "error", err)
		return
	}
	if dropped, ok := c.discardUntilMarker(serial, drainTimeout); !ok {
		c.logger.Warn("timed out draining events", "dropped", dropped)
	} else if dropped > 0 {
		c.logger.Debug("drained stale events", "dropped", dropped)
	}
}

// discardUntilMarker drops queued events until the marker with serial
// arrives. It reports how many were dropped and whether the marker was
// seen before the timeout.
func (c *Connection) discardUntilMarker(serial uint32, timeout time.Duration) (int, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	dropped := 0
	for {
		select {
		case q, ok := <-c.events:
			if !ok {
				return dropped, false
			}
			if isMarker(q.event, c.marker, c.markerAtom, serial) {
				return dropped, true
			}
			dropped++
		case <-timer.C:
			return dropped, false
		}
	}
}

func markerEvent(win xproto.Window, atom xproto.Atom, serial uint32) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{serial, 0, 0, 0, 0}),
	}
}

func isMarker(ev xgb.Event, win xproto.Window, atom xproto.Atom, serial uint32) bool {
	cm, ok := ev.(xproto.ClientMessageEvent)
	return ok && cm.Window == win && cm.Type == atom && cm.Format == 32 &&
		len(cm.Data.Data32) > 0 && cm.Data.Data32[0] == serial
}

func convertEvent(ev xgb.Event) overlay.Event {
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		return overlay.ExposeEvent{Window: overlay.WindowID(e.Window)}
	case xproto.KeyPressEvent:
		return overlay.KeyPressEvent{}
	case xproto.MotionNotifyEvent:
		return overlay.PointerMotionEvent{}
	default:
		return overlay.OtherEvent{Kind: fmt.Sprintf("%T", ev)}
	}
}

func grabStatusString(status byte) string {
	switch status {
	case xproto.GrabStatusSuccess:
		return "success"
	case xproto.GrabStatusAlreadyGrabbed:
		return "already grabbed"
	case xproto.GrabStatusInvalidTime:
		return "invalid time"
	case xproto.GrabStatusNotViewable:
		return "not viewable"
	case xproto.GrabStatusFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("status %d", status)
	}
}
