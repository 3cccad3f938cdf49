package overlay

import (
	"errors"
	"log/slog"
	"time"
)

// grabState records which exclusive input grabs are held.
type grabState struct {
	keyboard bool
	pointer  bool
}

// acquire grabs the keyboard and then pointer motion. A failed grab is
// logged and left unheld; the loop still ends on its deadline.
func (g *grabState) acquire(d Display, logger *slog.Logger) {
	if err := d.GrabKeyboard(); err != nil {
		logger.Warn("keyboard grab failed", "error", err)
	} else {
		g.keyboard = true
	}
	if err := d.GrabPointer(); err != nil {
		logger.Warn("pointer grab failed", "error", err)
	} else {
		g.pointer = true
	}
}

// release ungrabs whatever is held. Calling it again is a no-op.
func (g *grabState) release(d Display) {
	if g.pointer {
		d.UngrabPointer()
		g.pointer = false
	}
	if g.keyboard {
		d.UngrabKeyboard()
		g.keyboard = false
	}
}

// runLoop processes events until a key press, pointer motion or the
// deadline. Exposed windows are repainted along the way.
func runLoop(d Display, windows *windowSet, deadline time.Time) (DismissReason, error) {
	for {
		ev, err := d.NextEvent(deadline)
		if errors.Is(err, ErrDeadline) {
			return TimedOut, nil
		}
		if err != nil {
			return TimedOut, err
		}

		switch e := ev.(type) {
		case ExposeEvent:
			windows.repaint(e.Window)
		case KeyPressEvent:
			return KeyPressed, nil
		case PointerMotionEvent:
			return PointerMoved, nil
		case OtherEvent:
		}
	}
}
