package overlay

import (
	"log/slog"
)

// windowSet owns every overlay window of one notification and the graphics
// context paired with each. destroy drains it exactly once.
type windowSet struct {
	disp   Display
	image  ImageID
	order  []WindowID
	gcs    map[WindowID]GCID
	logger *slog.Logger
}

// createWindows places one window per region, paints it and maps it. A
// region whose window cannot be fully set up is logged and skipped; any
// resources it already obtained are released immediately.
func createWindows(d Display, regions []Region, width, height int, img ImageID, logger *slog.Logger) *windowSet {
	s := &windowSet{
		disp:   d,
		image:  img,
		gcs:    make(map[WindowID]GCID, len(regions)),
		logger: logger,
	}

	for _, region := range regions {
		bounds := Placement(region, width, height)

		win, err := d.CreateWindow(bounds)
		if err != nil {
			logger.Warn("skipping output: create window failed", "region", region.String(), "error", err)
			continue
		}

		gc, err := d.CreateGC(win)
		if err != nil {
			logger.Warn("skipping output: create graphics context failed", "region", region.String(), "error", err)
			d.DestroyWindow(win)
			continue
		}

		if err := d.PutImage(win, gc, img); err != nil {
			logger.Warn("skipping output: paint failed", "region", region.String(), "error", err)
			d.FreeGC(gc)
			d.DestroyWindow(win)
			continue
		}

		if err := d.MapWindow(win); err != nil {
			logger.Warn("skipping output: map failed", "region", region.String(), "error", err)
			d.FreeGC(gc)
			d.DestroyWindow(win)
			continue
		}

		s.order = append(s.order, win)
		s.gcs[win] = gc
		logger.Debug("overlay window mapped", "window", win, "bounds", bounds.String())
	}

	return s
}

func (s *windowSet) len() int {
	return len(s.order)
}

// repaint re-blits the message into win. Windows not owned by the set are
// ignored.
func (s *windowSet) repaint(win WindowID) {
	gc, ok := s.gcs[win]
	if !ok {
		return
	}
	if err := s.disp.PutImage(win, gc, s.image); err != nil {
		s.logger.Debug("repaint failed", "window", win, "error", err)
	}
}

func (s *windowSet) destroy() {
	for _, win := range s.order {
		s.disp.FreeGC(s.gcs[win])
		s.disp.DestroyWindow(win)
	}
	s.order = nil
	s.gcs = map[WindowID]GCID{}
}
