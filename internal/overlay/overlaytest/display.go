// Package overlaytest provides an in-memory overlay.Display that records
// every operation, for tests of code built on the overlay package.
package overlaytest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/1broseidon/flashnote/internal/overlay"
	"github.com/1broseidon/flashnote/internal/raster"
)

// Op is one recorded display operation.
type Op struct {
	Name   string
	Window overlay.WindowID
	GC     overlay.GCID
	Image  overlay.ImageID
	Bounds overlay.Rect
	At     time.Time
}

// ScriptedEvent is delivered After the previous NextEvent call returns.
type ScriptedEvent struct {
	After time.Duration
	Event overlay.Event
}

// Display is a fake overlay.Display. Configure the exported fields before
// use; inspect it with the accessor methods afterwards.
type Display struct {
	Outputs    []overlay.Region
	OutputsErr error
	Root       overlay.Region

	// FailWindow makes CreateWindow fail for the n-th call (zero-based).
	FailWindow map[int]bool
	// FailPaint makes PutImage fail for every window whose bounds match.
	FailPaint       func(bounds overlay.Rect) bool
	GrabKeyboardErr error
	GrabPointerErr  error
	Events          []ScriptedEvent
	EventErr        error

	mu          sync.Mutex
	ops         []Op
	faults      []string
	nextID      uint32
	created     int
	windows     map[overlay.WindowID]overlay.Rect
	mappedAt    map[overlay.WindowID]time.Time
	lifetimes   []time.Duration
	gcs         map[overlay.GCID]overlay.WindowID
	images      map[overlay.ImageID]*raster.Buffer
	keyboard    bool
	pointer     bool
	queued      []overlay.Event
	drainedLeft int
}

// NewDisplay returns a fake with a single 1920x1080 root and no
// multi-output information.
func NewDisplay() *Display {
	return &Display{
		Root: overlay.Region{Width: 1920, Height: 1080},
	}
}

func (d *Display) record(op Op) {
	op.At = time.Now()
	d.ops = append(d.ops, op)
}

func (d *Display) fault(format string, args ...any) {
	d.faults = append(d.faults, fmt.Sprintf(format, args...))
}

func (d *Display) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Display) init() {
	if d.windows == nil {
		d.windows = make(map[overlay.WindowID]overlay.Rect)
		d.mappedAt = make(map[overlay.WindowID]time.Time)
		d.gcs = make(map[overlay.GCID]overlay.WindowID)
		d.images = make(map[overlay.ImageID]*raster.Buffer)
	}
}

func (d *Display) QueryOutputs() ([]overlay.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Op{Name: "QueryOutputs"})
	return append([]overlay.Region(nil), d.Outputs...), d.OutputsErr
}

func (d *Display) RootGeometry() (overlay.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Op{Name: "RootGeometry"})
	return d.Root, nil
}

func (d *Display) CreateImage(buf *raster.Buffer) (overlay.ImageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	img := overlay.ImageID(d.id())
	d.images[img] = buf
	d.record(Op{Name: "CreateImage", Image: img})
	return img, nil
}

func (d *Display) DestroyImage(img overlay.ImageID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if _, ok := d.images[img]; !ok {
		d.fault("DestroyImage of unknown image %d", img)
	}
	delete(d.images, img)
	d.record(Op{Name: "DestroyImage", Image: img})
}

func (d *Display) CreateWindow(bounds overlay.Rect) (overlay.WindowID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	n := d.created
	d.created++
	d.record(Op{Name: "CreateWindow", Bounds: bounds})
	if d.FailWindow[n] {
		return 0, errors.New("create window failed")
	}
	if d.keyboard || d.pointer {
		d.fault("CreateWindow while input is grabbed")
	}
	win := overlay.WindowID(d.id())
	d.windows[win] = bounds
	return win, nil
}

func (d *Display) DestroyWindow(win overlay.WindowID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if _, ok := d.windows[win]; !ok {
		d.fault("DestroyWindow of unknown window %d", win)
	}
	if at, ok := d.mappedAt[win]; ok {
		d.lifetimes = append(d.lifetimes, time.Since(at))
	}
	for gc, owner := range d.gcs {
		if owner == win {
			d.fault("DestroyWindow %d with live graphics context %d", win, gc)
		}
	}
	delete(d.windows, win)
	delete(d.mappedAt, win)
	d.record(Op{Name: "DestroyWindow", Window: win})
}

func (d *Display) CreateGC(win overlay.WindowID) (overlay.GCID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if _, ok := d.windows[win]; !ok {
		d.fault("CreateGC for unknown window %d", win)
	}
	gc := overlay.GCID(d.id())
	d.gcs[gc] = win
	d.record(Op{Name: "CreateGC", Window: win, GC: gc})
	return gc, nil
}

func (d *Display) FreeGC(gc overlay.GCID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if _, ok := d.gcs[gc]; !ok {
		d.fault("FreeGC of unknown graphics context %d", gc)
	}
	delete(d.gcs, gc)
	d.record(Op{Name: "FreeGC", GC: gc})
}

func (d *Display) PutImage(win overlay.WindowID, gc overlay.GCID, img overlay.ImageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	d.record(Op{Name: "PutImage", Window: win, GC: gc, Image: img})
	if _, ok := d.images[img]; !ok {
		d.fault("PutImage from unknown image %d", img)
	}
	if owner, ok := d.gcs[gc]; !ok || owner != win {
		d.fault("PutImage on window %d with foreign graphics context %d", win, gc)
	}
	if d.FailPaint != nil && d.FailPaint(d.windows[win]) {
		return errors.New("paint failed")
	}
	return nil
}

func (d *Display) MapWindow(win overlay.WindowID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if _, ok := d.windows[win]; !ok {
		d.fault("MapWindow of unknown window %d", win)
	}
	d.mappedAt[win] = time.Now()
	d.record(Op{Name: "MapWindow", Window: win})
	return nil
}

func (d *Display) GrabKeyboard() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Op{Name: "GrabKeyboard"})
	if d.GrabKeyboardErr != nil {
		return d.GrabKeyboardErr
	}
	if d.keyboard {
		d.fault("keyboard grabbed twice")
	}
	d.keyboard = true
	return nil
}

func (d *Display) GrabPointer() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Op{Name: "GrabPointer"})
	if d.GrabPointerErr != nil {
		return d.GrabPointerErr
	}
	if d.pointer {
		d.fault("pointer grabbed twice")
	}
	d.pointer = true
	return nil
}

func (d *Display) UngrabPointer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pointer {
		d.fault("UngrabPointer without a pointer grab")
	}
	d.pointer = false
	d.record(Op{Name: "UngrabPointer"})
}

func (d *Display) UngrabKeyboard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.keyboard {
		d.fault("UngrabKeyboard without a keyboard grab")
	}
	d.keyboard = false
	d.record(Op{Name: "UngrabKeyboard"})
}

// NextEvent delivers queued events first, then scripted ones, sleeping for
// each scripted delay. With nothing left it sleeps until the deadline.
func (d *Display) NextEvent(deadline time.Time) (overlay.Event, error) {
	d.mu.Lock()
	d.record(Op{Name: "NextEvent"})
	if len(d.queued) > 0 {
		ev := d.queued[0]
		d.queued = d.queued[1:]
		d.mu.Unlock()
		return ev, nil
	}
	if d.EventErr != nil {
		err := d.EventErr
		d.mu.Unlock()
		return nil, err
	}
	if len(d.Events) == 0 {
		d.mu.Unlock()
		time.Sleep(time.Until(deadline))
		return nil, overlay.ErrDeadline
	}
	next := d.Events[0]
	d.mu.Unlock()

	if time.Now().Add(next.After).After(deadline) {
		time.Sleep(time.Until(deadline))
		return nil, overlay.ErrDeadline
	}
	time.Sleep(next.After)

	d.mu.Lock()
	d.Events = d.Events[1:]
	d.mu.Unlock()
	return next.Event, nil
}

func (d *Display) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Op{Name: "Sync"})
	return nil
}

// DrainEvents discards queued events and, like a real connection, any
// scripted events that would already have arrived.
func (d *Display) DrainEvents() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drainedLeft += len(d.queued)
	d.queued = nil
	for len(d.Events) > 0 && d.Events[0].After == 0 {
		d.drainedLeft++
		d.Events = d.Events[1:]
	}
	d.record(Op{Name: "DrainEvents"})
}

// Queue makes events immediately available to the next NextEvent calls.
func (d *Display) Queue(events ...overlay.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queued = append(d.queued, events...)
}

// Ops returns a copy of every recorded operation.
func (d *Display) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Op(nil), d.ops...)
}

// OpNames returns the names of recorded operations in order.
func (d *Display) OpNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, len(d.ops))
	for i, op := range d.ops {
		names[i] = op.Name
	}
	return names
}

// Count returns how many times the named operation was recorded.
func (d *Display) Count(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, op := range d.ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// CreatedBounds returns the bounds requested by every CreateWindow call.
func (d *Display) CreatedBounds() []overlay.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []overlay.Rect
	for _, op := range d.ops {
		if op.Name == "CreateWindow" {
			out = append(out, op.Bounds)
		}
	}
	return out
}

// LiveWindows returns the number of windows not yet destroyed.
func (d *Display) LiveWindows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.windows)
}

// LiveGCs returns the number of graphics contexts not yet freed.
func (d *Display) LiveGCs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.gcs)
}

// LiveImages returns the number of images not yet destroyed.
func (d *Display) LiveImages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.images)
}

// Grabbed reports the current keyboard and pointer grab state.
func (d *Display) Grabbed() (keyboard, pointer bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keyboard, d.pointer
}

// Lifetimes returns, per destroyed window, the time from map to destroy.
func (d *Display) Lifetimes() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.lifetimes...)
}

// Faults returns every protocol misuse observed, such as double frees.
func (d *Display) Faults() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.faults...)
}

// Drained returns how many events DrainEvents discarded.
func (d *Display) Drained() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drainedLeft
}
