package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// DefaultMinVisible is how long every overlay stays up, however fast
	// it is dismissed.
	DefaultMinVisible = 500 * time.Millisecond
	// DefaultMaxVisible bounds the wait for a dismissing input event.
	DefaultMaxVisible = 60 * time.Second
)

var (
	// ErrEmptyMessage is returned for an empty message; nothing is shown.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoWindows is returned when no output could get a window. Input is
	// never grabbed in that case.
	ErrNoWindows = errors.New("no overlay window could be created")
)

// Timing holds the visibility bounds of a notification.
type Timing struct {
	MinVisible time.Duration
	MaxVisible time.Duration
}

func (t Timing) normalized() Timing {
	if t.MinVisible < 0 {
		t.MinVisible = 0
	}
	if t.MaxVisible <= 0 {
		t.MaxVisible = DefaultMaxVisible
	}
	if t.MaxVisible < t.MinVisible {
		t.MaxVisible = t.MinVisible
	}
	return t
}

// Result describes one completed notification.
type Result struct {
	ID      string
	Reason  DismissReason
	Outputs int
	Windows int
	Elapsed time.Duration
}

// Notifier runs notifications against a shared display connection, one at
// a time. Concurrent callers queue on an internal mutex for the whole
// show-grab-wait-teardown sequence because input grabs are global.
type Notifier struct {
	mu     sync.Mutex
	disp   Display
	raster Rasterizer
	logger *slog.Logger
	timing atomic.Pointer[Timing]
	busy   atomic.Bool
}

// NewNotifier creates a Notifier. A nil logger discards log output.
func NewNotifier(d Display, r Rasterizer, timing Timing, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := &Notifier{
		disp:   d,
		raster: r,
		logger: logger,
	}
	n.SetTiming(timing)
	return n
}

// SetTiming replaces the visibility bounds for subsequent notifications.
func (n *Notifier) SetTiming(t Timing) {
	t = t.normalized()
	n.timing.Store(&t)
}

// Timing returns the current visibility bounds.
func (n *Notifier) Timing() Timing {
	return *n.timing.Load()
}

// Busy reports whether a notification is currently on screen.
func (n *Notifier) Busy() bool {
	return n.busy.Load()
}

// Notify shows message on every output and returns once it has been
// dismissed, stayed up for at least the minimum visible time, and been
// fully torn down.
func (n *Notifier) Notify(message string) (Result, error) {
	if message == "" {
		return Result{}, ErrEmptyMessage
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.busy.Store(true)
	defer n.busy.Store(false)

	timing := n.Timing()
	start := time.Now()
	res := Result{ID: ulid.Make().String()}
	logger := n.logger.With("id", res.ID)

	buf, err := n.raster.Rasterize(message)
	if err != nil {
		return res, fmt.Errorf("failed to rasterize message: %w", err)
	}

	regions, err := EnumerateOutputs(n.disp, logger)
	if err != nil {
		return res, err
	}
	res.Outputs = len(regions)

	img, err := n.disp.CreateImage(buf)
	if err != nil {
		return res, fmt.Errorf("failed to create image: %w", err)
	}

	s := &session{disp: n.disp, logger: logger, image: img, hasImage: true}
	defer s.teardown()

	s.windows = createWindows(n.disp, regions, buf.Width, buf.Height, img, logger)
	res.Windows = s.windows.len()
	if res.Windows == 0 {
		return res, ErrNoWindows
	}

	now := time.Now()
	s.displayUntil = now.Add(timing.MinVisible)
	deadline := now.Add(timing.MaxVisible)

	s.grabs.acquire(n.disp, logger)
	reason, loopErr := runLoop(n.disp, s.windows, deadline)
	s.teardown()

	res.Reason = reason
	res.Elapsed = time.Since(start)
	if loopErr != nil {
		return res, fmt.Errorf("event loop failed: %w", loopErr)
	}

	logger.Info("notification dismissed",
		"reason", reason.String(),
		"outputs", res.Outputs,
		"windows", res.Windows,
		"size", fmt.Sprintf("%dx%d", buf.Width, buf.Height),
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// session tracks every display resource of a single notification so that
// teardown can release all of them exactly once on any exit path.
type session struct {
	disp         Display
	logger       *slog.Logger
	image        ImageID
	hasImage     bool
	windows      *windowSet
	grabs        grabState
	displayUntil time.Time
	done         bool
}

// teardown releases grabs, then the image, waits out the minimum visible
// time, destroys the windows and synchronizes with the server.
func (s *session) teardown() {
	if s.done {
		return
	}
	s.done = true

	s.grabs.release(s.disp)

	if s.hasImage {
		s.disp.DestroyImage(s.image)
		s.hasImage = false
	}

	if !s.displayUntil.IsZero() {
		if wait := time.Until(s.displayUntil); wait > 0 {
			time.Sleep(wait)
		}
	}

	if s.windows != nil {
		s.windows.destroy()
	}

	if err := s.disp.Sync(); err != nil {
		s.logger.Warn("display sync failed", "error", err)
	}
	s.disp.DrainEvents()
}
