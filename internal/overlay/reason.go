package overlay

// DismissReason records what ended the display loop. Every reason leads to
// the same teardown.
type DismissReason int

const (
	KeyPressed DismissReason = iota
	PointerMoved
	TimedOut
)

func (r DismissReason) String() string {
	switch r {
	case KeyPressed:
		return "key_pressed"
	case PointerMoved:
		return "pointer_moved"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r DismissReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
