// Package raster renders notification text into pixel buffers suitable for
// blitting into X11 windows.
package raster

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FontDescription describes the hard-coded faces: a primary font and a
// fallback used for runes the primary cannot render.
const FontDescription = "Go Regular 100px, Go Mono 100px"

// DefaultSize is the pixel size used by the daemon.
const DefaultSize = 100

// MaxDimension is the largest width or height of a rendered buffer. X11
// window, pixmap and image coordinates are 16-bit signed.
const MaxDimension = 32767

// MaxPixels bounds the area of a rendered buffer.
const MaxPixels = 1 << 24

const tabWidth = 4

var (
	// ErrEmptyText is returned when asked to rasterize an empty string.
	ErrEmptyText = errors.New("text is empty")
	// ErrTooLarge is returned when the laid-out text would not fit in a
	// buffer of at most MaxDimension per side and MaxPixels in area.
	ErrTooLarge = errors.New("text too large to display")
)

type face struct {
	name string
	font *opentype.Font
	face font.Face
	buf  sfnt.Buffer
}

func (f *face) hasGlyph(r rune) bool {
	idx, err := f.font.GlyphIndex(&f.buf, r)
	return err == nil && idx != 0
}

// Rasterizer lays out text with a primary face and a per-rune fallback face.
// Safe for concurrent use.
type Rasterizer struct {
	mu         sync.Mutex
	faces      []*face
	ascent     int
	lineHeight int
}

// New loads the built-in faces at the given pixel size.
func New(size float64) (*Rasterizer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}

	primary, err := loadFace("Go Regular", goregular.TTF, size)
	if err != nil {
		return nil, err
	}
	fallback, err := loadFace("Go Mono", gomono.TTF, size)
	if err != nil {
		primary.face.Close()
		return nil, err
	}

	r := &Rasterizer{faces: []*face{primary, fallback}}
	descent := 0
	for _, f := range r.faces {
		m := f.face.Metrics()
		r.ascent = max(r.ascent, m.Ascent.Ceil())
		descent = max(descent, m.Descent.Ceil())
		r.lineHeight = max(r.lineHeight, m.Height.Ceil())
	}
	r.lineHeight = max(r.lineHeight, r.ascent+descent)
	return r, nil
}

func loadFace(name string, ttf []byte, size float64) (*face, error) {
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	ff, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s face: %w", name, err)
	}
	return &face{name: name, font: parsed, face: ff}, nil
}

// Close releases the font faces.
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, f := range r.faces {
		errs = append(errs, f.face.Close())
	}
	return errors.Join(errs...)
}

// LineHeight returns the height in pixels of a single laid-out line.
func (r *Rasterizer) LineHeight() int {
	return r.lineHeight
}

// Rasterize renders text as white glyphs on a transparent background. The
// returned buffer is fitted to the logical extents of the laid-out text:
// the widest line's advance by one line height per line. Text whose extents
// exceed MaxDimension or MaxPixels fails with ErrTooLarge before any pixel
// memory is allocated.
func (r *Rasterizer) Rasterize(text string) (*Buffer, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lines := splitLines(text)
	if len(lines) > MaxDimension/r.lineHeight {
		return nil, fmt.Errorf("%w: %d lines exceed %dpx", ErrTooLarge, len(lines), MaxDimension)
	}
	height := max(len(lines)*r.lineHeight, 1)

	laidOut := make([][]run, len(lines))
	width := 0
	for i, line := range lines {
		laidOut[i] = r.runs(line)
		if exceedsWidth(laidOut[i], MaxDimension) {
			return nil, fmt.Errorf("%w: line %d is wider than %dpx", ErrTooLarge, i+1, MaxDimension)
		}
		width = max(width, measure(laidOut[i]).Ceil())
	}
	if width > MaxDimension {
		return nil, fmt.Errorf("%w: text is wider than %dpx", ErrTooLarge, MaxDimension)
	}
	width = max(width, 1)
	if width*height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, width, height, MaxPixels)
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	for i, runs := range laidOut {
		d := font.Drawer{
			Dst: mask,
			Src: image.Opaque,
			Dot: fixed.P(0, i*r.lineHeight+r.ascent),
		}
		for _, rn := range runs {
			d.Face = rn.face
			d.DrawString(rn.text)
		}
	}

	buf, err := NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		src := mask.Pix[y*mask.Stride : y*mask.Stride+width]
		dst := buf.Row(y)
		for x, a := range src {
			// White premultiplied by coverage.
			dst[x*4] = a
			dst[x*4+1] = a
			dst[x*4+2] = a
			dst[x*4+3] = a
		}
	}
	return buf, nil
}

type run struct {
	face font.Face
	text string
}

// runs splits a line into maximal spans rendered by the same face.
func (r *Rasterizer) runs(line string) []run {
	var out []run
	var sb strings.Builder
	var current *face
	for _, ch := range line {
		f := r.faceFor(ch)
		if current != nil && f != current {
			out = append(out, run{face: current.face, text: sb.String()})
			sb.Reset()
		}
		current = f
		sb.WriteRune(ch)
	}
	if current != nil && sb.Len() > 0 {
		out = append(out, run{face: current.face, text: sb.String()})
	}
	return out
}

func (r *Rasterizer) faceFor(ch rune) *face {
	for _, f := range r.faces {
		if f.hasGlyph(ch) {
			return f
		}
	}
	// Nothing covers it; the primary face draws its .notdef box.
	return r.faces[0]
}

func measure(runs []run) fixed.Int26_6 {
	var total fixed.Int26_6
	for _, rn := range runs {
		total += font.MeasureString(rn.face, rn.text)
	}
	return total
}

// measureChunk bounds the runes measured at once so that a single
// MeasureString result stays far below the 26.6 fixed-point range.
const measureChunk = 256

// exceedsWidth reports whether runs are wider than limit pixels. It sums in
// int64 and stops early, so arbitrarily long lines cannot overflow.
func exceedsWidth(runs []run, limit int) bool {
	var total int64
	for _, rn := range runs {
		text := []rune(rn.text)
		for len(text) > 0 {
			n := min(len(text), measureChunk)
			total += int64(font.MeasureString(rn.face, string(text[:n])).Ceil())
			if total > int64(limit) {
				return true
			}
			text = text[n:]
		}
	}
	return false
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
	return strings.Split(text, "\n")
}
