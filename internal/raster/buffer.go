package raster

import "fmt"

// Buffer is a tightly packed ARGB32 image stored in little-endian byte
// order (B, G, R, A per pixel) with premultiplied alpha. Stride is always
// Width*4.
type Buffer struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewBuffer allocates a zeroed (fully transparent) buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid buffer size %dx%d", width, height)
	}
	stride := width * 4
	return &Buffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}, nil
}

// Row returns the bytes of row y.
func (b *Buffer) Row(y int) []byte {
	return b.Pix[y*b.Stride : (y+1)*b.Stride]
}

// Rows returns the contiguous bytes of rows [y0, y1).
func (b *Buffer) Rows(y0, y1 int) []byte {
	return b.Pix[y0*b.Stride : y1*b.Stride]
}

// SwapToMSBFirst returns a copy of the buffer with each pixel's byte order
// reversed (A, R, G, B), for servers whose image byte order is MSBFirst.
func (b *Buffer) SwapToMSBFirst() *Buffer {
	out := &Buffer{
		Width:  b.Width,
		Height: b.Height,
		Stride: b.Stride,
		Pix:    make([]byte, len(b.Pix)),
	}
	for i := 0; i+3 < len(b.Pix); i += 4 {
		out.Pix[i] = b.Pix[i+3]
		out.Pix[i+1] = b.Pix[i+2]
		out.Pix[i+2] = b.Pix[i+1]
		out.Pix[i+3] = b.Pix[i]
	}
	return out
}
