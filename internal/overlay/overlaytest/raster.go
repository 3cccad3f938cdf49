package overlaytest

import (
	"github.com/1broseidon/flashnote/internal/raster"
)

// Rasterizer returns a blank buffer of a fixed size for any text.
type Rasterizer struct {
	Width  int
	Height int
	Err    error

	Texts []string
}

func (r *Rasterizer) Rasterize(text string) (*raster.Buffer, error) {
	r.Texts = append(r.Texts, text)
	if r.Err != nil {
		return nil, r.Err
	}
	return raster.NewBuffer(r.Width, r.Height)
}
