package overlay

import "fmt"

// Rect is a rectangle in root window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Region is the position and size of one physical output.
type Region = Rect

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Placement centers a width x height box within region. The result is not
// clamped: a box larger than the region gets a negative offset.
func Placement(region Region, width, height int) Rect {
	return Rect{
		X:      region.X + region.Width/2 - width/2,
		Y:      region.Y + region.Height/2 - height/2,
		Width:  width,
		Height: height,
	}
}
