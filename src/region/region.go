package region

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrDegenerate is returned for rectangles with zero or negative extent.
	ErrDegenerate = errors.New("degenerate rectangle")
	// ErrInvalidDisplay is returned when a display geometry has no area.
	ErrInvalidDisplay = errors.New("invalid display geometry")
)

// Point is an integer position local to one display's overlay surface.
type Point struct {
	X int
	Y int
}

// Rect is a capture rectangle. Committed rectangles are always expressed in
// global virtual-desktop coordinates, so X and Y may be negative when a
// display sits left of or above the primary display.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Image converts r to an image.Rectangle in the same coordinate space.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Overlaps reports whether r and o share at least one pixel.
func (r Rect) Overlaps(o Rect) bool {
	return r.Image().Overlaps(o.Image())
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// FromImage converts an image.Rectangle into a Rect.
func FromImage(b image.Rectangle) Rect {
	b = b.Canon()
	return Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
}

// BoundingBox returns the axis-aligned box spanned by a and b. The result is
// the same whichever corner the drag started from.
func BoundingBox(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(a.X - b.X),
		Height: abs(a.Y - b.Y),
	}
}

// Display is the placement of one physical monitor inside the virtual desktop.
type Display struct {
	Index   int
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// Origin returns the display's top-left corner in global coordinates.
func (d Display) Origin() Point { return Point{X: d.X, Y: d.Y} }

// Bounds returns the display extent in global coordinates.
func (d Display) Bounds() Rect { return Rect{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height} }

// Validate returns ErrInvalidDisplay when the display has no area.
func (d Display) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: display %d is %dx%d", ErrInvalidDisplay, d.Index, d.Width, d.Height)
	}
	return nil
}

// ClampLocal pins p inside [0, Width) x [0, Height).
func (d Display) ClampLocal(p Point) Point {
	return Point{X: clamp(p.X, 0, d.Width-1), Y: clamp(p.Y, 0, d.Height-1)}
}

// ToGlobal translates a display-local rectangle into virtual-desktop space.
func (d Display) ToGlobal(local Rect) Rect { return local.Translate(d.X, d.Y) }

// ToLocal translates a global point onto the display's surface.
func (d Display) ToLocal(global Point) Point {
	return Point{X: global.X - d.X, Y: global.Y - d.Y}
}

// DefaultFor returns the startup capture rectangle: the whole display.
func DefaultFor(d Display) Rect {
	return d.ToGlobal(Rect{X: 0, Y: 0, Width: d.Width, Height: d.Height})
}

// Union returns the bounding box of all displays. It is empty when ds is.
func Union(ds []Display) Rect {
	if len(ds) == 0 {
		return Rect{}
	}
	u := ds[0].Bounds().Image()
	for _, d := range ds[1:] {
		u = u.Union(d.Bounds().Image())
	}
	return FromImage(u)
}

// Primary picks the display flagged primary, falling back to the first one.
func Primary(ds []Display) (Display, bool) {
	for _, d := range ds {
		if d.Primary {
			return d, true
		}
	}
	if len(ds) == 0 {
		return Display{}, false
	}
	return ds[0], true
}

// Find returns the display with the given index.
func Find(ds []Display, index int) (Display, bool) {
	for _, d := range ds {
		if d.Index == index {
			return d, true
		}
	}
	return Display{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
