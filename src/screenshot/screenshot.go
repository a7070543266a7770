package screenshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"

	"flash-insight/src/region"
)

// AnyDisplay lets Grab accept a rectangle on any attached display.
const AnyDisplay = -1

var (
	// ErrNoDisplays is returned when display enumeration finds nothing.
	ErrNoDisplays = errors.New("no active displays found")
	// ErrOffDisplay is returned for rectangles that miss the target display.
	ErrOffDisplay = errors.New("capture region is off-display")
)

// Seams over kbinani/screenshot so tests can run headless.
var (
	numActiveDisplays = screenshot.NumActiveDisplays
	getDisplayBounds  = screenshot.GetDisplayBounds
	captureRect       = screenshot.CaptureRect
)

// Grabber returns the pixels of a global rectangle.
type Grabber interface {
	Grab(ctx context.Context, r region.Rect, display int) (*image.RGBA, error)
}

// DisplaySource enumerates attached displays.
type DisplaySource interface {
	Displays() ([]region.Display, error)
}

// Screen is the real Grabber and DisplaySource.
type Screen struct{}

func (Screen) Displays() ([]region.Display, error) { return Displays() }

func (Screen) Grab(ctx context.Context, r region.Rect, display int) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Grab(r, display)
}

// Displays lists the active displays in enumeration order. Display 0 is the
// primary display.
func Displays() ([]region.Display, error) {
	n := numActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}
	out := make([]region.Display, 0, n)
	for i := 0; i < n; i++ {
		b := getDisplayBounds(i)
		out = append(out, region.Display{
			Index:   i,
			X:       b.Min.X,
			Y:       b.Min.Y,
			Width:   b.Dx(),
			Height:  b.Dy(),
			Primary: i == 0,
		})
	}
	return out, nil
}

// GetDisplayBounds returns the bounds of the primary display
func GetDisplayBounds() (region.Display, error) {
	ds, err := Displays()
	if err != nil {
		return region.Display{}, err
	}
	d, _ := region.Primary(ds)
	return d, nil
}

// Capture captures the entire virtual screen across all active displays
func Capture() (*image.RGBA, error) {
	ds, err := Displays()
	if err != nil {
		return nil, err
	}
	return captureRect(region.Union(ds).Image())
}

// CaptureDisplay captures one whole display, used as the overlay backdrop.
func CaptureDisplay(d region.Display) (*image.RGBA, error) {
	return captureRect(d.Bounds().Image())
}

// Grab captures r, which must overlap the given display (or any display when
// display is AnyDisplay). The returned image is exactly r.Width x r.Height.
func Grab(r region.Rect, display int) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("invalid capture area dimensions: width=%d, height=%d: %w", r.Width, r.Height, region.ErrDegenerate)
	}

	ds, err := Displays()
	if err != nil {
		return nil, err
	}
	if err := checkOnDisplay(r, ds, display); err != nil {
		return nil, err
	}

	img, err := captureRect(r.Image())
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, errors.New("captured image is empty")
	}
	if img.Bounds().Dx() != r.Width || img.Bounds().Dy() != r.Height {
		return nil, fmt.Errorf("captured %dx%d, expected %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), r.Width, r.Height)
	}
	return img, nil
}

// CaptureRegion captures r on any display and encodes it as PNG.
func CaptureRegion(r region.Rect) ([]byte, error) {
	img, err := Grab(r, AnyDisplay)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func checkOnDisplay(r region.Rect, ds []region.Display, display int) error {
	if display == AnyDisplay {
		for _, d := range ds {
			if r.Overlaps(d.Bounds()) {
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrOffDisplay, r)
	}
	d, ok := region.Find(ds, display)
	if !ok {
		return fmt.Errorf("%w: display %d not found", ErrOffDisplay, display)
	}
	if !r.Overlaps(d.Bounds()) {
		return fmt.Errorf("%w: %s outside display %d %s", ErrOffDisplay, r, display, d.Bounds())
	}
	return nil
}
