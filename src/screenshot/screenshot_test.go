package screenshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flash-insight/src/region"
)

// fakeDesktop installs two displays side by side, the secondary left of the
// primary, and records the rectangles handed to the capture call.
func fakeDesktop(t *testing.T) *[]image.Rectangle {
	t.Helper()
	bounds := []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(-1920, 0, 0, 1080),
	}
	var captured []image.Rectangle

	prevNum, prevBounds, prevCapture := numActiveDisplays, getDisplayBounds, captureRect
	numActiveDisplays = func() int { return len(bounds) }
	getDisplayBounds = func(i int) image.Rectangle { return bounds[i] }
	captureRect = func(r image.Rectangle) (*image.RGBA, error) {
		captured = append(captured, r)
		return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
	}
	t.Cleanup(func() {
		numActiveDisplays, getDisplayBounds, captureRect = prevNum, prevBounds, prevCapture
	})
	return &captured
}

func TestDisplaysMarksPrimary(t *testing.T) {
	fakeDesktop(t)
	ds, err := Displays()
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.True(t, ds[0].Primary)
	assert.False(t, ds[1].Primary)
	assert.Equal(t, region.Display{Index: 1, X: -1920, Y: 0, Width: 1920, Height: 1080}, ds[1])
}

func TestDisplaysNone(t *testing.T) {
	fakeDesktop(t)
	numActiveDisplays = func() int { return 0 }
	_, err := Displays()
	assert.True(t, errors.Is(err, ErrNoDisplays))
}

func TestGrabRejectsDegenerate(t *testing.T) {
	fakeDesktop(t)
	_, err := Grab(region.Rect{X: 0, Y: 0, Width: 0, Height: 10}, AnyDisplay)
	assert.True(t, errors.Is(err, region.ErrDegenerate))
}

func TestGrabUsesGlobalCoordinates(t *testing.T) {
	captured := fakeDesktop(t)
	img, err := Grab(region.Rect{X: -1500, Y: 20, Width: 300, Height: 40}, 1)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
	require.Len(t, *captured, 1)
	assert.Equal(t, image.Rect(-1500, 20, -1200, 60), (*captured)[0])
}

func TestGrabRejectsOffDisplay(t *testing.T) {
	fakeDesktop(t)
	_, err := Grab(region.Rect{X: 5000, Y: 5000, Width: 10, Height: 10}, AnyDisplay)
	assert.True(t, errors.Is(err, ErrOffDisplay))

	_, err = Grab(region.Rect{X: 10, Y: 10, Width: 10, Height: 10}, 1)
	assert.True(t, errors.Is(err, ErrOffDisplay), "rect on primary, target secondary")

	_, err = Grab(region.Rect{X: 10, Y: 10, Width: 10, Height: 10}, 7)
	assert.True(t, errors.Is(err, ErrOffDisplay))
}

func TestGrabRejectsSizeMismatch(t *testing.T) {
	fakeDesktop(t)
	captureRect = func(r image.Rectangle) (*image.RGBA, error) {
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	}
	_, err := Grab(region.Rect{X: 0, Y: 0, Width: 10, Height: 10}, 0)
	assert.Error(t, err)
}

func TestScreenGrabHonoursContext(t *testing.T) {
	fakeDesktop(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Screen{}.Grab(ctx, region.Rect{Width: 10, Height: 10}, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCaptureRegionEncodesPNG(t *testing.T) {
	fakeDesktop(t)
	data, err := CaptureRegion(region.Rect{X: 100, Y: 100, Width: 12, Height: 8})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
}

func TestCaptureSpansUnion(t *testing.T) {
	captured := fakeDesktop(t)
	_, err := Capture()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(-1920, 0, 1920, 1080), (*captured)[0])
}
