// Package overlay hosts the interactive drivers that feed a selection.Session.
package overlay

import (
	"context"
	"image"

	"flash-insight/src/region"
	"flash-insight/src/screenshot"
	"flash-insight/src/selection"
)

// Selector defines a synchronous region-selection API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop goroutine.
// Returns (rect, cancelled, error). If cancelled is true, rect is undefined and err is nil.
// A selection too small to use returns an error wrapping region.ErrDegenerate.
type Selector interface {
	Select(ctx context.Context, display region.Display) (region.Rect, bool, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, display region.Display) (region.Rect, bool, error)

func (f SelectorFunc) Select(ctx context.Context, display region.Display) (region.Rect, bool, error) {
	return f(ctx, display)
}

type Options struct {
	// MinSpan rejects selections at most this many pixels wide or tall.
	MinSpan int
	// Backdrop captures the display shown behind the rubber band.
	Backdrop func(region.Display) (*image.RGBA, error)
}

func (o Options) withDefaults() Options {
	if o.Backdrop == nil {
		o.Backdrop = screenshot.CaptureDisplay
	}
	return o
}

func (o Options) sessionOptions() []selection.Option {
	return []selection.Option{selection.WithMinSpan(o.MinSpan)}
}

// NewNative returns the platform's own overlay: a Win32 popup on Windows,
// the global input hook elsewhere.
func NewNative(opts Options) Selector {
	return newNativeSelector(opts.withDefaults())
}
