// Package selection turns a press/drag/release gesture on one display's
// overlay into a capture rectangle in virtual-desktop coordinates.
//
// A Session holds no window or OS resources. Overlay drivers feed it
// display-local points and render whatever Frame it reports through its
// Observer, so the gesture logic runs the same with or without a screen.
package selection

import (
	"errors"
	"fmt"

	"flash-insight/src/region"
)

var (
	// ErrNotActive is returned by Release when no drag is in progress.
	ErrNotActive = errors.New("selection: no drag in progress")
	// ErrFinished is returned when a released or cancelled session is reused.
	ErrFinished = errors.New("selection: session already finished")
)

// Frame is the live feedback for one redraw, in display-local pixels.
type Frame struct {
	Rect  region.Rect
	Label string
}

// Observer consumes session state changes. Redraw is called after every
// press and move; Restore after cancel so the presentation layer can return
// to its pre-selection state.
type Observer interface {
	Redraw(Frame)
	Restore()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnRedraw  func(Frame)
	OnRestore func()
}

func (o ObserverFuncs) Redraw(f Frame) {
	if o.OnRedraw != nil {
		o.OnRedraw(f)
	}
}

func (o ObserverFuncs) Restore() {
	if o.OnRestore != nil {
		o.OnRestore()
	}
}

// Option configures a Session.
type Option func(*Session)

// WithMinSpan treats selections whose width or height is at most n pixels as
// degenerate, so a stray click does not replace the capture region. The
// default of 0 only rejects zero-area selections.
func WithMinSpan(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.minSpan = n
		}
	}
}

// Session is one interactive selection bound to a single display.
type Session struct {
	display  region.Display
	observer Observer
	minSpan  int
	start    *region.Point
	current  *region.Point
	active   bool
	finished bool
}

// Begin creates an idle session for display. obs may be nil.
func Begin(display region.Display, obs Observer, opts ...Option) (*Session, error) {
	if err := display.Validate(); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = ObserverFuncs{}
	}
	s := &Session{display: display, observer: obs}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Display returns the geometry the session is bound to.
func (s *Session) Display() region.Display { return s.display }

// Active reports whether a drag is in progress.
func (s *Session) Active() bool { return s.active }

// Finished reports whether the session was released or cancelled.
func (s *Session) Finished() bool { return s.finished }

// Press starts (or restarts) a drag at p. Points outside the display are
// pinned to its edge.
func (s *Session) Press(p region.Point) error {
	if s.finished {
		return ErrFinished
	}
	p = s.display.ClampLocal(p)
	start, current := p, p
	s.start = &start
	s.current = &current
	s.active = true
	s.observer.Redraw(s.frame())
	return nil
}

// Move updates the drag end point. It is a no-op unless a drag is active.
func (s *Session) Move(p region.Point) {
	if !s.active {
		return
	}
	p = s.display.ClampLocal(p)
	s.current = &p
	s.observer.Redraw(s.frame())
}

// Release ends the drag and returns the selected rectangle in global
// coordinates. A zero-width or zero-height selection, or one within the
// configured minimum span, yields region.ErrDegenerate and must be discarded
// by the caller. Either way the session is finished afterwards.
func (s *Session) Release() (region.Rect, error) {
	if s.finished {
		return region.Rect{}, ErrFinished
	}
	if !s.active {
		return region.Rect{}, ErrNotActive
	}
	s.active = false
	s.finished = true

	local := region.BoundingBox(*s.start, *s.current)
	if local.Empty() || local.Width <= s.minSpan || local.Height <= s.minSpan {
		return region.Rect{}, fmt.Errorf("%w: %dx%d selection", region.ErrDegenerate, local.Width, local.Height)
	}
	return s.display.ToGlobal(local), nil
}

// Cancel discards any drag in progress. It is always legal.
func (s *Session) Cancel() {
	s.start = nil
	s.current = nil
	s.active = false
	s.finished = true
	s.observer.Restore()
}

// Current returns the live local rectangle, if a drag is in progress.
func (s *Session) Current() (region.Rect, bool) {
	if !s.active {
		return region.Rect{}, false
	}
	return region.BoundingBox(*s.start, *s.current), true
}

func (s *Session) frame() Frame {
	r := region.BoundingBox(*s.start, *s.current)
	return Frame{Rect: r, Label: Label(r)}
}

// Label formats the pixel dimensions shown next to the rubber band.
func Label(r region.Rect) string {
	return fmt.Sprintf("%d × %d", r.Width, r.Height)
}
