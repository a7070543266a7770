package selection

import (
	"context"
	"errors"

	"flash-insight/src/region"
)

// InputKind enumerates the gesture events an overlay driver can emit.
type InputKind int

const (
	InputPress InputKind = iota
	InputMove
	InputRelease
	InputCancel
)

func (k InputKind) String() string {
	switch k {
	case InputPress:
		return "press"
	case InputMove:
		return "move"
	case InputRelease:
		return "release"
	case InputCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Input is one gesture event. Point is display-local and ignored for
// InputCancel. A release carries the final pointer position, which is
// applied as a move before the session is released.
type Input struct {
	Kind  InputKind
	Point region.Point
}

// Drive feeds events into s until the gesture completes. It returns the
// committed rectangle, or cancelled=true when the user cancels, the event
// stream closes, or ctx ends. Releases without a preceding press are ignored.
func Drive(ctx context.Context, s *Session, events <-chan Input) (region.Rect, bool, error) {
	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			return region.Rect{}, true, nil
		case ev, ok := <-events:
			if !ok {
				s.Cancel()
				return region.Rect{}, true, nil
			}
			switch ev.Kind {
			case InputPress:
				if err := s.Press(ev.Point); err != nil {
					return region.Rect{}, false, err
				}
			case InputMove:
				s.Move(ev.Point)
			case InputRelease:
				s.Move(ev.Point)
				rect, err := s.Release()
				if errors.Is(err, ErrNotActive) {
					continue
				}
				if err != nil {
					return region.Rect{}, false, err
				}
				return rect, false, nil
			case InputCancel:
				s.Cancel()
				return region.Rect{}, true, nil
			}
		}
	}
}
