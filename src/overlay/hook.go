package overlay

import (
	"context"
	"log"

	hook "github.com/robotn/gohook"

	"flash-insight/src/region"
	"flash-insight/src/selection"
)

const hookLeftButton = 1

// EventSource delivers global input events. inputhook.Hub satisfies it.
type EventSource interface {
	Subscribe(fn func(hook.Event)) func()
}

// hookSelector drives a session from the global mouse hook. It draws
// nothing, so it suits the tray and run-once modes where no window exists.
type hookSelector struct {
	src  EventSource
	opts Options
}

func NewHook(src EventSource, opts Options) Selector {
	return &hookSelector{src: src, opts: opts}
}

func (h *hookSelector) Select(ctx context.Context, display region.Display) (region.Rect, bool, error) {
	sess, err := selection.Begin(display, selection.ObserverFuncs{
		OnRedraw: func(f selection.Frame) { log.Printf("HOOK OVERLAY: %s at %s", f.Label, f.Rect) },
	}, h.opts.sessionOptions()...)
	if err != nil {
		return region.Rect{}, false, err
	}

	events := make(chan selection.Input, 64)
	done := make(chan struct{})
	defer close(done)

	unsubscribe := h.src.Subscribe(func(ev hook.Event) {
		in, ok := hookInput(ev, display)
		if !ok {
			return
		}
		if in.Kind == selection.InputMove {
			select {
			case events <- in:
			default:
			}
			return
		}
		select {
		case events <- in:
		case <-done:
		}
	})
	defer unsubscribe()

	log.Printf("HOOK OVERLAY: drag with the left button on display %d, ESC cancels", display.Index)
	return selection.Drive(ctx, sess, events)
}

// hookInput translates a global hook event into a display-local gesture input.
// Kinds are raw libuiohook ids: MouseDown (7) is the press and MouseHold (8)
// the release. MouseUp (6) is the click reported after a release and is ignored.
func hookInput(ev hook.Event, d region.Display) (selection.Input, bool) {
	p := d.ToLocal(region.Point{X: int(ev.X), Y: int(ev.Y)})
	switch ev.Kind {
	case hook.MouseDown:
		if ev.Button != hookLeftButton {
			return selection.Input{}, false
		}
		return selection.Input{Kind: selection.InputPress, Point: p}, true
	case hook.MouseDrag:
		return selection.Input{Kind: selection.InputMove, Point: p}, true
	case hook.MouseHold:
		if ev.Button != hookLeftButton {
			return selection.Input{}, false
		}
		return selection.Input{Kind: selection.InputRelease, Point: p}, true
	case hook.KeyDown, hook.KeyHold:
		if ev.Keycode == hook.Keycode["esc"] {
			return selection.Input{Kind: selection.InputCancel}, true
		}
	}
	return selection.Input{}, false
}
