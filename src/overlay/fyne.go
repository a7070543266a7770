package overlay

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"flash-insight/src/region"
	"flash-insight/src/selection"
)

var (
	bandStroke = color.NRGBA{R: 0xff, G: 0x30, B: 0x30, A: 0xff}
	bandFill   = color.NRGBA{R: 0xff, G: 0x30, B: 0x30, A: 0x20}
	hintColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
)

const overlayHint = "Drag to select an area, ESC cancels"

// fyneSelector shows a full-screen window with a still of the display and
// lets the user drag a rubber band over it.
type fyneSelector struct {
	app  fyne.App
	opts Options
}

// NewFyne returns a Selector backed by a fyne window. Select must not be
// called from the fyne main goroutine.
func NewFyne(app fyne.App, opts Options) Selector {
	return &fyneSelector{app: app, opts: opts.withDefaults()}
}

func (f *fyneSelector) Select(ctx context.Context, display region.Display) (region.Rect, bool, error) {
	var area *selectArea
	sess, err := selection.Begin(display, selection.ObserverFuncs{
		OnRedraw:  func(fr selection.Frame) { fyne.Do(func() { area.setFrame(&fr) }) },
		OnRestore: func() { fyne.Do(func() { area.setFrame(nil) }) },
	}, f.opts.sessionOptions()...)
	if err != nil {
		return region.Rect{}, false, err
	}

	bg, err := f.opts.Backdrop(display)
	if err != nil {
		return region.Rect{}, false, fmt.Errorf("overlay backdrop: %w", err)
	}

	events := make(chan selection.Input, 64)
	done := make(chan struct{})
	send := func(in selection.Input) {
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
	}

	var win fyne.Window
	fyne.DoAndWait(func() {
		area = newSelectArea(display, bg, send)
		win = f.app.NewWindow("Select area")
		win.SetPadded(false)
		win.SetContent(area)
		win.Canvas().SetOnTypedKey(func(k *fyne.KeyEvent) {
			if k.Name == fyne.KeyEscape {
				send(selection.Input{Kind: selection.InputCancel})
			}
		})
		win.SetCloseIntercept(func() { send(selection.Input{Kind: selection.InputCancel}) })
		win.SetFullScreen(true)
		win.Show()
		win.RequestFocus()
	})
	defer func() {
		close(done)
		fyne.Do(win.Close)
	}()

	log.Printf("OVERLAY: fyne overlay open for display %d %s", display.Index, display.Bounds())
	return selection.Drive(ctx, sess, events)
}

// selectArea renders the backdrop and rubber band and turns pointer events
// into display-local selection inputs.
type selectArea struct {
	widget.BaseWidget
	display  region.Display
	backdrop image.Image
	send     func(selection.Input)
	frame    *selection.Frame
	last     fyne.Position
}

var (
	_ desktop.Mouseable = (*selectArea)(nil)
	_ fyne.Draggable    = (*selectArea)(nil)
)

func newSelectArea(d region.Display, backdrop image.Image, send func(selection.Input)) *selectArea {
	a := &selectArea{display: d, backdrop: backdrop, send: send}
	a.ExtendBaseWidget(a)
	return a
}

func (a *selectArea) local(pos fyne.Position) region.Point {
	return canvasToLocal(pos, a.Size(), a.display)
}

func (a *selectArea) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	a.last = ev.Position
	a.send(selection.Input{Kind: selection.InputPress, Point: a.local(ev.Position)})
}

func (a *selectArea) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	a.send(selection.Input{Kind: selection.InputRelease, Point: a.local(ev.Position)})
}

func (a *selectArea) Dragged(ev *fyne.DragEvent) {
	a.last = ev.Position
	a.send(selection.Input{Kind: selection.InputMove, Point: a.local(ev.Position)})
}

func (a *selectArea) DragEnd() {
	a.send(selection.Input{Kind: selection.InputRelease, Point: a.local(a.last)})
}

func (a *selectArea) setFrame(f *selection.Frame) {
	a.frame = f
	a.Refresh()
}

func (a *selectArea) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewImageFromImage(a.backdrop)
	bg.FillMode = canvas.ImageFillStretch
	bg.ScaleMode = canvas.ImageScaleFastest

	band := canvas.NewRectangle(bandFill)
	band.StrokeColor = bandStroke
	band.StrokeWidth = 2
	band.Hide()

	label := canvas.NewText("", bandStroke)
	label.TextStyle = fyne.TextStyle{Bold: true}
	label.Hide()

	hint := canvas.NewText(overlayHint, hintColor)
	hint.Move(fyne.NewPos(16, 16))

	return &selectAreaRenderer{area: a, bg: bg, band: band, label: label, hint: hint}
}

type selectAreaRenderer struct {
	area  *selectArea
	bg    *canvas.Image
	band  *canvas.Rectangle
	label *canvas.Text
	hint  *canvas.Text
}

func (r *selectAreaRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.hint.Resize(r.hint.MinSize())
	r.placeBand(size)
}

func (r *selectAreaRenderer) placeBand(size fyne.Size) {
	f := r.area.frame
	if f == nil {
		r.band.Hide()
		r.label.Hide()
		return
	}
	pos, sz := localToCanvas(f.Rect, size, r.area.display)
	r.band.Move(pos)
	r.band.Resize(sz)
	r.band.Show()

	r.label.Text = f.Label
	r.label.Move(fyne.NewPos(pos.X, pos.Y+sz.Height+4))
	r.label.Resize(r.label.MinSize())
	r.label.Show()
}

func (r *selectAreaRenderer) MinSize() fyne.Size { return fyne.NewSize(1, 1) }

func (r *selectAreaRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.band, r.label, r.hint}
}

func (r *selectAreaRenderer) Refresh() {
	r.placeBand(r.area.Size())
	canvas.Refresh(r.area)
}

func (r *selectAreaRenderer) Destroy() {}

// canvasToLocal maps a position in canvas units to display pixels. The
// canvas stretches the display still, so the scale is per axis.
func canvasToLocal(pos fyne.Position, size fyne.Size, d region.Display) region.Point {
	sx, sy := scale(size, d)
	return region.Point{
		X: int(math.Round(float64(pos.X) * sx)),
		Y: int(math.Round(float64(pos.Y) * sy)),
	}
}

// localToCanvas maps a display-local rectangle back to canvas units.
func localToCanvas(r region.Rect, size fyne.Size, d region.Display) (fyne.Position, fyne.Size) {
	sx, sy := scale(size, d)
	return fyne.NewPos(float32(float64(r.X)/sx), float32(float64(r.Y)/sy)),
		fyne.NewSize(float32(float64(r.Width)/sx), float32(float64(r.Height)/sy))
}

func scale(size fyne.Size, d region.Display) (float64, float64) {
	if size.Width <= 0 || size.Height <= 0 || d.Width <= 0 || d.Height <= 0 {
		return 1, 1
	}
	return float64(d.Width) / float64(size.Width), float64(d.Height) / float64(size.Height)
}
