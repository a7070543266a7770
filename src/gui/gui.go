// Package gui is the desktop window: capture area fields, a live preview,
// and the Select Area / Process buttons.
package gui

import (
	"errors"
	"fmt"
	"image"
	"log"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"flash-insight/src/eventloop"
	"flash-insight/src/insight"
	"flash-insight/src/llm"
	"flash-insight/src/logutil"
	"flash-insight/src/region"
)

const (
	statusReady      = "Ready to process"
	statusProcessing = "Processing..."
	statusDone       = "Processing complete"
	statusFailed     = "Error occurred"
)

// Requester is the part of the event loop the window drives.
type Requester interface {
	RequestSelect() bool
	RequestCapture() bool
	RequestEdit(r region.Rect) bool
}

// Window implements eventloop.Presenter on top of a fyne window.
type Window struct {
	win   fyne.Window
	store *region.Store
	loop  Requester
	// do runs fn on the fyne goroutine.
	do func(fn func())

	left, top, width, height *widget.Entry
	syncing                  bool

	preview    *canvas.Image
	previewMsg *widget.Label
	selectBtn  *widget.Button
	processBtn *widget.Button
	result     *widget.Entry
	status     *widget.Label

	unsubscribe func()
}

var _ eventloop.Presenter = (*Window)(nil)

// New builds the window. The loop may be attached later with Attach, since
// the loop itself needs the window as its presenter.
func New(app fyne.App, store *region.Store) *Window {
	w := &Window{
		win:   app.NewWindow("Flash Insight"),
		store: store,
		do:    fyne.Do,
	}
	w.build()
	w.showRect(store.Get())
	w.unsubscribe = store.Subscribe(func(r region.Rect) {
		w.do(func() { w.showRect(r) })
	})
	w.win.SetOnClosed(w.unsubscribe)
	return w
}

// Attach connects the window's controls to the event loop.
func (w *Window) Attach(loop Requester) { w.loop = loop }

// Window exposes the underlying fyne window.
func (w *Window) Window() fyne.Window { return w.win }

func (w *Window) build() {
	w.left = w.numberEntry()
	w.top = w.numberEntry()
	w.width = w.numberEntry()
	w.height = w.numberEntry()

	area := widget.NewCard("Capture Area", "", container.NewGridWithColumns(4,
		widget.NewLabel("Left:"), w.left,
		widget.NewLabel("Top:"), w.top,
		widget.NewLabel("Width:"), w.width,
		widget.NewLabel("Height:"), w.height,
	))

	w.preview = canvas.NewImageFromImage(nil)
	w.preview.FillMode = canvas.ImageFillContain
	w.preview.SetMinSize(fyne.NewSize(300, 200))
	w.previewMsg = widget.NewLabel("")
	w.previewMsg.Wrapping = fyne.TextWrapWord
	previewCard := widget.NewCard("Preview", "", container.NewStack(w.preview, w.previewMsg))

	w.selectBtn = widget.NewButton("Select Area", w.onSelect)
	w.processBtn = widget.NewButton("Process", w.onProcess)
	w.processBtn.Importance = widget.HighImportance

	w.result = widget.NewMultiLineEntry()
	w.result.SetPlaceHolder("Answer will appear here...")
	w.result.Wrapping = fyne.TextWrapWord
	w.result.Disable()

	w.status = widget.NewLabel(statusReady)

	intro := widget.NewLabel("Adjust the capture area below to match your content.\nThe preview will update automatically.")
	content := container.NewVBox(
		widget.NewLabelWithStyle("Flash Insight", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		intro,
		area,
		previewCard,
		container.NewGridWithColumns(2, w.selectBtn, w.processBtn),
		w.result,
		w.status,
	)
	w.win.SetContent(container.NewPadded(content))
	w.win.SetMaster()
	w.win.Resize(fyne.NewSize(600, 800))
}

func (w *Window) numberEntry() *widget.Entry {
	e := widget.NewEntry()
	e.OnSubmitted = func(string) { w.commitEdit() }
	return e
}

func (w *Window) onSelect() {
	if w.loop == nil || !w.loop.RequestSelect() {
		w.setStatus("Busy, please retry")
	}
}

func (w *Window) onProcess() {
	if w.loop == nil || !w.loop.RequestCapture() {
		w.setStatus("Busy, please retry")
	}
}

// commitEdit parses the four fields and posts them as a manual edit. The
// store echoes the clamped value back through the subscription.
func (w *Window) commitEdit() {
	if w.syncing {
		return
	}
	r, err := parseRect(w.left.Text, w.top.Text, w.width.Text, w.height.Text)
	if err != nil {
		w.setStatus(err.Error())
		w.showRect(w.store.Get())
		return
	}
	if w.loop == nil || !w.loop.RequestEdit(r) {
		w.setStatus("Busy, please retry")
	}
}

func (w *Window) showRect(r region.Rect) {
	w.syncing = true
	defer func() { w.syncing = false }()
	w.left.SetText(strconv.Itoa(r.X))
	w.top.SetText(strconv.Itoa(r.Y))
	w.width.SetText(strconv.Itoa(r.Width))
	w.height.SetText(strconv.Itoa(r.Height))
}

func (w *Window) setStatus(s string) { w.status.SetText(s) }

// ShowPreview is the preview.Sink for the window.
func (w *Window) ShowPreview(img *image.RGBA, r region.Rect, err error) {
	w.do(func() {
		if err != nil {
			w.preview.Image = nil
			w.preview.Refresh()
			w.previewMsg.SetText(fmt.Sprintf("Preview error: %v", err))
			return
		}
		w.previewMsg.SetText("")
		w.preview.Image = img
		w.preview.Refresh()
	})
}

func (w *Window) SelectionStarted() {
	w.do(func() {
		w.selectBtn.Disable()
		w.win.Hide()
	})
}

func (w *Window) SelectionEnded(r region.Rect, committed bool) {
	w.do(func() {
		w.selectBtn.Enable()
		w.win.Show()
		if committed {
			w.setStatus(fmt.Sprintf("Area set to %s", r))
		}
	})
}

func (w *Window) Busy(busy bool) {
	w.do(func() {
		if busy {
			w.processBtn.Disable()
			w.setStatus(statusProcessing)
			return
		}
		w.processBtn.Enable()
	})
}

func (w *Window) Answer(text string) {
	log.Printf("GUI: answer %q", logutil.SanitizeForLog(text))
	w.do(func() {
		w.result.SetText(text)
		w.setStatus(statusDone)
	})
}

func (w *Window) Failure(err error) {
	msg := Describe(err)
	w.do(func() {
		if errors.Is(err, eventloop.ErrBusy) {
			w.setStatus(msg)
			return
		}
		w.result.SetText("Error: " + msg)
		w.setStatus(statusFailed)
	})
}

func (w *Window) Notice(msg string) {
	w.do(func() { w.setStatus(msg) })
}

// Describe phrases an error for the user according to where it came from.
func Describe(err error) string {
	var capErr *insight.CaptureError
	var oraErr *insight.OracleError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, eventloop.ErrBusy):
		return "Busy, please retry"
	case errors.Is(err, region.ErrDegenerate):
		return "Selection too small, area unchanged"
	case errors.Is(err, llm.ErrEmptyAnswer):
		return "The model returned an empty answer"
	case errors.Is(err, llm.ErrNotConfigured):
		return "No API key configured"
	case errors.As(err, &capErr):
		return fmt.Sprintf("Screen capture failed: %v", capErr.Err)
	case errors.As(err, &oraErr):
		return fmt.Sprintf("Model request failed: %v", oraErr.Err)
	default:
		return err.Error()
	}
}

func parseRect(x, y, w, h string) (region.Rect, error) {
	vals := make([]int, 4)
	for i, field := range []struct{ name, text string }{
		{"Left", x}, {"Top", y}, {"Width", w}, {"Height", h},
	} {
		v, err := strconv.Atoi(strings.TrimSpace(field.text))
		if err != nil {
			return region.Rect{}, fmt.Errorf("%s must be a whole number", field.name)
		}
		vals[i] = v
	}
	r := region.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if r.Width <= 0 || r.Height <= 0 {
		return region.Rect{}, fmt.Errorf("width and height must be positive")
	}
	return r, nil
}
