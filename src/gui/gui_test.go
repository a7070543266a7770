package gui

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flash-insight/src/eventloop"
	"flash-insight/src/insight"
	"flash-insight/src/llm"
	"flash-insight/src/region"
)

type fakeLoop struct {
	selects, captures int
	edits             []region.Rect
	full              bool
}

func (f *fakeLoop) RequestSelect() bool  { f.selects++; return !f.full }
func (f *fakeLoop) RequestCapture() bool { f.captures++; return !f.full }
func (f *fakeLoop) RequestEdit(r region.Rect) bool {
	f.edits = append(f.edits, r)
	return !f.full
}

func newTestWindow(t *testing.T) (*Window, *region.Store, *fakeLoop) {
	t.Helper()
	app := test.NewTempApp(t)
	store := region.NewStore(region.Rect{X: 0, Y: 110, Width: 340, Height: 670}, region.Rect{X: -1920, Y: 0, Width: 3840, Height: 1080})
	w := New(app, store)
	w.do = func(fn func()) { fn() }
	loop := &fakeLoop{}
	w.Attach(loop)
	return w, store, loop
}

func TestFieldsShowStoreValue(t *testing.T) {
	w, _, _ := newTestWindow(t)
	assert.Equal(t, "0", w.left.Text)
	assert.Equal(t, "110", w.top.Text)
	assert.Equal(t, "340", w.width.Text)
	assert.Equal(t, "670", w.height.Text)
}

func TestStoreChangesUpdateFields(t *testing.T) {
	w, store, loop := newTestWindow(t)
	require.NoError(t, store.Set(region.Rect{X: -1800, Y: 20, Width: 300, Height: 50}))

	assert.Equal(t, "-1800", w.left.Text)
	assert.Equal(t, "50", w.height.Text)
	assert.Empty(t, loop.edits, "syncing fields must not echo an edit")
}

func TestSubmitPostsEdit(t *testing.T) {
	w, _, loop := newTestWindow(t)
	w.width.SetText("120")
	w.commitEdit()

	require.Len(t, loop.edits, 1)
	assert.Equal(t, region.Rect{X: 0, Y: 110, Width: 120, Height: 670}, loop.edits[0])
}

func TestInvalidEditRestoresFields(t *testing.T) {
	w, _, loop := newTestWindow(t)
	w.height.SetText("abc")
	w.commitEdit()

	assert.Empty(t, loop.edits)
	assert.Equal(t, "670", w.height.Text)
	assert.Equal(t, "Height must be a whole number", w.status.Text)
}

func TestButtonsPostRequests(t *testing.T) {
	w, _, loop := newTestWindow(t)
	test.Tap(w.selectBtn)
	test.Tap(w.processBtn)
	assert.Equal(t, 1, loop.selects)
	assert.Equal(t, 1, loop.captures)

	loop.full = true
	test.Tap(w.processBtn)
	assert.Equal(t, "Busy, please retry", w.status.Text)
}

func TestPresenterFlow(t *testing.T) {
	w, _, _ := newTestWindow(t)

	w.Busy(true)
	assert.True(t, w.processBtn.Disabled())
	assert.Equal(t, statusProcessing, w.status.Text)

	w.Busy(false)
	w.Answer("PARIS")
	assert.False(t, w.processBtn.Disabled())
	assert.Equal(t, "PARIS", w.result.Text)
	assert.Equal(t, statusDone, w.status.Text)

	w.Failure(&insight.OracleError{Err: llm.ErrEmptyAnswer})
	assert.Equal(t, "Error: The model returned an empty answer", w.result.Text)
	assert.Equal(t, statusFailed, w.status.Text)

	w.Failure(eventloop.ErrBusy)
	assert.Equal(t, "Error: The model returned an empty answer", w.result.Text, "busy keeps the last answer")
	assert.Equal(t, "Busy, please retry", w.status.Text)

	w.Notice("Selection too small, area unchanged")
	assert.Equal(t, "Selection too small, area unchanged", w.status.Text)
}

func TestSelectionHidesWindow(t *testing.T) {
	w, _, _ := newTestWindow(t)
	w.win.Show()

	w.SelectionStarted()
	assert.True(t, w.selectBtn.Disabled())

	w.SelectionEnded(region.Rect{X: 1, Y: 2, Width: 3, Height: 4}, true)
	assert.False(t, w.selectBtn.Disabled())
	assert.Contains(t, w.status.Text, "Area set to")
}

func TestShowPreview(t *testing.T) {
	w, _, _ := newTestWindow(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	w.ShowPreview(img, region.Rect{Width: 4, Height: 4}, nil)
	assert.Equal(t, image.Image(img), w.preview.Image)
	assert.Empty(t, w.previewMsg.Text)

	w.ShowPreview(nil, region.Rect{}, errors.New("off screen"))
	assert.Nil(t, w.preview.Image)
	assert.Equal(t, "Preview error: off screen", w.previewMsg.Text)
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("wrap: %w", region.ErrDegenerate), "Selection too small, area unchanged"},
		{&insight.CaptureError{Err: errors.New("no display")}, "Screen capture failed: no display"},
		{&insight.OracleError{Err: errors.New("429")}, "Model request failed: 429"},
		{llm.ErrNotConfigured, "No API key configured"},
		{errors.New("other"), "other"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Describe(tc.err))
	}
}

func TestParseRect(t *testing.T) {
	r, err := parseRect(" -10", "5", "20 ", "30")
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: -10, Y: 5, Width: 20, Height: 30}, r)

	_, err = parseRect("0", "0", "0", "30")
	assert.Error(t, err)
}
