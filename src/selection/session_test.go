package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flash-insight/src/region"
)

var (
	primaryDisplay   = region.Display{Index: 0, X: 0, Y: 0, Width: 1920, Height: 1080, Primary: true}
	secondaryDisplay = region.Display{Index: 1, X: -1920, Y: 0, Width: 1920, Height: 1080}
)

type recorder struct {
	frames   []Frame
	restored int
}

func (r *recorder) Redraw(f Frame) { r.frames = append(r.frames, f) }
func (r *recorder) Restore()       { r.restored++ }

func drag(t *testing.T, d region.Display, from, to region.Point) (region.Rect, error) {
	t.Helper()
	s, err := Begin(d, nil)
	require.NoError(t, err)
	require.NoError(t, s.Press(from))
	s.Move(to)
	return s.Release()
}

func TestBeginRejectsEmptyDisplay(t *testing.T) {
	_, err := Begin(region.Display{Width: 0, Height: 1080}, nil)
	assert.True(t, errors.Is(err, region.ErrInvalidDisplay))
}

func TestBeginIsIdle(t *testing.T) {
	s, err := Begin(primaryDisplay, nil)
	require.NoError(t, err)
	assert.False(t, s.Active())
	assert.False(t, s.Finished())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestPrimaryDisplayScenario(t *testing.T) {
	got, err := drag(t, primaryDisplay, region.Point{X: 100, Y: 650}, region.Point{X: 400, Y: 700})
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 100, Y: 650, Width: 300, Height: 50}, got)
}

func TestExtentIndependentOfDragDirection(t *testing.T) {
	cases := []struct {
		name     string
		from, to region.Point
	}{
		{"down-right", region.Point{X: 10, Y: 20}, region.Point{X: 110, Y: 70}},
		{"up-left", region.Point{X: 110, Y: 70}, region.Point{X: 10, Y: 20}},
		{"down-left", region.Point{X: 110, Y: 20}, region.Point{X: 10, Y: 70}},
		{"up-right", region.Point{X: 10, Y: 70}, region.Point{X: 110, Y: 20}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := drag(t, primaryDisplay, tc.from, tc.to)
			require.NoError(t, err)
			assert.Equal(t, region.Rect{X: 10, Y: 20, Width: 100, Height: 50}, got)
		})
	}
}

func TestZeroDragIsDegenerate(t *testing.T) {
	p := region.Point{X: 42, Y: 42}
	_, err := drag(t, primaryDisplay, p, p)
	assert.True(t, errors.Is(err, region.ErrDegenerate))

	_, err = drag(t, primaryDisplay, region.Point{X: 5, Y: 5}, region.Point{X: 5, Y: 80})
	assert.True(t, errors.Is(err, region.ErrDegenerate), "zero width")
}

func TestTranslationIsAdditive(t *testing.T) {
	from, to := region.Point{X: 300, Y: 200}, region.Point{X: 50, Y: 600}

	onPrimary, err := drag(t, primaryDisplay, from, to)
	require.NoError(t, err)
	onSecondary, err := drag(t, secondaryDisplay, from, to)
	require.NoError(t, err)

	assert.Equal(t, onPrimary.Translate(-1920, 0), onSecondary)
	assert.Equal(t, onPrimary.Width, onSecondary.Width)
	assert.Equal(t, onPrimary.Height, onSecondary.Height)
}

func TestSecondaryDisplayDegenerateScenario(t *testing.T) {
	store := region.NewStore(region.Rect{X: 7, Y: 8, Width: 9, Height: 10}, region.Rect{})
	before := store.Get()

	s, err := Begin(secondaryDisplay, nil, WithMinSpan(5))
	require.NoError(t, err)
	require.NoError(t, s.Press(region.Point{X: 10, Y: 10}))
	s.Move(region.Point{X: 5, Y: 5})
	rect, err := s.Release()
	if err == nil {
		require.NoError(t, store.Set(rect))
	}

	assert.True(t, errors.Is(err, region.ErrDegenerate))
	assert.Equal(t, before, store.Get())
}

func TestMinSpanKeepsLargerSelections(t *testing.T) {
	s, err := Begin(secondaryDisplay, nil, WithMinSpan(5))
	require.NoError(t, err)
	require.NoError(t, s.Press(region.Point{X: 10, Y: 10}))
	s.Move(region.Point{X: 4, Y: 4})

	got, err := s.Release()
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: -1916, Y: 4, Width: 6, Height: 6}, got)
}

func TestSecondPressRestartsDrag(t *testing.T) {
	s, err := Begin(primaryDisplay, nil)
	require.NoError(t, err)
	require.NoError(t, s.Press(region.Point{X: 0, Y: 0}))
	s.Move(region.Point{X: 500, Y: 500})
	require.NoError(t, s.Press(region.Point{X: 100, Y: 100}))
	s.Move(region.Point{X: 150, Y: 120})

	got, err := s.Release()
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 100, Y: 100, Width: 50, Height: 20}, got)
}

func TestMoveWithoutPressIsIgnored(t *testing.T) {
	rec := &recorder{}
	s, err := Begin(primaryDisplay, rec)
	require.NoError(t, err)
	s.Move(region.Point{X: 10, Y: 10})
	assert.Empty(t, rec.frames)

	_, err = s.Release()
	assert.True(t, errors.Is(err, ErrNotActive))
}

func TestRedrawCarriesLocalRectAndLabel(t *testing.T) {
	rec := &recorder{}
	s, err := Begin(secondaryDisplay, rec)
	require.NoError(t, err)
	require.NoError(t, s.Press(region.Point{X: 400, Y: 300}))
	s.Move(region.Point{X: 100, Y: 250})

	require.Len(t, rec.frames, 2)
	last := rec.frames[1]
	assert.Equal(t, region.Rect{X: 100, Y: 250, Width: 300, Height: 50}, last.Rect)
	assert.Equal(t, "300 × 50", last.Label)
}

func TestReleasedSessionCannotBeReused(t *testing.T) {
	s, err := Begin(primaryDisplay, nil)
	require.NoError(t, err)
	require.NoError(t, s.Press(region.Point{X: 1, Y: 1}))
	s.Move(region.Point{X: 20, Y: 20})
	_, err = s.Release()
	require.NoError(t, err)

	assert.True(t, errors.Is(s.Press(region.Point{X: 3, Y: 3}), ErrFinished))
	_, err = s.Release()
	assert.True(t, errors.Is(err, ErrFinished))
}

func TestCancelMidDragLeavesStoreUntouched(t *testing.T) {
	store := region.NewStore(region.Rect{X: 0, Y: 110, Width: 340, Height: 670}, region.Rect{})
	before := store.Get()
	rec := &recorder{}

	s, err := Begin(primaryDisplay, rec)
	require.NoError(t, err)
	require.NoError(t, s.Press(region.Point{X: 10, Y: 10}))
	s.Move(region.Point{X: 800, Y: 600})
	s.Cancel()

	assert.Equal(t, before, store.Get())
	assert.Equal(t, 1, rec.restored)
	assert.True(t, s.Finished())
	assert.False(t, s.Active())
}

func TestCancelWithoutGestureIsLegal(t *testing.T) {
	s, err := Begin(primaryDisplay, nil)
	require.NoError(t, err)
	assert.NotPanics(t, s.Cancel)
	assert.NotPanics(t, s.Cancel)
}

func TestPressOutsideDisplayIsPinned(t *testing.T) {
	got, err := drag(t, primaryDisplay, region.Point{X: -20, Y: -20}, region.Point{X: 9999, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 0, Y: 0, Width: 1919, Height: 50}, got)
}

func TestDriveCompletesOnRelease(t *testing.T) {
	s, err := Begin(secondaryDisplay, nil)
	require.NoError(t, err)

	events := make(chan Input, 4)
	events <- Input{Kind: InputRelease, Point: region.Point{X: 1, Y: 1}}
	events <- Input{Kind: InputPress, Point: region.Point{X: 10, Y: 10}}
	events <- Input{Kind: InputMove, Point: region.Point{X: 40, Y: 30}}
	events <- Input{Kind: InputRelease, Point: region.Point{X: 60, Y: 50}}

	got, cancelled, err := Drive(context.Background(), s, events)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Equal(t, region.Rect{X: -1910, Y: 10, Width: 50, Height: 40}, got)
}

func TestDriveCancel(t *testing.T) {
	s, err := Begin(primaryDisplay, nil)
	require.NoError(t, err)

	events := make(chan Input, 2)
	events <- Input{Kind: InputPress, Point: region.Point{X: 10, Y: 10}}
	events <- Input{Kind: InputCancel}

	_, cancelled, err := Drive(context.Background(), s, events)
	require.NoError(t, err)
	assert.True(t, cancelled)
}

func TestDriveStopsWithContext(t *testing.T) {
	s, err := Begin(primaryDisplay, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, cancelled, err := Drive(ctx, s, make(chan Input))
	require.NoError(t, err)
	assert.True(t, cancelled)
}

func TestDriveReportsDegenerate(t *testing.T) {
	s, err := Begin(primaryDisplay, nil)
	require.NoError(t, err)

	events := make(chan Input, 2)
	events <- Input{Kind: InputPress, Point: region.Point{X: 10, Y: 10}}
	events <- Input{Kind: InputRelease, Point: region.Point{X: 10, Y: 10}}

	_, cancelled, err := Drive(context.Background(), s, events)
	assert.False(t, cancelled)
	assert.True(t, errors.Is(err, region.ErrDegenerate))
}
