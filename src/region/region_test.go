package region

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	primary    = Display{Index: 0, X: 0, Y: 0, Width: 1920, Height: 1080, Primary: true}
	leftOfMain = Display{Index: 1, X: -1920, Y: 0, Width: 1920, Height: 1080}
)

func TestBoundingBoxIgnoresDragDirection(t *testing.T) {
	want := Rect{X: 100, Y: 650, Width: 300, Height: 50}
	corners := [][2]Point{
		{{100, 650}, {400, 700}},
		{{400, 700}, {100, 650}},
		{{100, 700}, {400, 650}},
		{{400, 650}, {100, 700}},
	}
	for _, c := range corners {
		assert.Equal(t, want, BoundingBox(c[0], c[1]), "from %v to %v", c[0], c[1])
	}
}

func TestDefaultForCoversWholeDisplay(t *testing.T) {
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, DefaultFor(primary))
	assert.Equal(t, Rect{X: -1920, Y: 0, Width: 1920, Height: 1080}, DefaultFor(leftOfMain))
}

func TestUnionSpansNegativeOrigins(t *testing.T) {
	assert.Equal(t, Rect{X: -1920, Y: 0, Width: 3840, Height: 1080}, Union([]Display{primary, leftOfMain}))
	assert.True(t, Union(nil).Empty())
}

func TestPrimaryFallsBackToFirst(t *testing.T) {
	d, ok := Primary([]Display{leftOfMain, primary})
	require.True(t, ok)
	assert.Equal(t, 0, d.Index)

	d, ok = Primary([]Display{leftOfMain})
	require.True(t, ok)
	assert.Equal(t, 1, d.Index)

	_, ok = Primary(nil)
	assert.False(t, ok)
}

func TestDisplayValidate(t *testing.T) {
	require.NoError(t, primary.Validate())
	err := Display{Width: 0, Height: 10}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidDisplay))
}

func TestLocalGlobalRoundTrip(t *testing.T) {
	p := Point{X: 10, Y: 20}
	global := leftOfMain.ToGlobal(Rect{X: p.X, Y: p.Y, Width: 1, Height: 1})
	assert.Equal(t, Rect{X: -1910, Y: 20, Width: 1, Height: 1}, global)
	assert.Equal(t, p, leftOfMain.ToLocal(Point{X: global.X, Y: global.Y}))
}

func TestClampLocal(t *testing.T) {
	assert.Equal(t, Point{X: 0, Y: 1079}, primary.ClampLocal(Point{X: -5, Y: 5000}))
}
