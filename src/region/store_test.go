package region

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(DefaultFor(primary), Union([]Display{primary, leftOfMain}))
}

func TestStoreStartsWithDefault(t *testing.T) {
	s := newTestStore()
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, s.Get())
}

func TestStoreRejectsZeroExtent(t *testing.T) {
	s := newTestStore()
	before := s.Get()

	err := s.Set(Rect{X: 10, Y: 10, Width: 0, Height: 50})
	assert.True(t, errors.Is(err, ErrDegenerate))
	err = s.Set(Rect{X: 10, Y: 10, Width: 50, Height: 0})
	assert.True(t, errors.Is(err, ErrDegenerate))

	assert.Equal(t, before, s.Get())
}

func TestStoreAcceptsNegativeOrigin(t *testing.T) {
	s := newTestStore()
	r := Rect{X: -1500, Y: 20, Width: 300, Height: 200}
	require.NoError(t, s.Set(r))
	assert.Equal(t, r, s.Get())
}

func TestStoreClampsEachField(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Set(Rect{X: -9000, Y: 5000, Width: 99999, Height: 20}))
	assert.Equal(t, Rect{X: -1920, Y: 1079, Width: 3840, Height: 20}, s.Get())
}

func TestStoreWithoutBoundsDoesNotClamp(t *testing.T) {
	s := NewStore(Rect{Width: 1, Height: 1}, Rect{})
	r := Rect{X: -50000, Y: 50000, Width: 10, Height: 10}
	require.NoError(t, s.Set(r))
	assert.Equal(t, r, s.Get())
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	s := newTestStore()
	var got []Rect
	unsubscribe := s.Subscribe(func(r Rect) { got = append(got, r) })

	require.NoError(t, s.Set(Rect{X: 1, Y: 2, Width: 3, Height: 4}))
	_ = s.Set(Rect{X: 1, Y: 2, Width: 0, Height: 4})
	unsubscribe()
	require.NoError(t, s.Set(Rect{X: 5, Y: 6, Width: 7, Height: 8}))

	assert.Equal(t, []Rect{{X: 1, Y: 2, Width: 3, Height: 4}}, got)
}
