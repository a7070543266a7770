package preview

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flash-insight/src/region"
)

type grabFunc func(r region.Rect) (*image.RGBA, error)

func (f grabFunc) Grab(_ context.Context, r region.Rect, _ int) (*image.RGBA, error) { return f(r) }

func TestRefreshUsesLatestStoreValue(t *testing.T) {
	store := region.NewStore(region.Rect{X: 0, Y: 0, Width: 10, Height: 10}, region.Rect{})
	var got []region.Rect
	r := &Refresher{
		Store: store,
		Grabber: grabFunc(func(rect region.Rect) (*image.RGBA, error) {
			return image.NewRGBA(image.Rect(0, 0, rect.Width, rect.Height)), nil
		}),
		Sink: func(img *image.RGBA, rect region.Rect, err error) {
			require.NoError(t, err)
			assert.Equal(t, rect.Width, img.Bounds().Dx())
			got = append(got, rect)
		},
	}

	r.Refresh(context.Background())
	require.NoError(t, store.Set(region.Rect{X: 5, Y: 5, Width: 20, Height: 30}))
	r.Refresh(context.Background())

	assert.Equal(t, []region.Rect{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 5, Y: 5, Width: 20, Height: 30},
	}, got)
}

func TestRefreshReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	var gotErr error
	r := &Refresher{
		Store:   region.NewStore(region.Rect{Width: 1, Height: 1}, region.Rect{}),
		Grabber: grabFunc(func(region.Rect) (*image.RGBA, error) { return nil, boom }),
		Sink:    func(_ *image.RGBA, _ region.Rect, err error) { gotErr = err },
	}
	r.Refresh(context.Background())
	assert.ErrorIs(t, gotErr, boom)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	var mu sync.Mutex
	frames := 0
	r := &Refresher{
		Store: region.NewStore(region.Rect{Width: 1, Height: 1}, region.Rect{}),
		Grabber: grabFunc(func(region.Rect) (*image.RGBA, error) {
			return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
		}),
		Interval: 5 * time.Millisecond,
		Sink: func(*image.RGBA, region.Rect, error) {
			mu.Lock()
			frames++
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return frames >= 3
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
