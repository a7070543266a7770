// Package preview periodically captures the committed region for display.
package preview

import (
	"context"
	"image"
	"log"
	"time"

	"flash-insight/src/region"
	"flash-insight/src/screenshot"
)

const DefaultInterval = time.Second

// Sink receives each preview frame. err is set when the capture failed.
type Sink func(img *image.RGBA, r region.Rect, err error)

// Refresher reads the store on every tick and grabs the current rectangle.
type Refresher struct {
	Store    *region.Store
	Grabber  screenshot.Grabber
	Display  int
	Interval time.Duration
	Sink     Sink
}

// Run refreshes once immediately and then on every tick until ctx ends.
func (r *Refresher) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh captures the latest committed rectangle once.
func (r *Refresher) Refresh(ctx context.Context) {
	rect := r.Store.Get()
	img, err := r.Grabber.Grab(ctx, rect, r.Display)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Printf("Preview error: %v", err)
	}
	r.Sink(img, rect, err)
}
