package main

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	fyneapp "fyne.io/fyne/v2/app"

	"flash-insight/src/eventloop"
	"flash-insight/src/gui"
	"flash-insight/src/notification"
	"flash-insight/src/overlay"
	"flash-insight/src/preview"
	"flash-insight/src/region"
	"flash-insight/src/screenshot"
	"flash-insight/src/worker"
)

const appID = "io.github.flash-insight"

// runGUI shows the desktop window and blocks until it is closed.
func runGUI(ctx context.Context, opts *mainOptions) error {
	enableDPIAwareness()

	cfg, closer, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	oracle, err := newOracle(ctx, cfg)
	if err != nil {
		return err
	}
	defer oracle.Close()
	if err := pingOracle(ctx, oracle); err != nil {
		return err
	}

	ds, err := screenshot.Displays()
	if err != nil {
		return err
	}
	logDisplays(ds)
	display, err := pickDisplay(ds, cfg.DisplayIndex)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := fyneapp.NewWithID(appID)
	store := region.NewStore(region.DefaultFor(display), region.Union(ds))
	window := gui.New(a, store)

	overlayOpts := overlayOptions(cfg)
	var selector overlay.Selector
	if runtime.GOOS == "windows" {
		selector = overlay.NewNative(overlayOpts)
	} else {
		selector = overlay.NewFyne(a, overlayOpts)
	}

	pool := worker.New(newService(cfg, oracle, screenshot.AnyDisplay), deadline(cfg))
	defer pool.Close()

	loop := eventloop.New(eventloop.Options{
		Store:     store,
		Selector:  selector,
		Pool:      pool,
		Presenter: window,
		Display:   displayResolver(screenshot.Screen{}, cfg.DisplayIndex, store),
	})
	window.Attach(loop)
	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event loop stopped: %v", err)
		}
	}()

	refresher := &preview.Refresher{
		Store:    store,
		Grabber:  screenshot.Screen{},
		Display:  screenshot.AnyDisplay,
		Interval: time.Duration(cfg.PreviewIntervalMs) * time.Millisecond,
		Sink:     window.ShowPreview,
	}
	go refresher.Run(ctx)

	go func() {
		<-ctx.Done()
		a.Quit()
	}()

	log.Printf("Flash Insight window started on display %d %s", display.Index, display.Bounds())
	window.Window().ShowAndRun()
	return nil
}

func pingOracle(ctx context.Context, oracle interface{ Ping(context.Context) error }) error {
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := oracle.Ping(pingCtx); err != nil {
		notification.ShowBlockingError("Model unavailable", fmt.Sprintf("Startup check failed: %v\n\nPlease verify your API key and network connectivity.", err))
		return fmt.Errorf("startup check failed: %w", err)
	}
	log.Printf("Model ping succeeded")
	return nil
}

func logDisplays(ds []region.Display) {
	log.Printf("MONITOR: Detected %d displays, virtual screen %s", len(ds), region.Union(ds))
	for _, d := range ds {
		log.Printf("MONITOR: display %d %s primary=%t", d.Index, d.Bounds(), d.Primary)
	}
}
