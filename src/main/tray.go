package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"flash-insight/src/clipboard"
	"flash-insight/src/eventloop"
	"flash-insight/src/gui"
	"flash-insight/src/hotkey"
	"flash-insight/src/inputhook"
	"flash-insight/src/logutil"
	"flash-insight/src/notification"
	"flash-insight/src/overlay"
	"flash-insight/src/region"
	"flash-insight/src/screenshot"
	"flash-insight/src/singleinstance"
	"flash-insight/src/tray"
	"flash-insight/src/worker"
)

func newTrayCmd(opts *mainOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Stay in the tray and answer on the global hotkey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(cmd.Context(), opts)
		},
	}
}

func runTray(ctx context.Context, opts *mainOptions) error {
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

	if cfg.CopyToClipboard {
		if err := clipboard.Init(); err != nil {
			return fmt.Errorf("failed to initialize clipboard: %w", err)
		}
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

	store := region.NewStore(region.DefaultFor(display), region.Union(ds))
	pool := worker.New(newService(cfg, oracle, screenshot.AnyDisplay), deadline(cfg))
	defer pool.Close()

	presenter := newTrayPresenter(cfg.CopyToClipboard, cfg.Hotkey)
	loop := eventloop.New(eventloop.Options{
		Store:     store,
		Selector:  overlay.NewNative(overlayOptions(cfg)),
		Pool:      pool,
		Presenter: presenter,
		Display:   displayResolver(screenshot.Screen{}, cfg.DisplayIndex, store),
	})

	srv, err := singleinstance.Listen(ctx, residentHandler(loop))
	if err != nil {
		return err
	}
	defer srv.Close()

	hub := inputhook.Default()
	defer hub.Stop()
	stopHotkey, err := hotkey.Listen(hub, cfg.Hotkey, func() { loop.RequestSelectAndCapture() })
	if err != nil {
		return fmt.Errorf("invalid hotkey %q: %w", cfg.Hotkey, err)
	}
	defer stopHotkey()

	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event loop stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		tray.Quit()
	}()

	log.Printf("Flash Insight tray started, hotkey %s", cfg.Hotkey)
	tray.Run(tray.Handlers{
		OnCapture: func() { loop.RequestCapture() },
		OnSelect:  func() { loop.RequestSelect() },
		OnReady:   func() { presenter.status(presenter.idle) },
		OnExit:    cancel,
	})
	return nil
}

type selectCapturer interface {
	RequestSelectAndCaptureFor(reply worker.ResultCallback) bool
}

// residentHandler answers requests delegated by "flash-insight once".
func residentHandler(loop selectCapturer) singleinstance.Handler {
	return func(ctx context.Context, req singleinstance.Request) (string, error) {
		replies := make(chan worker.Result, 1)
		if !loop.RequestSelectAndCaptureFor(func(res worker.Result) { replies <- res }) {
			return "", eventloop.ErrBusy
		}
		select {
		case res := <-replies:
			return res.Text, res.Err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// trayPresenter reports loop state through the tray tooltip, the clipboard
// and notifications.
type trayPresenter struct {
	idle      string
	copy      bool
	status    func(string)
	clip      func(string) error
	showText  func(string)
	showError func(string)
}

var _ eventloop.Presenter = (*trayPresenter)(nil)

func newTrayPresenter(copyToClipboard bool, hotkeyName string) *trayPresenter {
	return &trayPresenter{
		idle:      fmt.Sprintf("Press %s to capture", hotkeyName),
		copy:      copyToClipboard,
		status:    tray.SetStatus,
		clip:      clipboard.Write,
		showText:  notification.ShowAnswer,
		showError: notification.ShowError,
	}
}

func (p *trayPresenter) SelectionStarted() { p.status("Selecting area...") }

func (p *trayPresenter) SelectionEnded(r region.Rect, committed bool) {
	if !committed {
		p.status(p.idle)
	}
}

func (p *trayPresenter) Busy(busy bool) {
	if busy {
		p.status("Processing...")
	}
}

func (p *trayPresenter) Answer(text string) {
	if p.copy {
		if err := p.clip(text); err != nil {
			log.Printf("Failed to write to clipboard: %v", err)
		}
	}
	p.status("Last answer: " + logutil.SanitizeForLog(text))
	p.showText(text)
}

func (p *trayPresenter) Failure(err error) {
	msg := gui.Describe(err)
	p.status(msg)
	p.showError(msg)
}

func (p *trayPresenter) Notice(msg string) { p.status(msg) }
