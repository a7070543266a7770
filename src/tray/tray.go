// Package tray runs the tray-resident front end.
package tray

import (
	"log"

	"github.com/getlantern/systray"
)

const appTitle = "Flash Insight"

// Handlers are invoked from the tray's menu goroutine and must not block.
type Handlers struct {
	OnCapture func()
	OnSelect  func()
	OnReady   func()
	OnExit    func()
}

// Run shows the tray icon and blocks until Quit.
func Run(h Handlers) {
	systray.Run(func() { onReady(h) }, func() {
		if h.OnExit != nil {
			h.OnExit()
		}
	})
}

func onReady(h Handlers) {
	systray.SetIcon(iconBytes())
	systray.SetTitle(appTitle)
	systray.SetTooltip(appTitle)

	mCapture := systray.AddMenuItem("Capture", "Answer the question in the current area")
	mSelect := systray.AddMenuItem("Select Area", "Drag a new capture area")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit Flash Insight")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				call(h.OnCapture)
			case <-mSelect.ClickedCh:
				call(h.OnSelect)
			case <-mQuit.ClickedCh:
				log.Printf("Tray: quit requested")
				systray.Quit()
				return
			}
		}
	}()

	if h.OnReady != nil {
		h.OnReady()
	}
}

// SetStatus shows text in the tray tooltip.
func SetStatus(text string) {
	systray.SetTooltip(appTitle + ": " + text)
}

func Quit() { systray.Quit() }

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
