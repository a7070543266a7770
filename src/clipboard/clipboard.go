package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
	ready   bool

	initBackend  = clipboard.Init
	writeBackend = func(b []byte) { clipboard.Write(clipboard.FmtText, b) }
)

// Init prepares the system clipboard. Writes fail until it succeeds.
func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := initBackend(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	ready = true
	return nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !ready {
		return fmt.Errorf("clipboard not initialized")
	}
	writeBackend([]byte(text))
	return nil
}
