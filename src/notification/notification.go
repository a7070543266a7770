package notification

import (
	"log"
)

const (
	appTitle   = "Flash Insight"
	maxPreview = 200
)

// ShowAnswer displays the answer without blocking the caller.
func ShowAnswer(text string) {
	go func() {
		if err := showPopup(appTitle, truncate(text)); err != nil {
			log.Printf("Failed to show notification: %v", err)
		}
	}()
}

// ShowError reports a failure without blocking the caller.
func ShowError(message string) {
	go ShowBlockingError(appTitle+" - Error", truncate(message))
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) > maxPreview {
		return string(r[:maxPreview]) + "..."
	}
	return text
}
