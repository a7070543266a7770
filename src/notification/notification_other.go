//go:build !windows

package notification

import "log"

// ShowBlockingError logs a blocking error message on non-Windows platforms.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
}

func showPopup(title, text string) error {
	log.Printf("%s: %s", title, text)
	return nil
}
