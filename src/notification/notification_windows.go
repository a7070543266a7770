//go:build windows

package notification

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mbOK              = 0x00000000
	mbIconError       = 0x00000010
	mbIconInformation = 0x00000040
	mbTopmost         = 0x00040000
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procMessageBoxW = user32.NewProc("MessageBoxW")
)

// ShowBlockingError shows a modal error box and returns when it is dismissed.
func ShowBlockingError(title, message string) {
	_ = messageBox(title, message, mbOK|mbIconError|mbTopmost)
}

func showPopup(title, text string) error {
	return messageBox(title, text, mbOK|mbIconInformation|mbTopmost)
}

func messageBox(title, message string, flags uintptr) error {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	messagePtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return err
	}
	ret, _, callErr := procMessageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		flags,
	)
	if ret == 0 {
		return callErr
	}
	return nil
}
