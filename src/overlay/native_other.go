//go:build !windows

package overlay

import "flash-insight/src/inputhook"

func newNativeSelector(opts Options) Selector {
	return NewHook(inputhook.Default(), opts)
}
