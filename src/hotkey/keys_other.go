//go:build !windows

package hotkey

import hook "github.com/robotn/gohook"

func eventCode(ev hook.Event) uint16 { return ev.Keycode }

// keyCodes maps a key name to gohook keycodes, left and right variants for
// modifiers.
func keyCodes(name string) []uint16 {
	var names []string
	switch name {
	case "ctrl", "alt", "shift", "cmd":
		names = []string{name, "r" + name}
	default:
		names = []string{name}
	}
	var out []uint16
	for _, n := range names {
		if c, ok := hook.Keycode[n]; ok {
			out = append(out, c)
		}
	}
	return out
}
