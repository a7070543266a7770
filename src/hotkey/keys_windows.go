package hotkey

import hook "github.com/robotn/gohook"

// On Windows the hook reports virtual-key codes in Rawcode.
func eventCode(ev hook.Event) uint16 { return ev.Rawcode }

// keyCodes maps a key name to its virtual-key codes, left and right
// variants for modifiers.
func keyCodes(name string) []uint16 {
	switch name {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "cmd":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN
	case "space":
		return []uint16{32}
	case "enter":
		return []uint16{13}
	case "esc":
		return []uint16{27}
	case "tab":
		return []uint16{9}
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}
	if n, ok := functionKey(name); ok {
		return []uint16{uint16(111 + n)} // VK_F1 is 112
	}
	return nil
}
