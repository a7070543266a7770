// Package hotkey fires a callback when a configured key combination is held.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Source delivers global input events. inputhook.Hub satisfies it.
type Source interface {
	Subscribe(fn func(hook.Event)) func()
}

type keyState struct {
	name    string
	codes   []uint16
	pressed bool
}

// Combo tracks which keys of one combination are held.
type Combo struct {
	mu   sync.Mutex
	spec string
	keys []keyState
}

// ParseCombo resolves a hotkey string like "Ctrl+Alt+Q".
func ParseCombo(spec string) (*Combo, error) {
	c := &Combo{spec: spec}
	for _, name := range parseHotkey(spec) {
		codes := keyCodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", spec, name)
		}
		c.keys = append(c.keys, keyState{name: name, codes: codes})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("hotkey %q: no keys", spec)
	}
	return c, nil
}

// Handle updates key state and reports whether the whole combination just
// became pressed. State resets after a match so holding the keys fires once.
func (c *Combo) Handle(ev hook.Event) bool {
	if ev.Kind != hook.KeyDown && ev.Kind != hook.KeyHold && ev.Kind != hook.KeyUp {
		return false
	}
	code := eventCode(ev)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Kind == hook.KeyUp {
		for i := range c.keys {
			if contains(c.keys[i].codes, code) && c.keys[i].pressed {
				c.keys[i].pressed = false
				log.Printf("%s released", c.keys[i].name)
			}
		}
		return false
	}

	for i := range c.keys {
		if contains(c.keys[i].codes, code) {
			c.keys[i].pressed = true
		}
	}
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	log.Printf("Hotkey combination detected: %s", c.spec)
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

// Listen subscribes to src and calls callback whenever the combination is
// pressed. The returned function unsubscribes.
func Listen(src Source, hotkeyConfig string, callback func()) (func(), error) {
	combo, err := ParseCombo(hotkeyConfig)
	if err != nil {
		return nil, err
	}
	log.Printf("Hotkey listener configured for: %s", hotkeyConfig)
	return src.Subscribe(func(ev hook.Event) {
		if combo.Handle(ev) && callback != nil {
			callback()
		}
	}), nil
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "win", "cmd", "super", "meta":
			keys = append(keys, "cmd")
		case "escape":
			keys = append(keys, "esc")
		case "return":
			keys = append(keys, "enter")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

func contains(codes []uint16, c uint16) bool {
	for _, v := range codes {
		if v == c {
			return true
		}
	}
	return false
}
