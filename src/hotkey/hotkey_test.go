package hotkey

import (
	"testing"

	hook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// press builds an event carrying code in both fields so the test does not
// depend on which one the platform matches.
func press(kind uint8, code uint16) hook.Event {
	return hook.Event{Kind: kind, Rawcode: code, Keycode: code}
}

func codeOf(t *testing.T, name string) uint16 {
	t.Helper()
	codes := keyCodes(name)
	require.NotEmpty(t, codes, "no code for %q", name)
	return codes[0]
}

func TestParseHotkey(t *testing.T) {
	assert.Equal(t, []string{"ctrl", "alt", "q"}, parseHotkey("Ctrl+Alt+Q"))
	assert.Equal(t, []string{"cmd", "shift", "esc"}, parseHotkey(" Super + shift + Escape "))
	assert.Equal(t, []string{"ctrl", "enter"}, parseHotkey("control++return"))
}

func TestParseComboRejectsUnknownKeys(t *testing.T) {
	_, err := ParseCombo("Ctrl+Bogus")
	assert.Error(t, err)
	_, err = ParseCombo("")
	assert.Error(t, err)
}

func TestModifiersHaveBothSides(t *testing.T) {
	for _, name := range []string{"ctrl", "alt", "shift"} {
		assert.NotEmpty(t, keyCodes(name), name)
	}
	assert.Nil(t, keyCodes("unknown"))
}

func TestComboFiresOnceAllKeysHeld(t *testing.T) {
	c, err := ParseCombo("Ctrl+Alt+Q")
	require.NoError(t, err)
	ctrl, alt, q := codeOf(t, "ctrl"), codeOf(t, "alt"), codeOf(t, "q")

	assert.False(t, c.Handle(press(hook.KeyHold, ctrl)))
	assert.False(t, c.Handle(press(hook.KeyHold, alt)))
	assert.True(t, c.Handle(press(hook.KeyHold, q)))

	// state resets after firing
	assert.False(t, c.Handle(press(hook.KeyHold, q)))
}

func TestComboReleaseClearsState(t *testing.T) {
	c, err := ParseCombo("Ctrl+Q")
	require.NoError(t, err)
	ctrl, q := codeOf(t, "ctrl"), codeOf(t, "q")

	assert.False(t, c.Handle(press(hook.KeyHold, ctrl)))
	assert.False(t, c.Handle(press(hook.KeyUp, ctrl)))
	assert.False(t, c.Handle(press(hook.KeyHold, q)))
}

func TestComboIgnoresMouse(t *testing.T) {
	c, err := ParseCombo("Q")
	require.NoError(t, err)
	assert.False(t, c.Handle(hook.Event{Kind: hook.MouseDown, Rawcode: codeOf(t, "q"), Keycode: codeOf(t, "q")}))
}

type fakeSource struct{ fn func(hook.Event) }

func (f *fakeSource) Subscribe(fn func(hook.Event)) func() {
	f.fn = fn
	return func() { f.fn = nil }
}

func TestListen(t *testing.T) {
	src := &fakeSource{}
	fired := 0
	stop, err := Listen(src, "Alt+F", func() { fired++ })
	require.NoError(t, err)

	src.fn(press(hook.KeyHold, codeOf(t, "alt")))
	src.fn(press(hook.KeyHold, codeOf(t, "f")))
	assert.Equal(t, 1, fired)

	stop()
	assert.Nil(t, src.fn)

	_, err = Listen(src, "Alt+Nope", nil)
	assert.Error(t, err)
}

func TestFunctionKey(t *testing.T) {
	n, ok := functionKey("f12")
	assert.True(t, ok)
	assert.Equal(t, 12, n)
	for _, bad := range []string{"f", "f0", "f25", "fx", "q"} {
		_, ok := functionKey(bad)
		assert.False(t, ok, bad)
	}
}
