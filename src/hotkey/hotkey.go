// Package hotkey listens for the global proceed shortcut.
package hotkey

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"

	"lighthouse/src/logutil"
)

// goos decides what CmdOrCtrl means; tests override it.
var goos = runtime.GOOS

// Listen registers the combination described by hotkeyConfig and calls
// callback each time it is pressed, until ctx is done.
func Listen(ctx context.Context, hotkeyConfig string, callback func()) error {
	m, err := newMatcher(hotkeyConfig)
	if err != nil {
		return err
	}
	log.Printf("Hotkey listener configured for: %s (%v)", hotkeyConfig, m.names())

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("hotkey: gohook.Start() returned nil channel")
	}

	go func() {
		<-ctx.Done()
		gohook.End()
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		for ev := range evChan {
			switch ev.Kind {
			// KeyHold is uiohook's "pressed"; KeyDown is "typed" and carries
			// no keycode for modifiers.
			case gohook.KeyHold, gohook.KeyDown:
				if ev.Keycode == 0 {
					continue
				}
				logutil.Debugf("hotkey: down keycode=0x%04X", ev.Keycode)
				if m.press(ev.Keycode) {
					log.Printf("Hotkey activated: %s", hotkeyConfig)
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				m.release(ev.Keycode)
			}
		}
		log.Printf("hotkey: event channel closed")
	}()
	return nil
}

type keyState struct {
	name     string
	keycodes []uint16
	pressed  bool
}

// matcher tracks which keys of one combination are held.
type matcher struct {
	mu   sync.Mutex
	keys []keyState
}

func newMatcher(hotkeyConfig string) (*matcher, error) {
	m := &matcher{}
	for _, name := range parseHotkey(hotkeyConfig) {
		codes := keyNameToKeycodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey: cannot map key %q in %q", name, hotkeyConfig)
		}
		m.keys = append(m.keys, keyState{name: name, keycodes: codes})
	}
	if len(m.keys) == 0 {
		return nil, fmt.Errorf("hotkey: no keys in %q", hotkeyConfig)
	}
	return m, nil
}

func (m *matcher) names() []string {
	out := make([]string, len(m.keys))
	for i, k := range m.keys {
		out[i] = k.name
	}
	return out
}

// press marks code as held and reports whether the whole combination is now
// down. A completed combination resets so holding it fires once.
func (m *matcher) press(code uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.keys {
		for _, c := range m.keys[i].keycodes {
			if c == code {
				m.keys[i].pressed = true
				break
			}
		}
	}
	for i := range m.keys {
		if !m.keys[i].pressed {
			return false
		}
	}
	for i := range m.keys {
		m.keys[i].pressed = false
	}
	return true
}

func (m *matcher) release(code uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.keys {
		for _, c := range m.keys[i].keycodes {
			if c == code {
				m.keys[i].pressed = false
				break
			}
		}
	}
}

// parseHotkey converts "CmdOrCtrl+Shift+K" to normalized key names.
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "cmdorctrl", "commandorcontrol":
			if goos == "darwin" {
				keys = append(keys, "cmd")
			} else {
				keys = append(keys, "ctrl")
			}
		case "ctrl", "control":
			keys = append(keys, "ctrl")
		case "alt", "option":
			keys = append(keys, "alt")
		case "shift":
			keys = append(keys, "shift")
		case "win", "cmd", "command", "super", "meta":
			keys = append(keys, "cmd")
		case "return":
			keys = append(keys, "enter")
		case "escape":
			keys = append(keys, "esc")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

// Keyboard row starts in uiohook's virtual keycode table.
const (
	vcRowQ = 0x10 // q w e r t y u i o p
	vcRowA = 0x1E // a s d f g h j k l
	vcRowZ = 0x2C // z x c v b n m
)

var letterRows = []struct {
	letters string
	start   uint16
}{
	{"qwertyuiop", vcRowQ},
	{"asdfghjkl", vcRowA},
	{"zxcvbnm", vcRowZ},
}

// keyNameToKeycodes maps a key name to uiohook virtual keycodes, which are
// the same on every platform. Modifiers return both left and right codes.
func keyNameToKeycodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	switch keyName {
	case "ctrl":
		return []uint16{0x001D, 0x0E1D}
	case "alt":
		return []uint16{0x0038, 0x0E38}
	case "shift":
		return []uint16{0x002A, 0x0036}
	case "cmd":
		return []uint16{0x0E5B, 0x0E5C}

	case "enter":
		return []uint16{0x001C, 0x0E1C} // main and keypad enter
	case "space":
		return []uint16{0x0039}
	case "esc":
		return []uint16{0x0001}
	case "tab":
		return []uint16{0x000F}
	case "backspace":
		return []uint16{0x000E}

	case "up":
		return []uint16{0xE048}
	case "left":
		return []uint16{0xE04B}
	case "right":
		return []uint16{0xE04D}
	case "down":
		return []uint16{0xE050}

	case "f11":
		return []uint16{0x0057}
	case "f12":
		return []uint16{0x0058}
	}

	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c == '0':
			return []uint16{0x000B}
		case c >= '1' && c <= '9':
			return []uint16{0x0002 + uint16(c-'1')}
		}
		for _, row := range letterRows {
			if i := strings.IndexByte(row.letters, c); i >= 0 {
				return []uint16{row.start + uint16(i)}
			}
		}
	}

	var n int
	if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && n >= 1 && n <= 10 && keyName == fmt.Sprintf("f%d", n) {
		return []uint16{0x003B + uint16(n-1)}
	}

	log.Printf("WARNING: Unknown key name '%s', cannot map to keycode", keyName)
	return nil
}
