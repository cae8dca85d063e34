package appstate

import (
	"sync"

	"lighthouse/src/focusstate"
)

// TrayHandle is whatever the tray package hands back after installing its icon.
type TrayHandle interface {
	Quit()
}

// State is the process-wide mutable state shared by the commands. Each field
// has its own lock; reading two fields gives no joint consistency.
type State struct {
	focusMu sync.Mutex
	focused *focusstate.WindowInfo

	selMu     sync.Mutex
	selecting bool

	trayMu sync.Mutex
	tray   TrayHandle
}

func New() *State {
	return &State{}
}

// FocusedWindow returns a copy of the paired window, or nil.
func (s *State) FocusedWindow() *focusstate.WindowInfo {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	if s.focused == nil {
		return nil
	}
	c := *s.focused
	return &c
}

// SetFocusedWindow replaces the paired window; nil clears it.
func (s *State) SetFocusedWindow(w *focusstate.WindowInfo) {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	if w == nil {
		s.focused = nil
		return
	}
	c := *w
	s.focused = &c
}

func (s *State) SelectionMode() bool {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	return s.selecting
}

func (s *State) SetSelectionMode(on bool) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.selecting = on
}

func (s *State) Tray() TrayHandle {
	s.trayMu.Lock()
	defer s.trayMu.Unlock()
	return s.tray
}

func (s *State) SetTray(t TrayHandle) {
	s.trayMu.Lock()
	defer s.trayMu.Unlock()
	s.tray = t
}
