// Package windowtest provides an in-memory window.Host for tests.
package windowtest

import (
	"errors"
	"sync"

	"lighthouse/src/events"
	"lighthouse/src/window"
)

// ErrClosed is returned by operations on a closed fake window.
var ErrClosed = errors.New("windowtest: window closed")

// Host records every window it builds. When Bus is set, the ReadyEvent entry
// for the window's kind is emitted as soon as the window is built, mimicking
// content that initialises immediately.
type Host struct {
	Bus        *events.Bus
	ReadyEvent map[window.Kind]string
	BuildErr   error
	NoOpacity  bool

	mu    sync.Mutex
	Built []*Window
}

func (h *Host) Build(spec window.Spec) (window.Handle, error) {
	if h.BuildErr != nil {
		return nil, h.BuildErr
	}
	w := &Window{spec: spec, visible: true, opacity: 1}
	h.mu.Lock()
	h.Built = append(h.Built, w)
	h.mu.Unlock()

	if ev := h.ReadyEvent[spec.Kind]; ev != "" && h.Bus != nil {
		h.Bus.Emit(events.Event{Name: ev, Window: spec.ID})
	}
	if h.NoOpacity {
		return plainWindow{w}, nil
	}
	return w, nil
}

// Windows returns a snapshot of built windows.
func (h *Host) Windows() []*Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Window(nil), h.Built...)
}

// Emitted is one event pushed to a fake window.
type Emitted struct {
	Name    string
	Payload any
}

type Window struct {
	spec window.Spec

	mu        sync.Mutex
	visible   bool
	closed    bool
	ignoring  bool
	opacity   float64
	Opacities []float64
	Events    []Emitted
	HideCalls int
	ShowCalls int

	HideErr error
	ShowErr error
	EmitErr error
}

func (w *Window) ID() string { return w.spec.ID }
func (w *Window) Label() string { return w.spec.Label }
func (w *Window) Spec() window.Spec { return w.spec }

func (w *Window) Emit(name string, payload any) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.EmitErr != nil {
		err := w.EmitErr
		w.mu.Unlock()
		return err
	}
	w.Events = append(w.Events, Emitted{Name: name, Payload: payload})
	w.mu.Unlock()
	return nil
}

func (w *Window) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ShowCalls++
	if w.ShowErr != nil {
		return w.ShowErr
	}
	w.visible = true
	return nil
}

func (w *Window) Hide() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.HideCalls++
	if w.HideErr != nil {
		return w.HideErr
	}
	w.visible = false
	return nil
}

func (w *Window) Focus() error { return nil }

// Close marks the window closed and runs Spec.OnClosed once.
func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.closed = true
	w.visible = false
	w.mu.Unlock()
	if w.spec.OnClosed != nil {
		w.spec.OnClosed()
	}
	return nil
}

func (w *Window) SetIgnoreCursorEvents(ignore bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ignoring = ignore
	return nil
}

func (w *Window) SetOpacity(alpha float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opacity = alpha
	w.Opacities = append(w.Opacities, alpha)
	return nil
}

func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible && w.opacity > 0
}

func (w *Window) IgnoringCursor() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ignoring
}

func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Received returns a snapshot of emitted events.
func (w *Window) Received() []Emitted {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Emitted(nil), w.Events...)
}

// plainWindow hides the Opacity method of Window.
type plainWindow struct{ w *Window }

func (p plainWindow) ID() string { return p.w.ID() }
func (p plainWindow) Label() string { return p.w.Label() }
func (p plainWindow) Emit(name string, payload any) error { return p.w.Emit(name, payload) }
func (p plainWindow) Show() error { return p.w.Show() }
func (p plainWindow) Hide() error { return p.w.Hide() }
func (p plainWindow) Focus() error { return p.w.Focus() }
func (p plainWindow) Close() error { return p.w.Close() }
func (p plainWindow) SetIgnoreCursorEvents(ignore bool) error { return p.w.SetIgnoreCursorEvents(ignore) }
