// Package ui renders the Lighthouse windows with fyne and implements
// window.Host for them. Window content talks to the rest of the app through
// the event bus, the same way a bridged web page does.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"lighthouse/src/app"
	"lighthouse/src/events"
	"lighthouse/src/focusstate"
	"lighthouse/src/logutil"
	"lighthouse/src/vision"
	"lighthouse/src/window"
)

// ErrClosed is returned when emitting to a window that has gone away.
var ErrClosed = errors.New("ui: window is closed")

// Commands are the app operations the views trigger.
type Commands interface {
	Locate(ctx context.Context, object string) (*app.OverlayPayload, error)
	Ask(ctx context.Context, question string) (*vision.QueryResult, string, error)
	OpenFullscreenViewer(p app.ViewerPayload) error
	CloseScreenOverlay() error
	GetAvailableWindows(ctx context.Context) ([]focusstate.WindowInfo, error)
	ArrangeWindows(ctx context.Context, target focusstate.WindowInfo) error
	GetFocusedWindow() *focusstate.WindowInfo
	StartFocusSelectionMode()
	StopFocusSelectionMode()
	OpenSettingsWindow() error
	OpenSkillGraphWindow() error
	GetSkillsData() (string, error)
	CopyText(text string) error
}

// Settings is what the settings window shows and edits.
type Settings struct {
	Hotkey     string
	BridgeAddr string
	KeySource  string
	SaveKey    func(key string) error
	ClearKey   func() error
}

type Host struct {
	ctx     context.Context
	fyneApp fyne.App
	bus     *events.Bus

	mu       sync.RWMutex
	cmds     Commands
	settings Settings
}

func NewHost(ctx context.Context, fyneApp fyne.App, bus *events.Bus) *Host {
	return &Host{ctx: ctx, fyneApp: fyneApp, bus: bus}
}

// Bind supplies the commands and settings the views use. Call it before the
// first window is built.
func (h *Host) Bind(cmds Commands, s Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cmds = cmds
	h.settings = s
}

func (h *Host) commands() Commands {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cmds
}

func (h *Host) currentSettings() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// Build creates the window on the UI goroutine and, for kinds that take a
// data push, reports it ready once its content is listening.
func (h *Host) Build(spec window.Spec) (window.Handle, error) {
	var (
		hd  *handle
		err error
	)
	fyne.DoAndWait(func() {
		hd, err = h.build(spec)
	})
	if err != nil {
		return nil, err
	}
	if name := readyEvent(spec.Kind); name != "" {
		h.bus.Emit(events.Event{Name: name, Window: hd.id})
	}
	return hd, nil
}

// BuildNow is Build for callers already on the UI goroutine, or running
// before the fyne event loop starts.
func (h *Host) BuildNow(spec window.Spec) (window.Handle, error) {
	hd, err := h.build(spec)
	if err != nil {
		return nil, err
	}
	if name := readyEvent(spec.Kind); name != "" {
		h.bus.Emit(events.Event{Name: name, Window: hd.id})
	}
	return hd, nil
}

func readyEvent(k window.Kind) string {
	switch k {
	case window.KindOverlay:
		return events.OverlayReady
	case window.KindViewer:
		return events.ViewerReady
	}
	return ""
}

func (h *Host) build(spec window.Spec) (*handle, error) {
	if spec.ID == "" {
		spec.ID = window.NewID()
	}

	var w fyne.Window
	if drv, ok := h.fyneApp.Driver().(desktop.Driver); ok && !spec.Decorations {
		w = drv.CreateSplashWindow()
		w.SetTitle(spec.Title)
	} else {
		w = h.fyneApp.NewWindow(spec.Title)
	}

	hd := &handle{id: spec.ID, label: spec.Label, win: w, bus: h.bus, onClosed: spec.OnClosed}

	v, err := h.newView(spec, hd)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("ui: %s: %w", spec.Label, err)
	}
	hd.view = v
	hd.unsubscribe = h.bus.Subscribe(spec.ID, "", func(ev events.Event) {
		if events.Inbound(ev.Name) {
			return
		}
		v.handle(ev)
	})

	w.SetContent(v.content())
	w.SetOnClosed(hd.finish)
	if spec.Label == window.LabelMain {
		w.SetCloseIntercept(w.Hide)
	}

	switch {
	case spec.Kind == window.KindViewer:
		w.SetFullScreen(true)
	case spec.Width > 0 && spec.Height > 0:
		w.Resize(fyne.NewSize(spec.Width, spec.Height))
	}
	w.SetFixedSize(!spec.Resizable)
	if spec.Centered {
		w.CenterOnScreen()
	}
	if spec.X != 0 || spec.Y != 0 {
		logutil.Debugf("ui: %s: explicit position (%.0f,%.0f) left to the window manager", spec.Label, spec.X, spec.Y)
	}
	if spec.Transparent || spec.AlwaysOnTop {
		logutil.Debugf("ui: %s: transparent=%v alwaysOnTop=%v not available, drawing opaque", spec.Label, spec.Transparent, spec.AlwaysOnTop)
	}

	w.Show()
	if spec.Focused {
		w.RequestFocus()
	}
	log.Printf("ui: built %s window %s", spec.Label, spec.ID)
	return hd, nil
}

// view is the content of one window.
type view interface {
	content() fyne.CanvasObject
	// handle receives bus events addressed to the window, on the emitting
	// goroutine; UI changes must go through fyne.Do.
	handle(ev events.Event)
}

func (h *Host) newView(spec window.Spec, hd *handle) (view, error) {
	switch spec.Kind {
	case window.KindMain:
		return newMainView(h), nil
	case window.KindOverlay:
		return newOverlayView(), nil
	case window.KindViewer:
		return newViewerView(hd), nil
	case window.KindSettings:
		return newSettingsView(h.currentSettings(), hd), nil
	case window.KindSkillGraph:
		return newSkillGraphView(h), nil
	}
	return nil, fmt.Errorf("unknown window kind %q", spec.Kind)
}

// handle is a fyne window seen through window.Handle.
type handle struct {
	id    string
	label string
	win   fyne.Window
	bus   *events.Bus
	view  view

	onClosed    func()
	unsubscribe func()
	closed      atomic.Bool
	finishOnce  sync.Once
}

func (hd *handle) ID() string    { return hd.id }
func (hd *handle) Label() string { return hd.label }

func (hd *handle) Emit(name string, payload any) error {
	if hd.closed.Load() {
		return fmt.Errorf("%w: %s", ErrClosed, hd.label)
	}
	hd.bus.Emit(events.Event{Name: name, Window: hd.id, Payload: payload})
	return nil
}

func (hd *handle) Show() error {
	if hd.closed.Load() {
		return ErrClosed
	}
	fyne.DoAndWait(hd.win.Show)
	return nil
}

func (hd *handle) Hide() error {
	if hd.closed.Load() {
		return ErrClosed
	}
	fyne.DoAndWait(hd.win.Hide)
	return nil
}

func (hd *handle) Focus() error {
	if hd.closed.Load() {
		return ErrClosed
	}
	fyne.DoAndWait(hd.win.RequestFocus)
	return nil
}

func (hd *handle) Close() error {
	if hd.closed.Load() {
		return nil
	}
	fyne.DoAndWait(hd.win.Close)
	return nil
}

// SetIgnoreCursorEvents is not available through fyne; the overlay still
// draws but takes the clicks.
func (hd *handle) SetIgnoreCursorEvents(ignore bool) error {
	if !ignore {
		return nil
	}
	return window.ErrUnsupported
}

// closeAsync is for view callbacks running on the UI goroutine.
func (hd *handle) closeAsync() {
	fyne.Do(hd.win.Close)
}

func (hd *handle) finish() {
	hd.finishOnce.Do(func() {
		hd.closed.Store(true)
		if hd.unsubscribe != nil {
			hd.unsubscribe()
		}
		if hd.onClosed != nil {
			hd.onClosed()
		}
	})
}
