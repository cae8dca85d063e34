package app

import (
	"fmt"
	"log"

	"lighthouse/src/events"
	"lighthouse/src/handshake"
	"lighthouse/src/screenshot"
	"lighthouse/src/skills"
	"lighthouse/src/window"
)

// TakeScreenshot captures the configured part of the primary display with
// the main window out of the way, and returns it as a PNG data URL.
func (a *App) TakeScreenshot() (string, error) {
	s := a.settings()
	opts := screenshot.Options{WidthRatio: s.ratio, Scale: s.scale}

	a.captureMu.Lock()
	defer a.captureMu.Unlock()

	main, ok := a.windows.Get(window.LabelMain)
	if !ok {
		return a.capture(opts)
	}
	var url string
	err := window.WithHidden(main, s.fade, func() error {
		var err error
		url, err = a.capture(opts)
		return err
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// openWithHandshake builds spec and pushes payload as dataEvent once the
// window reports readyEvent, or after the ready timeout.
func (a *App) openWithHandshake(spec window.Spec, readyEvent, dataEvent string, payload any) (window.Handle, *handshake.Delivery, error) {
	spec.ID = window.NewID()
	// Subscribe before the window exists so a fast ready is not missed.
	ready, cancel := a.bus.Once(spec.ID, readyEvent)

	h, err := a.windows.Replace(spec)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	d := handshake.Deliver(spec.Label, ready, cancel, a.settings().readyTimeout, func() error {
		return h.Emit(dataEvent, payload)
	})
	return h, d, nil
}

// OpenScreenOverlay shows the click-through annotation overlay over the
// captured area and delivers p to it.
func (a *App) OpenScreenOverlay(p OverlayPayload) error {
	_, err := a.openOverlay(p)
	return err
}

func (a *App) openOverlay(p OverlayPayload) (*handshake.Delivery, error) {
	w, h, err := a.screenSize()
	if err != nil {
		return nil, err
	}
	p.Points, p.Boxes = normalise(p.Points, p.Boxes)

	spec := window.Spec{
		Label:        window.LabelOverlay,
		Kind:         window.KindOverlay,
		Title:        "Screen Overlay",
		Width:        float32(float64(w) * a.settings().ratio),
		Height:       float32(h),
		X:            0,
		Y:            0,
		Decorations:  false,
		Transparent:  true,
		AlwaysOnTop:  true,
		ClickThrough: true,
	}
	handle, d, err := a.openWithHandshake(spec, events.OverlayReady, events.OverlayData, p)
	if err != nil {
		return nil, err
	}
	window.IgnoreFailure("make overlay click-through", func() error {
		return handle.SetIgnoreCursorEvents(true)
	})
	return d, nil
}

// UpdateScreenOverlayData pushes p to the open overlay.
func (a *App) UpdateScreenOverlayData(p OverlayPayload) error {
	h, ok := a.windows.Get(window.LabelOverlay)
	if !ok {
		return ErrNoOverlay
	}
	p.Points, p.Boxes = normalise(p.Points, p.Boxes)
	if err := h.Emit(events.OverlayData, p); err != nil {
		return fmt.Errorf("Failed to emit overlay-data: %v", err)
	}
	return nil
}

// CloseScreenOverlay closes the overlay if there is one.
func (a *App) CloseScreenOverlay() error {
	return a.windows.Close(window.LabelOverlay)
}

// OpenFullscreenViewer shows a screenshot with annotations over the whole
// primary display.
func (a *App) OpenFullscreenViewer(p ViewerPayload) error {
	_, err := a.openViewer(p)
	return err
}

func (a *App) openViewer(p ViewerPayload) (*handshake.Delivery, error) {
	w, h, err := a.screenSize()
	if err != nil {
		return nil, err
	}
	p.Points, p.Boxes = normalise(p.Points, p.Boxes)

	spec := window.Spec{
		Label:       window.LabelViewer,
		Kind:        window.KindViewer,
		Title:       "Lighthouse Viewer",
		Width:       float32(w),
		Height:      float32(h),
		Decorations: false,
		AlwaysOnTop: true,
		Focused:     true,
	}
	_, d, err := a.openWithHandshake(spec, events.ViewerReady, events.FullscreenData, p)
	return d, err
}

func (a *App) OpenSettingsWindow() error {
	_, err := a.windows.Replace(window.Spec{
		Label:       window.LabelSettings,
		Kind:        window.KindSettings,
		Title:       "Lighthouse Settings",
		Width:       560,
		Height:      420,
		Centered:    true,
		Resizable:   true,
		Decorations: false,
		Transparent: true,
		Focused:     true,
	})
	return err
}

func (a *App) OpenSkillGraphWindow() error {
	_, err := a.windows.Replace(window.Spec{
		Label:       window.LabelSkillGraph,
		Kind:        window.KindSkillGraph,
		Title:       "Skill Graph",
		Width:       900,
		Height:      640,
		Centered:    true,
		Resizable:   true,
		Decorations: true,
		Focused:     true,
	})
	return err
}

// GetSkillsData returns the skills file as a JSON string.
func (a *App) GetSkillsData() (string, error) {
	path := a.settings().skillsFile
	f, err := skills.Load(path)
	if err != nil {
		log.Printf("app: skills: %v", err)
		return "", err
	}
	return f.JSON()
}
