// Package app implements the commands the Lighthouse windows and the UI
// bridge call: capture, overlay and viewer windows, window pairing and the
// vision requests.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lighthouse/src/appstate"
	"lighthouse/src/config"
	"lighthouse/src/events"
	"lighthouse/src/focusstate"
	"lighthouse/src/handshake"
	"lighthouse/src/screenshot"
	"lighthouse/src/vision"
	"lighthouse/src/window"
)

var (
	ErrNoOverlay         = errors.New("No overlay window exists. Use open_screen_overlay first.")
	ErrMainWindowMissing = errors.New("Main window not found")
)

// VisionClient is the subset of vision.Client the commands use.
type VisionClient interface {
	Query(ctx context.Context, image, question string) (*vision.QueryResult, error)
	Point(ctx context.Context, image, object string) (*vision.PointResult, error)
	Detect(ctx context.Context, image, object string) (*vision.DetectResult, error)
	SetAPIKey(key string)
}

// Arranger lists and tiles external windows.
type Arranger interface {
	Enumerate(ctx context.Context) ([]focusstate.WindowInfo, error)
	Arrange(ctx context.Context, target focusstate.WindowInfo, w, h int, ratio float64) error
}

type Options struct {
	Host     window.Host
	Bus      *events.Bus
	State    *appstate.State
	Store    *focusstate.Store
	Vision   VisionClient
	Arranger Arranger
	// ArrangeSupported is false where the platform cannot move other
	// applications' windows; show_main_window then skips re-arranging.
	ArrangeSupported bool

	// Capture returns a PNG data URL of the primary display.
	Capture func(screenshot.Options) (string, error)
	// ScreenSize returns the primary display size.
	ScreenSize func() (w, h int, err error)
	CopyText   func(text string) error
	SkillsFile string

	CaptureWidthRatio float64
	CaptureScale      float64
	ReadyTimeout      time.Duration
	Fade              window.Strategy
	VisionDeadline    time.Duration
}

type tuning struct {
	ratio          float64
	scale          float64
	readyTimeout   time.Duration
	fade           window.Strategy
	visionDeadline time.Duration
	skillsFile     string
}

type App struct {
	bus      *events.Bus
	state    *appstate.State
	store    *focusstate.Store
	windows  *window.Manager
	vision   VisionClient
	arranger Arranger
	canArr   bool

	capture    func(screenshot.Options) (string, error)
	screenSize func() (int, int, error)
	copyText   func(string) error

	// captureMu keeps two captures from interleaving hide and restore of
	// the main window.
	captureMu sync.Mutex

	mu  sync.RWMutex
	cfg tuning
}

func New(o Options) *App {
	if o.Bus == nil {
		o.Bus = events.NewBus()
	}
	if o.State == nil {
		o.State = appstate.New()
	}
	if o.Capture == nil {
		o.Capture = screenshot.CaptureDataURL
	}
	if o.ScreenSize == nil {
		o.ScreenSize = primaryScreenSize
	}
	if o.CaptureWidthRatio <= 0 || o.CaptureWidthRatio > 1 {
		o.CaptureWidthRatio = 0.75
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = handshake.DefaultTimeout
	}
	if o.Fade.Mode == "" {
		o.Fade = window.DefaultStrategy(window.Instant)
	}
	if o.VisionDeadline <= 0 {
		o.VisionDeadline = 30 * time.Second
	}
	return &App{
		bus:        o.Bus,
		state:      o.State,
		store:      o.Store,
		windows:    window.NewManager(o.Host),
		vision:     o.Vision,
		arranger:   o.Arranger,
		canArr:     o.ArrangeSupported,
		capture:    o.Capture,
		screenSize: o.ScreenSize,
		copyText:   o.CopyText,
		cfg: tuning{
			ratio:          o.CaptureWidthRatio,
			scale:          o.CaptureScale,
			readyTimeout:   o.ReadyTimeout,
			fade:           o.Fade,
			visionDeadline: o.VisionDeadline,
			skillsFile:     o.SkillsFile,
		},
	}
}

func primaryScreenSize() (int, int, error) {
	b, err := screenshot.PrimaryBounds()
	if err != nil {
		return 0, 0, fmt.Errorf("No screen found: %w", err)
	}
	return b.Dx(), b.Dy(), nil
}

func (a *App) Bus() *events.Bus         { return a.bus }
func (a *App) State() *appstate.State   { return a.state }
func (a *App) Windows() *window.Manager { return a.windows }

func (a *App) settings() tuning {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// ApplyConfig takes over the live-tunable values of a reloaded configuration.
func (a *App) ApplyConfig(c *config.Config) {
	a.mu.Lock()
	a.cfg.ratio = c.CaptureWidthRatio
	a.cfg.scale = c.CaptureScale
	a.cfg.readyTimeout = time.Duration(c.ReadyTimeoutSec) * time.Second
	a.cfg.fade = window.DefaultStrategy(window.ParseMode(c.FadeMode))
	a.cfg.visionDeadline = time.Duration(c.VisionDeadlineSec) * time.Second
	a.cfg.skillsFile = c.SkillsFile
	a.mu.Unlock()

	if a.vision != nil {
		a.vision.SetAPIKey(c.APIKey)
	}
	log.Printf("app: configuration applied (ratio=%.2f fade=%s ready=%ds)", c.CaptureWidthRatio, c.FadeMode, c.ReadyTimeoutSec)
}

// AttachMain registers the main window built at startup.
func (a *App) AttachMain(h window.Handle) {
	a.windows.Register(h)
}

// RestoreFocusState loads the saved pairing into memory without arranging.
func (a *App) RestoreFocusState() {
	if a.store == nil {
		return
	}
	info, err := a.store.Load()
	if err != nil {
		log.Printf("app: failed to load focus state: %v", err)
		return
	}
	if info != nil {
		log.Printf("app: restored paired window %s / %q", info.OwnerName, info.WindowName)
		a.state.SetFocusedWindow(info)
	}
}

// ProceedShortcut tells every window the global shortcut fired.
func (a *App) ProceedShortcut() {
	a.bus.Emit(events.Event{Name: events.ProceedShortcutTriggered, Window: events.Broadcast})
}

// CopyText puts text on the system clipboard.
func (a *App) CopyText(text string) error {
	if a.copyText == nil {
		return errors.New("clipboard is not available")
	}
	return a.copyText(text)
}
