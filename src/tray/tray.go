// Package tray installs the Lighthouse status-bar icon and reports menu
// clicks as actions.
package tray

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// Action is a menu click.
type Action int

const (
	ActionShow Action = iota + 1
	ActionSettings
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionShow:
		return "show"
	case ActionSettings:
		return "settings"
	case ActionQuit:
		return "quit"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

type Config struct {
	Title   string
	Tooltip string
	// About is shown by the About item.
	About string
}

// readyTimeout bounds how long Start waits for the menu where the tray runs
// its own loop.
var readyTimeout = 5 * time.Second

// Tray is the installed icon. Quit removes it.
type Tray struct {
	cfg     Config
	icon    []byte
	actions chan Action
	ready   chan struct{}
	quit    sync.Once
}

// Start installs the icon. Clicks arrive on Actions. An icon that cannot be
// built is an error; the app has no other way back to a hidden main window.
func Start(cfg Config) (*Tray, error) {
	icon, err := Icon()
	if err != nil {
		return nil, fmt.Errorf("failed to build tray icon: %w", err)
	}
	t := &Tray{cfg: cfg, icon: icon, actions: make(chan Action, 4), ready: make(chan struct{})}
	if err := start(t); err != nil {
		return nil, fmt.Errorf("failed to build tray icon: %w", err)
	}
	return t, nil
}

func (t *Tray) Actions() <-chan Action { return t.actions }

// Ready is closed once the menu exists.
func (t *Tray) Ready() <-chan struct{} { return t.ready }

func (t *Tray) SetTooltip(tt string) { systray.SetTooltip(tt) }

func (t *Tray) Quit() {
	t.quit.Do(systray.Quit)
}

func (t *Tray) onReady() {
	systray.SetIcon(t.icon)
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mShow := systray.AddMenuItem("Show Lighthouse", "Bring the main window forward")
	mSettings := systray.AddMenuItem("Settings…", "Open the settings window")
	mAbout := systray.AddMenuItem("About", "About Lighthouse")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit Lighthouse")
	close(t.ready)

	go func() {
		for {
			select {
			case <-mShow.ClickedCh:
				t.post(ActionShow)
			case <-mSettings.ClickedCh:
				t.post(ActionSettings)
			case <-mAbout.ClickedCh:
				showAbout(t.cfg.Title, t.cfg.About)
			case <-mQuit.ClickedCh:
				t.post(ActionQuit)
				return
			}
		}
	}()
}

func (t *Tray) post(a Action) {
	select {
	case t.actions <- a:
	default:
		log.Printf("tray: dropping %s click, loop busy", a)
	}
}

func (t *Tray) onExit() {
	log.Printf("tray: exited")
}
