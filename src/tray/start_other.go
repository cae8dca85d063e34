//go:build !darwin

package tray

import (
	"errors"
	"runtime"
	"time"

	"github.com/getlantern/systray"
)

var runTray = systray.Run

var errNotReady = errors.New("tray did not come up")

func start(t *Tray) error {
	go func() {
		runtime.LockOSThread()
		runTray(t.onReady, t.onExit)
	}()

	select {
	case <-t.ready:
		return nil
	case <-time.After(readyTimeout):
		return errNotReady
	}
}
