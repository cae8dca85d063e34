package tray

import "github.com/getlantern/systray"

// On macOS the status item lives on the main thread's run loop, which the
// window toolkit already drives, so onReady only fires once that loop runs.
func start(t *Tray) error {
	systray.Register(t.onReady, t.onExit)
	return nil
}

func showAbout(title, message string) {
	logAbout(title, message)
}
