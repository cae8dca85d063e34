//go:build !windows && !darwin

package tray

func showAbout(title, message string) {
	logAbout(title, message)
}
