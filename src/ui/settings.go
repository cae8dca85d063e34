package ui

import (
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lighthouse/src/events"
)

type settingsView struct {
	root fyne.CanvasObject
}

func newSettingsView(s Settings, hd *handle) *settingsView {
	status := widget.NewLabel(keyStatus(s.KeySource))
	status.Wrapping = fyne.TextWrapWord

	key := widget.NewPasswordEntry()
	key.SetPlaceHolder("Moondream API key")

	save := widget.NewButton("Save to keychain", func() {
		k := strings.TrimSpace(key.Text)
		if k == "" {
			status.SetText("Enter a key first.")
			return
		}
		if s.SaveKey == nil {
			status.SetText("Saving is not available.")
			return
		}
		if err := s.SaveKey(k); err != nil {
			log.Printf("ui: settings: save key: %v", err)
			status.SetText("Could not save the key: " + err.Error())
			return
		}
		key.SetText("")
		status.SetText(keyStatus("keyring"))
	})
	save.Importance = widget.HighImportance

	remove := widget.NewButton("Remove from keychain", func() {
		if s.ClearKey == nil {
			return
		}
		if err := s.ClearKey(); err != nil {
			log.Printf("ui: settings: clear key: %v", err)
			status.SetText("Could not remove the key: " + err.Error())
			return
		}
		status.SetText("Key removed from the keychain.")
	})

	form := widget.NewForm(
		widget.NewFormItem("Shortcut", widget.NewLabel(s.Hotkey)),
		widget.NewFormItem("Bridge", widget.NewLabel("http://"+s.BridgeAddr)),
		widget.NewFormItem("API key", key),
	)

	title := widget.NewLabelWithStyle("Lighthouse Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	closeBtn := widget.NewButton("Close", hd.closeAsync)

	return &settingsView{root: container.NewBorder(
		container.NewBorder(nil, nil, nil, closeBtn, title),
		container.NewHBox(save, remove),
		nil, nil,
		container.NewVBox(form, status),
	)}
}

func keyStatus(source string) string {
	switch source {
	case "file":
		return "Using the key from the key file."
	case "keyring":
		return "Using the key stored in the keychain."
	case "env":
		return "Using the key from the environment."
	}
	return "No API key configured."
}

func (v *settingsView) content() fyne.CanvasObject { return v.root }

func (v *settingsView) handle(events.Event) {}
