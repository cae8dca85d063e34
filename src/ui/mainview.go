package ui

import (
	"fmt"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lighthouse/src/app"
	"lighthouse/src/events"
	"lighthouse/src/focusstate"
)

// mainView is the assistant panel: a prompt with Point and Ask, the window
// pairing picker and links to the other windows.
type mainView struct {
	host *Host

	prompt  *widget.Entry
	locate  *widget.Button
	ask     *widget.Button
	answer  *widget.Label
	status  *widget.Label
	paired  *widget.Label
	picker  *widget.Select
	choices []focusstate.WindowInfo
	pickBox *fyne.Container
	root    fyne.CanvasObject
}

func newMainView(h *Host) *mainView {
	v := &mainView{host: h}

	v.prompt = widget.NewEntry()
	v.prompt.SetPlaceHolder("What are you looking for?")
	v.prompt.OnSubmitted = func(string) { v.runLocate() }

	v.locate = widget.NewButton("Point", v.runLocate)
	v.locate.Importance = widget.HighImportance
	v.ask = widget.NewButton("Ask", v.runAsk)

	v.answer = widget.NewLabel("")
	v.answer.Wrapping = fyne.TextWrapWord
	v.status = widget.NewLabel("")
	v.paired = widget.NewLabel(pairedText(nil))

	v.picker = widget.NewSelect(nil, v.choose)
	v.picker.PlaceHolder = "Choose a window to work beside"
	v.pickBox = container.NewBorder(nil, nil, nil,
		widget.NewButton("Cancel", v.cancelPick), v.picker)
	v.pickBox.Hide()

	pair := widget.NewButton("Pair window…", v.startPick)
	clearOverlay := widget.NewButton("Clear marks", func() {
		v.do("clear overlay", Commands.CloseScreenOverlay)
	})
	skillsBtn := widget.NewButton("Skills", func() {
		v.do("open skills", Commands.OpenSkillGraphWindow)
	})
	settingsBtn := widget.NewButton("Settings", func() {
		v.do("open settings", Commands.OpenSettingsWindow)
	})

	actions := container.NewGridWithColumns(2, v.locate, v.ask)
	tools := container.NewHBox(pair, clearOverlay, skillsBtn, settingsBtn)

	v.root = container.NewBorder(
		container.NewVBox(v.prompt, actions),
		container.NewVBox(v.pickBox, v.paired, tools, v.status),
		nil, nil,
		container.NewVScroll(v.answer),
	)

	if cmds := h.commands(); cmds != nil {
		v.paired.SetText(pairedText(cmds.GetFocusedWindow()))
	}
	return v
}

func (v *mainView) content() fyne.CanvasObject { return v.root }

func (v *mainView) cmds() Commands { return v.host.commands() }

func (v *mainView) handle(ev events.Event) {
	switch ev.Name {
	case events.ProceedShortcutTriggered:
		fyne.Do(v.runLocate)
	case events.SelectionModeChanged:
		on, _ := ev.Payload.(bool)
		fyne.Do(func() {
			if on {
				v.pickBox.Show()
			} else {
				v.pickBox.Hide()
			}
		})
	}
}

// runLocate and runAsk are called on the UI goroutine; the work runs on
// its own so the main window can be hidden for the capture.
func (v *mainView) runLocate() {
	object := strings.TrimSpace(v.prompt.Text)
	if object == "" || v.cmds() == nil {
		return
	}
	v.busy(true, "Looking for "+object+"…")
	go func() {
		p, err := v.cmds().Locate(v.host.ctx, object)
		fyne.Do(func() {
			v.busy(false, "")
			if err != nil {
				log.Printf("ui: locate %q: %v", object, err)
				v.status.SetText("Point failed: " + err.Error())
				return
			}
			v.status.SetText(fmt.Sprintf("Found %d points, %d boxes.", len(p.Points), len(p.Boxes)))
		})
	}()
}

func (v *mainView) runAsk() {
	question := strings.TrimSpace(v.prompt.Text)
	if question == "" || v.cmds() == nil {
		return
	}
	v.busy(true, "Thinking…")
	go func() {
		res, image, err := v.cmds().Ask(v.host.ctx, question)
		if err != nil {
			log.Printf("ui: ask: %v", err)
			fyne.Do(func() {
				v.busy(false, "Ask failed: "+err.Error())
			})
			return
		}
		fyne.Do(func() {
			v.busy(false, "")
			v.answer.SetText(res.Answer)
		})
		v.report("open viewer", func() error {
			return v.cmds().OpenFullscreenViewer(app.ViewerPayload{Image: image, Caption: res.Answer})
		})
	}()
}

func (v *mainView) busy(on bool, status string) {
	if on {
		v.locate.Disable()
		v.ask.Disable()
	} else {
		v.locate.Enable()
		v.ask.Enable()
	}
	v.status.SetText(status)
}

func (v *mainView) startPick() {
	cmds := v.cmds()
	if cmds == nil {
		return
	}
	cmds.StartFocusSelectionMode()
	go func() {
		wins, err := cmds.GetAvailableWindows(v.host.ctx)
		fyne.Do(func() {
			if err != nil {
				v.status.SetText(err.Error())
				return
			}
			v.choices = wins
			opts := make([]string, len(wins))
			for i, w := range wins {
				opts[i] = windowLabel(w)
			}
			v.picker.Options = opts
			v.picker.ClearSelected()
			v.picker.Refresh()
		})
	}()
}

func (v *mainView) cancelPick() {
	if cmds := v.cmds(); cmds != nil {
		cmds.StopFocusSelectionMode()
	}
}

func (v *mainView) choose(label string) {
	var target *focusstate.WindowInfo
	for i, w := range v.choices {
		if windowLabel(w) == label {
			target = &v.choices[i]
			break
		}
	}
	if target == nil {
		return
	}
	info := *target
	cmds := v.cmds()
	cmds.StopFocusSelectionMode()
	go func() {
		err := cmds.ArrangeWindows(v.host.ctx, info)
		fyne.Do(func() {
			if err != nil {
				v.status.SetText(err.Error())
				return
			}
			v.paired.SetText(pairedText(&info))
			v.status.SetText("")
		})
	}()
}

// do runs fn against the bound commands off the UI goroutine.
func (v *mainView) do(what string, fn func(Commands) error) {
	cmds := v.cmds()
	if cmds == nil {
		return
	}
	go v.report(what, func() error { return fn(cmds) })
}

// report runs fn and shows its error, if any.
func (v *mainView) report(what string, fn func() error) {
	if err := fn(); err != nil {
		log.Printf("ui: %s: %v", what, err)
		fyne.Do(func() { v.status.SetText(err.Error()) })
	}
}

func windowLabel(w focusstate.WindowInfo) string {
	if w.WindowName == "" {
		return w.OwnerName
	}
	return w.OwnerName + " - " + w.WindowName
}

func pairedText(w *focusstate.WindowInfo) string {
	if w == nil {
		return "Not paired with a window."
	}
	return "Paired with " + windowLabel(*w)
}
