package ui

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lighthouse/src/app"
	"lighthouse/src/events"
)

// overlayView draws points and boxes over the captured area with an
// optional caption and walkthrough progress.
type overlayView struct {
	marks   *annotations
	layer   *fyne.Container
	caption *widget.Label
	step    *widget.Label
	root    fyne.CanvasObject
}

func newOverlayView() *overlayView {
	v := &overlayView{marks: &annotations{}}
	v.layer = container.New(v.marks)
	v.caption = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	v.caption.Wrapping = fyne.TextWrapWord
	v.step = widget.NewLabel("")
	v.root = container.NewStack(v.layer, container.NewVBox(v.caption, v.step))
	return v
}

func (v *overlayView) content() fyne.CanvasObject { return v.root }

func (v *overlayView) handle(ev events.Event) {
	if ev.Name != events.OverlayData {
		return
	}
	var p app.OverlayPayload
	if !decodePayload(ev.Payload, &p) {
		log.Printf("ui: overlay: unreadable %s payload %T", ev.Name, ev.Payload)
		return
	}
	fyne.Do(func() { v.apply(p) })
}

func (v *overlayView) apply(p app.OverlayPayload) {
	v.marks.points, v.marks.boxes = p.Points, p.Boxes
	v.layer.Objects = v.marks.objects()
	v.layer.Refresh()

	v.caption.SetText(overlayCaption(p))
	v.step.SetText(stepText(p))
}

func overlayCaption(p app.OverlayPayload) string {
	switch {
	case p.Instruction != nil && *p.Instruction != "":
		return *p.Instruction
	case p.Caption != nil:
		return *p.Caption
	}
	return ""
}

func stepText(p app.OverlayPayload) string {
	if p.IsComplete != nil && *p.IsComplete {
		return "Done"
	}
	if p.WalkthroughSteps == nil || *p.WalkthroughSteps == 0 {
		return ""
	}
	cur := uint32(0)
	if p.CurrentStep != nil {
		cur = *p.CurrentStep
	}
	return fmt.Sprintf("Step %d of %d", cur+1, *p.WalkthroughSteps)
}
