package ui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lighthouse/src/app"
	"lighthouse/src/events"
	"lighthouse/src/screenshot"
)

// viewerView shows a screenshot full screen with the annotations drawn on
// the image. Escape closes it.
type viewerView struct {
	hd      *handle
	image   *canvas.Image
	marks   *annotations
	layer   *fyne.Container
	caption *widget.Label
	root    fyne.CanvasObject
}

func newViewerView(hd *handle) *viewerView {
	v := &viewerView{hd: hd, marks: &annotations{}}
	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	v.layer = container.New(v.marks)
	v.caption = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	v.caption.Wrapping = fyne.TextWrapWord

	closeBtn := widget.NewButton("Close", hd.closeAsync)
	v.root = container.NewBorder(nil, container.NewBorder(nil, nil, nil, closeBtn, v.caption), nil, nil,
		container.NewStack(v.image, v.layer))

	hd.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			hd.closeAsync()
		}
	})
	return v
}

func (v *viewerView) content() fyne.CanvasObject { return v.root }

func (v *viewerView) handle(ev events.Event) {
	if ev.Name != events.FullscreenData {
		return
	}
	var p app.ViewerPayload
	if !decodePayload(ev.Payload, &p) {
		log.Printf("ui: viewer: unreadable %s payload %T", ev.Name, ev.Payload)
		return
	}
	img, err := screenshot.DecodeImage(p.Image)
	if err != nil {
		log.Printf("ui: viewer: %v", err)
	}
	fyne.Do(func() {
		if img != nil {
			b := img.Bounds()
			v.image.Image = img
			v.image.Refresh()
			v.marks.frame = func(size fyne.Size) (fyne.Position, fyne.Size) {
				return containFrame(b.Dx(), b.Dy(), size)
			}
		}
		v.marks.points, v.marks.boxes = p.Points, p.Boxes
		v.layer.Objects = v.marks.objects()
		v.layer.Refresh()
		v.caption.SetText(p.Caption)
	})
}
