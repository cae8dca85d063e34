package ui

import (
	"encoding/json"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"lighthouse/src/app"
)

const pointRadius float32 = 12

var (
	markColor = color.NRGBA{R: 0xF5, G: 0xB7, B: 0x00, A: 0xFF}
	markFill  = color.NRGBA{R: 0xF5, G: 0xB7, B: 0x00, A: 0x60}
)

// annotations is a fyne.Layout that places point markers and box outlines
// over an area, given in normalised coordinates. Objects are the points in
// order followed by the boxes.
type annotations struct {
	points []app.Point
	boxes  []app.Box
	// frame returns the drawn area within the container; nil means all of it.
	frame func(size fyne.Size) (fyne.Position, fyne.Size)
}

func (a *annotations) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	origin, area := fyne.NewPos(0, 0), size
	if a.frame != nil {
		origin, area = a.frame(size)
	}
	for i, o := range objects {
		var pos fyne.Position
		var sz fyne.Size
		switch {
		case i < len(a.points):
			pos, sz = pointGeometry(a.points[i], origin, area)
		case i-len(a.points) < len(a.boxes):
			pos, sz = boxGeometry(a.boxes[i-len(a.points)], origin, area)
		default:
			continue
		}
		o.Move(pos)
		o.Resize(sz)
	}
}

func (a *annotations) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(0, 0)
}

// objects builds one marker per point and one outline per box.
func (a *annotations) objects() []fyne.CanvasObject {
	out := make([]fyne.CanvasObject, 0, len(a.points)+len(a.boxes))
	for range a.points {
		c := canvas.NewCircle(markFill)
		c.StrokeColor = markColor
		c.StrokeWidth = 3
		out = append(out, c)
	}
	for range a.boxes {
		r := canvas.NewRectangle(color.Transparent)
		r.StrokeColor = markColor
		r.StrokeWidth = 3
		out = append(out, r)
	}
	return out
}

func pointGeometry(p app.Point, origin fyne.Position, area fyne.Size) (fyne.Position, fyne.Size) {
	cx := origin.X + float32(clamp01(p.X))*area.Width
	cy := origin.Y + float32(clamp01(p.Y))*area.Height
	return fyne.NewPos(cx-pointRadius, cy-pointRadius), fyne.NewSize(2*pointRadius, 2*pointRadius)
}

func boxGeometry(b app.Box, origin fyne.Position, area fyne.Size) (fyne.Position, fyne.Size) {
	x0, x1 := clamp01(b.XMin), clamp01(b.XMax)
	y0, y1 := clamp01(b.YMin), clamp01(b.YMax)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	pos := fyne.NewPos(origin.X+float32(x0)*area.Width, origin.Y+float32(y0)*area.Height)
	return pos, fyne.NewSize(float32(x1-x0)*area.Width, float32(y1-y0)*area.Height)
}

// containFrame is the area an image of imgW×imgH takes when scaled to fit
// size with its aspect ratio kept, centred.
func containFrame(imgW, imgH int, size fyne.Size) (fyne.Position, fyne.Size) {
	if imgW <= 0 || imgH <= 0 || size.Width <= 0 || size.Height <= 0 {
		return fyne.NewPos(0, 0), size
	}
	scale := size.Width / float32(imgW)
	if s := size.Height / float32(imgH); s < scale {
		scale = s
	}
	w, h := float32(imgW)*scale, float32(imgH)*scale
	return fyne.NewPos((size.Width-w)/2, (size.Height-h)/2), fyne.NewSize(w, h)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// decodePayload accepts either the typed payload the app emits or the
// generic map a bridged page sends, and fills out.
func decodePayload[T any](payload any, out *T) bool {
	if payload == nil {
		return false
	}
	if v, ok := payload.(T); ok {
		*out = v
		return true
	}
	if v, ok := payload.(*T); ok && v != nil {
		*out = *v
		return true
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}
