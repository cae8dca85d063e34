package ui

import (
	"context"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lighthouse/src/app"
	"lighthouse/src/events"
	"lighthouse/src/window"
)

func TestPointGeometry(t *testing.T) {
	pos, size := pointGeometry(app.Point{X: 0.5, Y: 0.25}, fyne.NewPos(0, 0), fyne.NewSize(800, 400))
	assert.Equal(t, fyne.NewPos(400-pointRadius, 100-pointRadius), pos)
	assert.Equal(t, fyne.NewSize(2*pointRadius, 2*pointRadius), size)

	// Out of range coordinates stick to the edge.
	pos, _ = pointGeometry(app.Point{X: 1.5, Y: -1}, fyne.NewPos(10, 20), fyne.NewSize(100, 100))
	assert.Equal(t, fyne.NewPos(110-pointRadius, 20-pointRadius), pos)
}

func TestBoxGeometry(t *testing.T) {
	pos, size := boxGeometry(app.Box{XMin: 0.1, YMin: 0.2, XMax: 0.6, YMax: 0.7}, fyne.NewPos(0, 0), fyne.NewSize(1000, 500))
	assert.InDelta(t, 100, pos.X, 0.01)
	assert.InDelta(t, 100, pos.Y, 0.01)
	assert.InDelta(t, 500, size.Width, 0.01)
	assert.InDelta(t, 250, size.Height, 0.01)

	// Swapped corners are normalised.
	pos2, size2 := boxGeometry(app.Box{XMin: 0.6, YMin: 0.7, XMax: 0.1, YMax: 0.2}, fyne.NewPos(0, 0), fyne.NewSize(1000, 500))
	assert.Equal(t, pos, pos2)
	assert.Equal(t, size, size2)
}

func TestContainFrame(t *testing.T) {
	// A 2:1 image in a square is letterboxed top and bottom.
	pos, size := containFrame(200, 100, fyne.NewSize(400, 400))
	assert.Equal(t, fyne.NewPos(0, 100), pos)
	assert.Equal(t, fyne.NewSize(400, 200), size)

	// A 1:2 image is pillarboxed.
	pos, size = containFrame(100, 200, fyne.NewSize(400, 400))
	assert.Equal(t, fyne.NewPos(100, 0), pos)
	assert.Equal(t, fyne.NewSize(200, 400), size)

	pos, size = containFrame(0, 0, fyne.NewSize(10, 10))
	assert.Equal(t, fyne.NewPos(0, 0), pos)
	assert.Equal(t, fyne.NewSize(10, 10), size)
}

func TestAnnotationsLayout(t *testing.T) {
	a := &annotations{
		points: []app.Point{{X: 0, Y: 0}},
		boxes:  []app.Box{{XMin: 0, YMin: 0, XMax: 1, YMax: 1}},
		frame: func(size fyne.Size) (fyne.Position, fyne.Size) {
			return fyne.NewPos(5, 5), fyne.NewSize(size.Width-10, size.Height-10)
		},
	}
	objs := a.objects()
	require.Len(t, objs, 2)

	a.Layout(objs, fyne.NewSize(110, 60))
	assert.Equal(t, fyne.NewPos(5-pointRadius, 5-pointRadius), objs[0].Position())
	assert.Equal(t, fyne.NewPos(5, 5), objs[1].Position())
	assert.Equal(t, fyne.NewSize(100, 50), objs[1].Size())
}

func TestDecodePayload(t *testing.T) {
	caption := "here"
	typed := app.OverlayPayload{Points: []app.Point{{X: 0.1, Y: 0.2}}, Caption: &caption}

	var got app.OverlayPayload
	require.True(t, decodePayload(typed, &got))
	assert.Equal(t, "here", *got.Caption)

	got = app.OverlayPayload{}
	require.True(t, decodePayload(&typed, &got))
	assert.Len(t, got.Points, 1)

	generic := map[string]any{
		"points": []any{map[string]any{"x": 0.3, "y": 0.4}},
		"boxes":  []any{map[string]any{"xMin": 0.0, "yMin": 0.0, "xMax": 1.0, "yMax": 0.5}},
	}
	got = app.OverlayPayload{}
	require.True(t, decodePayload(generic, &got))
	assert.Equal(t, 0.3, got.Points[0].X)
	assert.Equal(t, 0.5, got.Boxes[0].YMax)

	assert.False(t, decodePayload(nil, &got))
	assert.False(t, decodePayload("not an object", &got))
}

func TestStepText(t *testing.T) {
	u := func(v uint32) *uint32 { return &v }
	yes := true
	assert.Equal(t, "", stepText(app.OverlayPayload{}))
	assert.Equal(t, "Step 1 of 3", stepText(app.OverlayPayload{WalkthroughSteps: u(3)}))
	assert.Equal(t, "Step 3 of 3", stepText(app.OverlayPayload{WalkthroughSteps: u(3), CurrentStep: u(2)}))
	assert.Equal(t, "Done", stepText(app.OverlayPayload{WalkthroughSteps: u(3), IsComplete: &yes}))

	instr, caption := "Click Save", "save button"
	assert.Equal(t, "Click Save", overlayCaption(app.OverlayPayload{Instruction: &instr, Caption: &caption}))
	assert.Equal(t, "save button", overlayCaption(app.OverlayPayload{Caption: &caption}))
}

func TestHostOverlayRoundTrip(t *testing.T) {
	fa := test.NewTempApp(t)
	bus := events.NewBus()
	h := NewHost(context.Background(), fa, bus)

	id := window.NewID()
	ready, cancel := bus.Once(id, events.OverlayReady)
	defer cancel()

	closed := make(chan struct{})
	hnd, err := h.Build(window.Spec{
		ID:       id,
		Label:    window.LabelOverlay,
		Kind:     window.KindOverlay,
		Title:    "Screen Overlay",
		Width:    300,
		Height:   200,
		OnClosed: func() { close(closed) },
	})
	require.NoError(t, err)
	assert.Equal(t, id, hnd.ID())

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("overlay never reported ready")
	}

	caption := "target"
	require.NoError(t, hnd.Emit(events.OverlayData, app.OverlayPayload{
		Points:  []app.Point{{X: 0.5, Y: 0.5}},
		Boxes:   []app.Box{},
		Caption: &caption,
	}))

	ov := hnd.(*handle).view.(*overlayView)
	assert.Eventually(t, func() bool {
		var n int
		fyne.DoAndWait(func() { n = len(ov.layer.Objects) })
		return n == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, hnd.Close())
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("OnClosed not called")
	}
	assert.ErrorIs(t, hnd.Emit(events.OverlayData, app.OverlayPayload{}), ErrClosed)
	assert.Equal(t, 0, bus.Count(), "window subscription should be gone")
}

func TestHostRejectsUnknownKind(t *testing.T) {
	fa := test.NewTempApp(t)
	h := NewHost(context.Background(), fa, events.NewBus())
	_, err := h.Build(window.Spec{Label: "odd", Kind: "odd"})
	assert.Error(t, err)
}

func TestKeyStatus(t *testing.T) {
	assert.Contains(t, keyStatus("keyring"), "keychain")
	assert.Equal(t, "No API key configured.", keyStatus(""))
}
