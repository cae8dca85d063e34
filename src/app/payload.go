package app

import "lighthouse/src/vision"

// Point and Box are the annotation shapes the overlay and viewer draw, in
// coordinates normalised to the captured image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Box struct {
	XMin float64 `json:"xMin"`
	YMin float64 `json:"yMin"`
	XMax float64 `json:"xMax"`
	YMax float64 `json:"yMax"`
}

// OverlayPayload is pushed to the overlay window as overlay-data.
type OverlayPayload struct {
	Points           []Point `json:"points"`
	Boxes            []Box   `json:"boxes"`
	WalkthroughSteps *uint32 `json:"walkthroughSteps,omitempty"`
	CurrentStep      *uint32 `json:"currentStep,omitempty"`
	Instruction      *string `json:"instruction,omitempty"`
	Caption          *string `json:"caption,omitempty"`
	IsComplete       *bool   `json:"isComplete,omitempty"`
}

// ViewerPayload is pushed to the fullscreen viewer as fullscreen-data.
type ViewerPayload struct {
	Image   string  `json:"image"`
	Points  []Point `json:"points"`
	Boxes   []Box   `json:"boxes"`
	Caption string  `json:"caption,omitempty"`
}

func normalise(points []Point, boxes []Box) ([]Point, []Box) {
	if points == nil {
		points = []Point{}
	}
	if boxes == nil {
		boxes = []Box{}
	}
	return points, boxes
}

// PointsFromVision converts API points to overlay points.
func PointsFromVision(in []vision.Point) []Point {
	out := make([]Point, 0, len(in))
	for _, p := range in {
		out = append(out, Point{X: p.X, Y: p.Y})
	}
	return out
}

// BoxesFromVision converts API boxes to overlay boxes.
func BoxesFromVision(in []vision.BoundingBox) []Box {
	out := make([]Box, 0, len(in))
	for _, b := range in {
		out = append(out, Box{XMin: b.XMin, YMin: b.YMin, XMax: b.XMax, YMax: b.YMax})
	}
	return out
}
