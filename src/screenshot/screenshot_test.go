package screenshot

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestCaptureDataURL(t *testing.T) {
	// Needs a display; headless runs only log.
	url, err := CaptureDataURL(Options{WidthRatio: 0.75})
	if err != nil {
		t.Logf("Failed to capture screenshot (expected in headless environment): %v", err)
		return
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("Unexpected data URL prefix: %.40s", url)
	}
}

func TestPrimaryBounds(t *testing.T) {
	if _, err := PrimaryBounds(); err != nil {
		t.Logf("Failed to get display bounds (expected in headless environment): %v", err)
	}
}

func TestLeftFraction(t *testing.T) {
	tests := []struct {
		name  string
		b     image.Rectangle
		ratio float64
		want  image.Rectangle
	}{
		{"three quarters", image.Rect(0, 0, 1920, 1080), 0.75, image.Rect(0, 0, 1440, 1080)},
		{"offset display", image.Rect(100, 50, 1100, 850), 0.5, image.Rect(100, 50, 600, 850)},
		{"full", image.Rect(0, 0, 800, 600), 1, image.Rect(0, 0, 800, 600)},
		{"zero means full", image.Rect(0, 0, 800, 600), 0, image.Rect(0, 0, 800, 600)},
		{"too large means full", image.Rect(0, 0, 800, 600), 1.5, image.Rect(0, 0, 800, 600)},
		{"never empty", image.Rect(0, 0, 10, 10), 0.01, image.Rect(0, 0, 1, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LeftFraction(tt.b, tt.ratio); got != tt.want {
				t.Errorf("LeftFraction(%v, %v) = %v, want %v", tt.b, tt.ratio, got, tt.want)
			}
		})
	}
}

func TestScale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	half := Scale(img, 0.5)
	if b := half.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("Expected 100x50, got %v", b)
	}
	if Scale(img, 1) != image.Image(img) || Scale(img, 0) != image.Image(img) {
		t.Fatal("Expected identity for scale outside (0,1)")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(1, 1, color.RGBA{G: 255, A: 255})
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	url := DataURL(data)
	back, err := DecodeImage(url)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if back.Bounds() != img.Bounds() {
		t.Fatalf("Expected bounds %v, got %v", img.Bounds(), back.Bounds())
	}

	if _, err := DecodeDataURL("data:text/plain;base64,aGk="); err == nil {
		t.Error("Expected error for non-PNG data URL")
	}
}
