package screenshot

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"
)

const dataURLPrefix = "data:image/png;base64,"

// Options selects what part of the primary display is captured.
type Options struct {
	// WidthRatio keeps the left WidthRatio of the display; values outside
	// (0,1] mean the full width.
	WidthRatio float64
	// Scale resizes the capture before encoding; values outside (0,1) keep
	// the native resolution.
	Scale float64
}

// PrimaryBounds returns the bounds of the primary display.
func PrimaryBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}

// LeftFraction returns the left ratio of b, anchored at b's origin.
func LeftFraction(b image.Rectangle, ratio float64) image.Rectangle {
	if ratio <= 0 || ratio > 1 {
		return b
	}
	w := int(float64(b.Dx()) * ratio)
	if w < 1 {
		w = 1
	}
	return image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Max.Y)
}

// CapturePNG grabs the configured part of the primary display as PNG bytes.
func CapturePNG(opts Options) ([]byte, error) {
	bounds, err := PrimaryBounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(LeftFraction(bounds, opts.WidthRatio))
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %v", err)
	}
	return EncodePNG(Scale(img, opts.Scale))
}

// CaptureDataURL is CapturePNG wrapped as a data:image/png;base64 URL.
func CaptureDataURL(opts Options) (string, error) {
	data, err := CapturePNG(opts)
	if err != nil {
		return "", err
	}
	return DataURL(data), nil
}

// Scale resizes img by s; s outside (0,1) returns img unchanged.
func Scale(img image.Image, s float64) image.Image {
	if s <= 0 || s >= 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*s))
	h := max(1, int(float64(b.Dy())*s))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return buf.Bytes(), nil
}

func DataURL(pngData []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(pngData)
}

// DecodeDataURL returns the PNG bytes of a data URL built by DataURL.
func DecodeDataURL(url string) ([]byte, error) {
	if !strings.HasPrefix(url, dataURLPrefix) {
		return nil, fmt.Errorf("not a PNG data URL")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, dataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid data URL payload: %v", err)
	}
	return data, nil
}

// DecodeImage parses a data URL back into an image.
func DecodeImage(url string) (image.Image, error) {
	data, err := DecodeDataURL(url)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %v", err)
	}
	return img, nil
}
