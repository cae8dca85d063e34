package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"errors"
	"log"
	"runtime"
)

const iconSize = 32

// renderIcon draws the PNG the icon is built from; tests replace it.
var renderIcon = renderPNG

// Icon returns the tray icon in the format the platform tray expects: ICO on
// Windows, PNG elsewhere.
func Icon() ([]byte, error) {
	data, err := renderIcon()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty icon image")
	}
	if runtime.GOOS == "windows" {
		data = wrapICO(data, iconSize)
	}
	return data, nil
}

// renderPNG draws a lamp disc with a beam on a transparent square.
func renderPNG() ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	lamp := color.NRGBA{R: 0xF5, G: 0xB7, B: 0x00, A: 0xFF}
	beam := color.NRGBA{R: 0xF5, G: 0xB7, B: 0x00, A: 0x90}
	c := iconSize / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := x-c, y-c
			switch {
			case dx*dx+dy*dy <= 36:
				img.SetNRGBA(x, y, lamp)
			case dx > 0 && abs(dy)*3 <= dx:
				img.SetNRGBA(x, y, beam)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO embeds a PNG in a single-image ICO container.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size))
	buf.WriteByte(0) // palette
	buf.WriteByte(0) // reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32)) // bpp
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func logAbout(title, message string) {
	log.Printf("%s: %s", title, message)
}
