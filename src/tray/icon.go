package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 32

var (
	iconFrame = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	iconBolt  = color.NRGBA{R: 0xff, G: 0xc1, B: 0x07, A: 0xff}
)

// iconImage draws a dashed selection frame with a lightning bolt inside.
func iconImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	for i := 2; i < iconSize-2; i++ {
		if (i/3)%2 == 1 {
			continue
		}
		for _, w := range []int{2, 3} {
			img.Set(i, w, iconFrame)
			img.Set(i, iconSize-1-w, iconFrame)
			img.Set(w, i, iconFrame)
			img.Set(iconSize-1-w, i, iconFrame)
		}
	}
	// bolt: two slanted strokes joined by a bar
	for y := 7; y <= 16; y++ {
		x := 19 - (y-7)/2
		for dx := 0; dx < 4; dx++ {
			img.Set(x+dx, y, iconBolt)
		}
	}
	for x := 11; x <= 20; x++ {
		img.Set(x, 16, iconBolt)
		img.Set(x, 17, iconBolt)
	}
	for y := 17; y <= 25; y++ {
		x := 17 - (y-17)/2
		for dx := 0; dx < 4; dx++ {
			img.Set(x+dx, y, iconBolt)
		}
	}
	return img
}

// IconPNG returns the tray icon as PNG bytes.
func IconPNG() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, iconImage())
	return buf.Bytes()
}

// wrapICO embeds PNG bytes in a single-image ICO container.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{dim, dim, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32)) // bit count
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}
