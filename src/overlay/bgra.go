package overlay

import "image"

// copyRGBAToBGRA writes img into dst as tightly packed BGRA rows, the layout
// of a 32bpp top-down DIB.
func copyRGBAToBGRA(dst []byte, img *image.RGBA) {
	b := img.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		row := dst[y*w*4 : (y+1)*w*4]
		for x := 0; x < w*4; x += 4 {
			row[x] = src[x+2]
			row[x+1] = src[x+1]
			row[x+2] = src[x]
			row[x+3] = src[x+3]
		}
	}
}
