package capture

import (
	"image"
	"image/color"
)

// defaultGlyphSize is the side of the built-in cursor glyph at the
// reference resolution.
const defaultGlyphSize = 32

// defaultGlyph renders a classic arrow pointer: white fill with a black
// outline on a transparent background.
func defaultGlyph() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, defaultGlyphSize, defaultGlyphSize))
	black := color.NRGBA{A: 0xff}
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	// The arrow occupies the left part of the square. Row y spans columns
	// [0, width(y)) where the head widens linearly and the tail is a narrow stem.
	const head = 22
	for y := 0; y < defaultGlyphSize-2; y++ {
		var from, to int
		switch {
		case y < head:
			from, to = 0, y*2/3+1
		default:
			from, to = 5, 10
		}
		for x := from; x < to; x++ {
			edge := x == from || x == to-1 || y == 0 || y == head-1 && x >= 10 || y == defaultGlyphSize-3
			if edge {
				img.SetNRGBA(x, y, black)
			} else {
				img.SetNRGBA(x, y, white)
			}
		}
	}
	return img
}
