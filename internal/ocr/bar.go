package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// Bar is the longest horizontal run found in a region, in image
// coordinates.
type Bar struct {
	X1     int `json:"x1"`
	X2     int `json:"x2"` // exclusive
	Y      int `json:"y"`
	Pixels int `json:"pixels"`
}

// MeasureBar finds the scale bar in img. Bars are drawn either light on
// dark or dark on light, so both polarities are tried and the longer run
// wins. Runs touching the left or right edge are background; the region
// must leave a margin around the bar.
func MeasureBar(img image.Image, threshold uint8) (Bar, error) {
	b := img.Bounds()
	if b.Empty() {
		return Bar{}, ErrNoBar
	}
	binary := segment.Threshold(effect.Grayscale(img), threshold)
	bb := binary.Bounds()

	var best Bar
	for y := 0; y < bb.Dy(); y++ {
		for _, light := range []bool{true, false} {
			start := -1
			for x := 0; x <= bb.Dx(); x++ {
				on := x < bb.Dx() && (binary.GrayAt(x+bb.Min.X, y+bb.Min.Y).Y >= 128) == light
				if on && start < 0 {
					start = x
				}
				if !on && start >= 0 {
					if x-start > best.Pixels && start > 0 && x < bb.Dx() {
						best = Bar{X1: start + b.Min.X, X2: x + b.Min.X, Y: y + b.Min.Y, Pixels: x - start}
					}
					start = -1
				}
			}
		}
	}
	if best.Pixels < 2 {
		return Bar{}, ErrNoBar
	}
	return best, nil
}
