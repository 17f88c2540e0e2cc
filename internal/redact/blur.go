package redact

import (
	"image"
	"image/color"

	"card-redact/pkg/geometry"

	"gocv.io/x/gocv"
)

// debugColor is pure red.
var debugColor = color.RGBA{R: 255, A: 255}

// OddKernel bumps even kernel sizes to the next odd value.
func OddKernel(k int) int {
	if k < 1 {
		return 1
	}
	if k%2 == 0 {
		return k + 1
	}
	return k
}

// Apply returns a copy of img with every box, grown by margin and clipped,
// Gaussian-blurred. Pixels outside the grown boxes are untouched.
func Apply(img gocv.Mat, boxes []geometry.RectInt, margin, kernel int) gocv.Mat {
	out := img.Clone()
	w, h := out.Cols(), out.Rows()
	k := OddKernel(kernel)
	for _, b := range boxes {
		r := b.Expand(margin, w, h)
		if r.Empty() {
			continue
		}
		region := out.Region(r.ToImageRect())
		gocv.GaussianBlur(region, &region, image.Point{k, k}, 0, 0, gocv.BorderDefault)
		region.Close()
	}
	return out
}

// Overlay returns a copy of img with a 2px red outline on every box.
func Overlay(img gocv.Mat, boxes []geometry.RectInt) gocv.Mat {
	out := img.Clone()
	for _, b := range boxes {
		gocv.Rectangle(&out, b.ToImageRect(), debugColor, 2)
	}
	return out
}
