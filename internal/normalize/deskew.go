package normalize

import (
	"image"
	"image/color"
	"math"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Hough settings for skew estimation.
const (
	houghThreshold = 120
	maxHoughLines  = 100
	// Only lines whose normal lies within this many degrees of the x axis
	// are measured.
	skewWindow = 10.0
)

// SkewAngle estimates skew from near-vertical strokes: the median of their
// normal angles, folded into (-10, 10) degrees. ok is false when no such
// line is found.
func SkewAngle(gray gocv.Mat) (angle float64, ok bool) {
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLines(edges, &lines, 1, float32(math.Pi/180), houghThreshold)

	var angles []float64
	for i := 0; i < min(lines.Rows(), maxHoughLines); i++ {
		v := lines.GetVecfAt(i, 0)
		if len(v) < 2 {
			continue
		}
		deg := float64(v[1]) * 180 / math.Pi
		if deg < skewWindow || deg > 180-skewWindow {
			if deg > 90 {
				deg -= 180
			}
			angles = append(angles, deg)
		}
	}
	if len(angles) == 0 {
		return 0, false
	}
	return median(angles), true
}

// median matches the usual definition: the middle value, or the mean of the
// two middle values for even counts.
func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, s, nil)
	}
	return stat.Mean(s[n/2-1:n/2+1], nil)
}

// rotate turns *img by angle degrees (counter-clockwise on screen) about its
// center, keeping the size and replicating the border.
func rotate(img *gocv.Mat, angle float64) {
	w, h := img.Cols(), img.Rows()
	m := gocv.GetRotationMatrix2D(image.Point{X: w / 2, Y: h / 2}, angle, 1.0)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(*img, &dst, m, image.Point{X: w, Y: h},
		gocv.InterpolationLinear, gocv.BorderReplicate, color.RGBA{})
	img.Close()
	*img = dst
}
