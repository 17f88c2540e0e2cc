// Package normalize prepares a card photo for text acquisition: bounded
// resize, perspective correction, upscale, contrast equalisation, deskew and
// a name-emphasis grayscale variant.
package normalize

import (
	"fmt"
	"image"
	"math"

	"card-redact/pkg/geometry"

	"gocv.io/x/gocv"
)

// Geometry reports which perspective path was taken.
type Geometry string

const (
	// Corrected means a card quadrilateral was found and warped upright.
	Corrected Geometry = "corrected"
	// PassThrough means no clean quadrilateral was found or warping was off.
	PassThrough Geometry = "pass_through"
)

// Deskew reports the rotation applied after equalisation.
type Deskew struct {
	Applied bool    `json:"applied"`
	Angle   float64 `json:"angle"`
}

// Options controls normalisation. Fast-profile overrides are expected to be
// resolved by the caller.
type Options struct {
	MaxSide int
	NoWarp  bool
	Upscale float64
	Deskew  bool
	Strong  bool
}

// Result holds the working colour image and the two grayscale variants. The
// caller owns the Mats and must Close the result.
type Result struct {
	Working  gocv.Mat
	Gray     gocv.Mat
	NameGray gocv.Mat
	Geometry Geometry
	Quad     geometry.Quad
	Deskew   Deskew
}

// Close releases all Mats.
func (r *Result) Close() {
	r.Working.Close()
	r.Gray.Close()
	r.NameGray.Close()
}

// Size returns the working image width and height.
func (r *Result) Size() (int, int) {
	return r.Working.Cols(), r.Working.Rows()
}

// Normalize runs the full geometric and photometric preparation on a BGR
// image. src is not modified.
func Normalize(src gocv.Mat, opts Options) (*Result, error) {
	if src.Empty() {
		return nil, fmt.Errorf("empty input image")
	}
	if src.Channels() != 3 {
		return nil, fmt.Errorf("expected 3-channel BGR image, got %d channels", src.Channels())
	}

	working := ResizeMaxSide(src, opts.MaxSide)

	res := &Result{Geometry: PassThrough}
	if !opts.NoWarp {
		warped, quad, ok := PerspectiveFix(working)
		if ok {
			working.Close()
			working = warped
			res.Geometry = Corrected
			res.Quad = quad
		}
	}

	if opts.Upscale > 0 && opts.Upscale != 1.0 {
		up := gocv.NewMat()
		gocv.Resize(working, &up, scaledSize(working.Cols(), working.Rows(), opts.Upscale), 0, 0, gocv.InterpolationCubic)
		working.Close()
		working = up
	}

	gray := EqualizedGray(working)

	if opts.Deskew {
		if angle, ok := SkewAngle(gray); ok {
			rotate(&working, angle)
			rotate(&gray, angle)
			res.Deskew = Deskew{Applied: true, Angle: angle}
		}
	}

	if opts.Strong {
		smoothed := gocv.NewMat()
		gocv.BilateralFilter(gray, &smoothed, 5, 30, 30)
		gray.Close()
		gray = smoothed
	}

	nameGray, err := NameEmphasis(gray)
	if err != nil {
		working.Close()
		gray.Close()
		return nil, err
	}
	res.Working = working
	res.Gray = gray
	res.NameGray = nameGray
	return res, nil
}

// ResizeMaxSide returns a copy of src whose longer side is at most maxSide,
// using area interpolation. A non-positive maxSide only copies.
func ResizeMaxSide(src gocv.Mat, maxSide int) gocv.Mat {
	w, h := src.Cols(), src.Rows()
	longest := max(w, h)
	if maxSide <= 0 || longest <= maxSide {
		return src.Clone()
	}
	scale := float64(maxSide) / float64(longest)
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, scaledSize(w, h, scale), 0, 0, gocv.InterpolationArea)
	return dst
}

// scaledSize scales w x h, keeping each side at least one pixel so OpenCV
// never sees an empty target size.
func scaledSize(w, h int, scale float64) image.Point {
	return image.Point{
		X: max(1, int(float64(w)*scale)),
		Y: max(1, int(float64(h)*scale)),
	}
}

// PerspectiveFix finds the largest external contour and, when it reduces to
// exactly four corners, warps that quadrilateral to an upright rectangle.
// ok is false when no clean quadrilateral exists.
func PerspectiveFix(img gocv.Mat) (warped gocv.Mat, quad geometry.Quad, ok bool) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{3, 3}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return gocv.Mat{}, quad, false
	}

	best := 0
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > bestArea {
			best, bestArea = i, area
		}
	}
	contour := contours.At(best)
	epsilon := 0.02 * gocv.ArcLength(contour, true)
	approx := gocv.ApproxPolyDP(contour, epsilon, true)
	defer approx.Close()
	if approx.Size() != 4 {
		return gocv.Mat{}, quad, false
	}

	var pts [4]geometry.Point2D
	for i := 0; i < 4; i++ {
		p := approx.At(i)
		pts[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	ordered := geometry.OrderCorners(pts)
	tl, tr, br, bl := ordered[0], ordered[1], ordered[2], ordered[3]
	width := int(math.Max(br.Distance(bl), tr.Distance(tl)))
	height := int(math.Max(tr.Distance(br), tl.Distance(bl)))
	if width < 2 || height < 2 {
		return gocv.Mat{}, quad, false
	}

	srcPts := make([]image.Point, 4)
	for i, p := range ordered {
		srcPts[i] = image.Point{X: int(p.X), Y: int(p.Y)}
		quad[i] = geometry.PointInt{X: srcPts[i].X, Y: srcPts[i].Y}
	}
	dstPts := []image.Point{{0, 0}, {width - 1, 0}, {width - 1, height - 1}, {0, height - 1}}

	srcVec := gocv.NewPointVectorFromPoints(srcPts)
	defer srcVec.Close()
	dstVec := gocv.NewPointVectorFromPoints(dstPts)
	defer dstVec.Close()

	m := gocv.GetPerspectiveTransform(srcVec, dstVec)
	defer m.Close()

	warped = gocv.NewMat()
	gocv.WarpPerspective(img, &warped, m, image.Point{X: width, Y: height})
	return warped, quad, true
}

// EqualizedGray converts a BGR image to grayscale and applies CLAHE
// (clip limit 2, 8x8 tiles).
func EqualizedGray(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{8, 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	return enhanced
}
