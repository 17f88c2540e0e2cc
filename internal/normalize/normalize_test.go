package normalize

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// cardScene draws a filled white card on a black canvas.
func cardScene(w, h int, card image.Rectangle) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&m, card, white, -1)
	return m
}

func TestResizeMaxSide(t *testing.T) {
	src := gocv.NewMatWithSize(200, 400, gocv.MatTypeCV8UC3)
	defer src.Close()

	small := ResizeMaxSide(src, 100)
	defer small.Close()
	assert.Equal(t, 100, small.Cols())
	assert.Equal(t, 50, small.Rows())

	same := ResizeMaxSide(src, 1600)
	defer same.Close()
	assert.Equal(t, 400, same.Cols())
	assert.Equal(t, 200, same.Rows())
}

func TestResizeMaxSideKeepsThinStrips(t *testing.T) {
	src := gocv.NewMatWithSize(2, 4000, gocv.MatTypeCV8UC3)
	defer src.Close()

	dst := ResizeMaxSide(src, 1600)
	defer dst.Close()
	assert.Equal(t, 1600, dst.Cols())
	assert.Equal(t, 1, dst.Rows())
}

func TestScaledSize(t *testing.T) {
	assert.Equal(t, image.Point{X: 1600, Y: 1}, scaledSize(4000, 2, 0.4))
	assert.Equal(t, image.Point{X: 3, Y: 1}, scaledSize(10, 3, 0.3))
	assert.Equal(t, image.Point{X: 150, Y: 75}, scaledSize(100, 50, 1.5))
}

func TestNormalizeDegenerateSizes(t *testing.T) {
	strip := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 2, 4000, gocv.MatTypeCV8UC3)
	defer strip.Close()

	res, err := Normalize(strip, Options{MaxSide: 1600, NoWarp: true, Upscale: 1.0})
	require.NoError(t, err)
	w, h := res.Size()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1, h)
	res.Close()

	tiny := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 3, 10, gocv.MatTypeCV8UC3)
	defer tiny.Close()

	res, err = Normalize(tiny, Options{MaxSide: 1600, NoWarp: true, Upscale: 0.3})
	require.NoError(t, err)
	defer res.Close()
	w, h = res.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 1, h)
	assert.False(t, res.NameGray.Empty())
}

func TestPerspectiveFixFindsCard(t *testing.T) {
	scene := cardScene(600, 400, image.Rect(100, 80, 500, 330))
	defer scene.Close()

	warped, quad, ok := PerspectiveFix(scene)
	require.True(t, ok)
	defer warped.Close()

	assert.InDelta(t, 400, warped.Cols(), 4)
	assert.InDelta(t, 250, warped.Rows(), 4)
	r, valid := quad.BoundingRect()
	require.True(t, valid)
	assert.InDelta(t, 100, r.X, 3)
	assert.InDelta(t, 80, r.Y, 3)
}

func TestPerspectiveFixPassThroughOnBlank(t *testing.T) {
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 300, gocv.MatTypeCV8UC3)
	defer blank.Close()
	_, _, ok := PerspectiveFix(blank)
	assert.False(t, ok)
}

func TestSkewAngle(t *testing.T) {
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 300, 300, gocv.MatTypeCV8UC1)
	defer blank.Close()
	_, ok := SkewAngle(blank)
	assert.False(t, ok)

	lines := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 400, 400, gocv.MatTypeCV8UC1)
	defer lines.Close()
	for x := 60; x < 360; x += 60 {
		gocv.Line(&lines, image.Pt(x, 20), image.Pt(x, 380), white, 3)
	}
	angle, ok := SkewAngle(lines)
	require.True(t, ok)
	assert.InDelta(t, 0, angle, 1.5)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, -1.0, median([]float64{-1}))
}

func TestGammaTable(t *testing.T) {
	assert.Equal(t, uint8(0), gammaTable[0])
	assert.Equal(t, uint8(255), gammaTable[255])
	for i := 1; i < 255; i++ {
		assert.GreaterOrEqual(t, gammaTable[i], uint8(i))
	}
}

func TestNameEmphasis(t *testing.T) {
	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 60, 120, gocv.MatTypeCV8U)
	defer gray.Close()
	gocv.Line(&gray, image.Pt(10, 30), image.Pt(110, 30), white, 2)

	out, err := NameEmphasis(gray)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, gocv.MatTypeCV8U, out.Type())
	assert.Equal(t, 120, out.Cols())
	assert.Equal(t, 60, out.Rows())
	assert.Greater(t, out.GetUCharAt(30, 60), uint8(0))
	assert.Equal(t, uint8(0), out.GetUCharAt(5, 5))
}

func TestNormalizeCorrectedPath(t *testing.T) {
	scene := cardScene(800, 500, image.Rect(100, 100, 700, 420))
	defer scene.Close()

	res, err := Normalize(scene, Options{MaxSide: 400, Upscale: 1.5, Deskew: true, Strong: true})
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, Corrected, res.Geometry)
	w, h := res.Size()
	assert.InDelta(t, 450, w, 8)
	assert.InDelta(t, 240, h, 8)
	assert.Equal(t, 1, res.Gray.Channels())
	assert.Equal(t, w, res.Gray.Cols())
	assert.Equal(t, h, res.NameGray.Rows())
	assert.Equal(t, 3, scene.Channels())
	assert.Equal(t, 800, scene.Cols())
}

func TestNormalizeNoWarp(t *testing.T) {
	scene := cardScene(300, 200, image.Rect(40, 40, 260, 160))
	defer scene.Close()

	res, err := Normalize(scene, Options{MaxSide: 1600, NoWarp: true, Upscale: 1.0})
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, PassThrough, res.Geometry)
	assert.False(t, res.Deskew.Applied)
	w, h := res.Size()
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := Normalize(empty, Options{MaxSide: 100})
	assert.Error(t, err)
}

func TestImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	mat, err := MatFromImage(src)
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, uint8(30), mat.GetUCharAt(2, 1*3+0))

	back, err := ImageFromMat(mat)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, back.At(1, 2))

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(77, 0, 0, 0), 2, 2, gocv.MatTypeCV8UC1)
	defer gray.Close()
	gimg, err := ImageFromMat(gray)
	require.NoError(t, err)
	assert.Equal(t, color.Gray{Y: 77}, gimg.At(1, 1))
}
