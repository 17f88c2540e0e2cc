package normalize

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

const (
	tophatSize   = 25
	sharpenSigma = 1.2
	sharpenGain  = 1.6
	nameGamma    = 0.8
)

// gammaTable maps v to 255*(v/255)^0.8.
var gammaTable = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = uint8(math.Min(255, math.Round(math.Pow(float64(i)/255, nameGamma)*255)))
	}
	return t
}()

// NameEmphasis lifts thin bright strokes such as embossed names: a 25x25
// white top-hat, unsharp masking and gamma compression. gray must be 8-bit
// single channel.
func NameEmphasis(gray gocv.Mat) (gocv.Mat, error) {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{tophatSize, tophatSize})
	defer kernel.Close()

	tophat := gocv.NewMat()
	defer tophat.Close()
	gocv.MorphologyEx(gray, &tophat, gocv.MorphTophat, kernel)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(tophat, &blurred, image.Point{0, 0}, sharpenSigma, sharpenSigma, gocv.BorderDefault)

	sharp := gocv.NewMat()
	gocv.AddWeighted(tophat, sharpenGain, blurred, 1-sharpenGain, 0, &sharp)

	data, err := sharp.DataPtrUint8()
	if err != nil {
		sharp.Close()
		return gocv.NewMat(), fmt.Errorf("name emphasis gamma: %w", err)
	}
	for i, v := range data {
		data[i] = gammaTable[v]
	}
	return sharp, nil
}
