package normalize

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
)

// forStripes runs fn over horizontal row stripes, one per CPU.
func forStripes(height int, fn func(yStart, yEnd int)) {
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := min(startY+rowsPerWorker, height)
		if startY >= height {
			break
		}
		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			fn(yStart, yEnd)
		}(startY, endY)
	}
	wg.Wait()
}

// MatFromImage converts a Go image to a BGR Mat.
func MatFromImage(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("empty image %dx%d", width, height)
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	forStripes(height, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
				mat.SetUCharAt(y, x*3+0, uint8(b>>8))
				mat.SetUCharAt(y, x*3+1, uint8(g>>8))
				mat.SetUCharAt(y, x*3+2, uint8(r>>8))
			}
		}
	})
	return mat, nil
}

// ImageFromMat converts a BGR or single-channel Mat to a Go image. Gray Mats
// become *image.Gray, colour Mats *image.RGBA.
func ImageFromMat(mat gocv.Mat) (image.Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	h, w := mat.Rows(), mat.Cols()

	switch mat.Channels() {
	case 1:
		img := image.NewGray(image.Rect(0, 0, w, h))
		forStripes(h, func(yStart, yEnd int) {
			for y := yStart; y < yEnd; y++ {
				row := y * img.Stride
				for x := 0; x < w; x++ {
					img.Pix[row+x] = mat.GetUCharAt(y, x)
				}
			}
		})
		return img, nil
	case 3:
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		forStripes(h, func(yStart, yEnd int) {
			for y := yStart; y < yEnd; y++ {
				row := y * img.Stride
				for x := 0; x < w; x++ {
					p := row + x*4
					img.Pix[p+0] = mat.GetUCharAt(y, x*3+2)
					img.Pix[p+1] = mat.GetUCharAt(y, x*3+1)
					img.Pix[p+2] = mat.GetUCharAt(y, x*3+0)
					img.Pix[p+3] = 255
				}
			}
		})
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d", mat.Channels())
	}
}
