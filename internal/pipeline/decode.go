package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// Extra formats beyond imaging's built-ins.
	_ "golang.org/x/image/webp"
)

// Decode turns encoded image bytes into pixels, honouring EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, newError(KindInvalidImage, "", "empty image data", nil)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, newError(KindInvalidImage, "", "failed to decode image", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, newError(KindInvalidImage, "", fmt.Sprintf("image has no pixels (%dx%d)", b.Dx(), b.Dy()), nil)
	}
	return img, nil
}

// DecodeFile reads and decodes an image file.
func DecodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, newError(KindInvalidImage, "", fmt.Sprintf("failed to open %s", path), err)
	}
	return img, nil
}
