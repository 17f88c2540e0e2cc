package ocr

import (
	"context"
	"image"

	"card-redact/pkg/geometry"
)

// NameAllowList restricts the name-emphasis pass to letters, space and the
// punctuation that appears in embossed names.
const NameAllowList = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz '.-"

// PassOptions tunes one recognition call.
type PassOptions struct {
	// AllowList restricts recognised characters. Empty means unrestricted.
	AllowList string
	// Languages are engine language codes such as "eng" or "kor".
	Languages []string
	// Fast trades recognition effort for speed.
	Fast bool
}

// Detection is one raw text region reported by a Recognizer.
type Detection struct {
	Quad       geometry.Quad
	Text       string
	Confidence float64 // 0..1
}

// Recognizer is the OCR collaborator contract: detect text regions in an
// image and recognise their content. Implementations must be safe to call
// sequentially; the pipeline never calls one instance concurrently for a
// single request.
type Recognizer interface {
	DetectAndRecognize(ctx context.Context, img image.Image, opts PassOptions) ([]Detection, error)
}

// Pass identifies which recognition pass produced a token.
type Pass int

const (
	PassGeneral Pass = iota
	PassName
)

func (p Pass) String() string {
	switch p {
	case PassGeneral:
		return "general"
	case PassName:
		return "name"
	default:
		return "unknown"
	}
}

// Token is an accepted text region. Tokens are addressed by their index in
// the slice returned from Acquire.
type Token struct {
	Quad       geometry.Quad
	Text       string
	Confidence float64 // 0..100
	Pass       Pass
}

// Rect returns the token's axis-aligned bounding rectangle.
func (t Token) Rect() geometry.RectInt {
	r, _ := t.Quad.BoundingRect()
	return r
}
