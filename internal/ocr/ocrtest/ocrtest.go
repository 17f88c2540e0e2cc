// Package ocrtest provides fakes for code that consumes OCR output.
package ocrtest

import (
	"context"
	"image"
	"sync"

	"card-redact/internal/ocr"
	"card-redact/pkg/geometry"
)

// Token builds a general-pass token over the rectangle x,y,w,h.
func Token(text string, x, y, w, h int, conf float64) ocr.Token {
	return ocr.Token{
		Quad:       geometry.QuadFromRect(geometry.RectInt{X: x, Y: y, Width: w, Height: h}),
		Text:       text,
		Confidence: conf,
	}
}

// Detection builds a raw detection over the rectangle x,y,w,h with a 0..1 confidence.
func Detection(text string, x, y, w, h int, conf float64) ocr.Detection {
	return ocr.Detection{
		Quad:       geometry.QuadFromRect(geometry.RectInt{X: x, Y: y, Width: w, Height: h}),
		Text:       text,
		Confidence: conf,
	}
}

// Recognizer replays canned detections. General holds the detections for
// passes without an allow list, Name those for allow-listed passes.
type Recognizer struct {
	General []ocr.Detection
	Name    []ocr.Detection
	Err     error

	mu    sync.Mutex
	Calls []ocr.PassOptions
}

// DetectAndRecognize implements ocr.Recognizer.
func (r *Recognizer) DetectAndRecognize(_ context.Context, _ image.Image, opts ocr.PassOptions) ([]ocr.Detection, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, opts)
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if opts.AllowList != "" {
		return append([]ocr.Detection(nil), r.Name...), nil
	}
	return append([]ocr.Detection(nil), r.General...), nil
}
