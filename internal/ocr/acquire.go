package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"card-redact/internal/logging"
)

// AcquireOptions carries the confidence floors and engine hints for both passes.
type AcquireOptions struct {
	GeneralFloor float64 // 0..100
	NameFloor    float64 // 0..100
	Languages    []string
	Fast         bool
}

// Adapter runs the general and name-emphasis recognition passes and turns
// their raw detections into one token list.
type Adapter struct {
	rec Recognizer
	log *logging.Logger
}

// NewAdapter wraps a Recognizer.
func NewAdapter(rec Recognizer, log *logging.Logger) *Adapter {
	if log == nil {
		log = logging.Discard()
	}
	return &Adapter{rec: rec, log: log}
}

// Acquire recognises general over the equalised grayscale image and
// nameEmphasis with the letters-only allow list. General tokens come first,
// followed by name tokens. Recognizer errors are returned unchanged apart
// from wrapping.
func (a *Adapter) Acquire(ctx context.Context, general, nameEmphasis image.Image, opts AcquireOptions) ([]Token, error) {
	generalDets, err := a.rec.DetectAndRecognize(ctx, general, PassOptions{
		Languages: opts.Languages,
		Fast:      opts.Fast,
	})
	if err != nil {
		return nil, fmt.Errorf("general pass: %w", err)
	}
	tokens := ToTokens(generalDets, opts.GeneralFloor, PassGeneral)
	a.log.Debug("ocr pass", "pass", PassGeneral, "detections", len(generalDets), "accepted", len(tokens))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nameDets, err := a.rec.DetectAndRecognize(ctx, nameEmphasis, PassOptions{
		AllowList: NameAllowList,
		Languages: opts.Languages,
		Fast:      opts.Fast,
	})
	if err != nil {
		return nil, fmt.Errorf("name pass: %w", err)
	}
	nameTokens := ToTokens(nameDets, opts.NameFloor, PassName)
	a.log.Debug("ocr pass", "pass", PassName, "detections", len(nameDets), "accepted", len(nameTokens))

	return append(tokens, nameTokens...), nil
}

// ToTokens rescales confidences to 0..100 and keeps detections at or above
// floor whose quad reduces to a valid rectangle.
func ToTokens(dets []Detection, floor float64, pass Pass) []Token {
	out := make([]Token, 0, len(dets))
	for _, d := range dets {
		conf := d.Confidence * 100
		if conf < floor {
			continue
		}
		if _, ok := d.Quad.BoundingRect(); !ok {
			continue
		}
		out = append(out, Token{
			Quad:       d.Quad,
			Text:       strings.TrimSpace(d.Text),
			Confidence: conf,
			Pass:       pass,
		})
	}
	return out
}
