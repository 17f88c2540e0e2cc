// Package redact turns detections into blur rectangles and applies them.
package redact

import (
	"card-redact/internal/logging"
	"card-redact/internal/ocr"
	"card-redact/internal/vocab"
	"card-redact/pkg/geometry"
)

// Options controls box collection and blurring.
type Options struct {
	BlurMargin    int
	KernelSize    int
	BlurBrandText bool
	BlurAllText   bool
}

// Sources are the detections that contribute boxes.
type Sources struct {
	Expiry []geometry.RectInt
	// Band is the padded card-number band, if any.
	Band *geometry.RectInt
	// NameTokens are the tokens backing the selected names.
	NameTokens []ocr.Token
	// Tokens is every accepted token, used only by the blur-all fallback.
	Tokens []ocr.Token
}

// Plan is the final, deduplicated set of boxes.
type Plan struct {
	Boxes []geometry.RectInt `json:"boxes"`
	// BlurAll is set when the boxes come from the blur-all fallback.
	BlurAll bool `json:"blur_all"`
}

// Compositor decides what to blur.
type Compositor struct {
	vocab *vocab.Vocabulary
	log   *logging.Logger
}

// NewCompositor returns a compositor using v to recognise brand tokens.
func NewCompositor(v *vocab.Vocabulary, log *logging.Logger) *Compositor {
	if v == nil {
		v = vocab.Default()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Compositor{vocab: v, log: log}
}

// Plan collects expiry boxes, the card band and name token boxes, clips them
// to the w x h image and drops exact duplicates. When nothing is left and
// BlurAllText is set, every token box is used instead.
func (c *Compositor) Plan(src Sources, w, h int, opts Options) Plan {
	var boxes []geometry.RectInt
	add := func(r geometry.RectInt) {
		if r = r.Clip(w, h); !r.Empty() {
			boxes = append(boxes, r)
		}
	}

	for _, r := range src.Expiry {
		add(r)
	}
	if src.Band != nil {
		add(*src.Band)
	}
	for _, tok := range src.NameTokens {
		if !opts.BlurBrandText && c.vocab.IsBrandText(tok.Text) {
			continue
		}
		if r, ok := tok.Quad.BoundingRect(); ok {
			add(r)
		}
	}
	boxes = geometry.UniqueRects(boxes)
	if len(boxes) > 0 || !opts.BlurAllText {
		return Plan{Boxes: boxes}
	}

	for _, tok := range src.Tokens {
		if r, ok := tok.Quad.BoundingRect(); ok {
			add(r)
		}
	}
	boxes = geometry.UniqueRects(boxes)
	c.log.Warn("no sensitive regions found, blurring every text token", "boxes", len(boxes))
	return Plan{Boxes: boxes, BlurAll: true}
}
