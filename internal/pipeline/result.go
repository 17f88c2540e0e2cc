package pipeline

import (
	"image"

	"card-redact/internal/cardnum"
	"card-redact/internal/names"
	"card-redact/internal/normalize"
	"card-redact/pkg/geometry"
)

// Outcome tells apart the successful endings of a run.
type Outcome string

const (
	// OutcomeFound means at least one card candidate was accepted.
	OutcomeFound Outcome = "found"
	// OutcomeNoText means OCR returned no usable tokens.
	OutcomeNoText Outcome = "no_text"
	// OutcomeNoCard means tokens were read but none formed a card number.
	OutcomeNoCard Outcome = "no_card"
)

// Result is everything a run reports. Images are copies owned by the result.
type Result struct {
	RequestID string             `json:"request_id"`
	Outcome   Outcome            `json:"outcome"`
	Geometry  normalize.Geometry `json:"geometry"`
	Deskew    normalize.Deskew   `json:"deskew"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Tokens    int                `json:"tokens"`

	Cards   []cardnum.Summary  `json:"card_numbers"`
	Expiry  []string           `json:"expiry"`
	Names   []string           `json:"names"`
	Boxes   []geometry.RectInt `json:"blur_boxes"`
	BlurAll bool               `json:"blur_all,omitempty"`

	NameCandidates []names.Candidate `json:"-"`

	// Image is the working image with Boxes blurred. A no_text run, or a
	// no_card run without blur_all_text, returns it unredacted.
	Image image.Image `json:"-"`
	// DebugImage carries box outlines when requested.
	DebugImage image.Image `json:"-"`
}

func newResult(requestID string) *Result {
	return &Result{
		RequestID: requestID,
		Cards:     []cardnum.Summary{},
		Expiry:    []string{},
		Names:     []string{},
		Boxes:     []geometry.RectInt{},
	}
}
