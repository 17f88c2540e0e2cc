// Package names picks the cardholder-name line(s) out of assembled text
// lines while steering clear of network and tier branding.
package names

import (
	"sort"

	"card-redact/internal/ocr"
	"card-redact/internal/textline"
	"card-redact/internal/vocab"
	"card-redact/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

const (
	maxNames       = 2
	brandZone      = 0.40
	fallbackFloor  = 0.55
	roiBonus       = 2.0
	confSlack      = 4.0
	softGap        = 0.02
	softHeight     = 0.30
	softNoBandTop  = 0.55
	softNoBandSpan = 0.40
)

// Candidate is a selected name line.
type Candidate struct {
	Text         string  `json:"text"`
	TokenIndices []int   `json:"token_indices"`
	Score        float64 `json:"score"`
}

// Options configures one detection.
type Options struct {
	Mode Mode
	// NameFloor is the name-pass confidence floor (0..100).
	NameFloor float64
	Band      *geometry.RectInt
	// SoftROI earns a flat bonus for lines fully inside it.
	SoftROI *geometry.RectInt
	// HardROI, when set, discards lines not fully inside it.
	HardROI *geometry.RectInt
}

// Detector scores lines with a primary Scorer and falls back to a
// lower-precision scan when nothing qualifies.
type Detector struct {
	vocab    *vocab.Vocabulary
	scorer   Scorer
	fallback Scorer
}

// NewDetector returns a detector. A nil scorer selects DefaultScorer.
func NewDetector(v *vocab.Vocabulary, scorer Scorer) *Detector {
	if v == nil {
		v = vocab.Default()
	}
	if scorer == nil {
		scorer = DefaultScorer{}
	}
	return &Detector{vocab: v, scorer: scorer, fallback: LengthScorer{}}
}

// Detect returns up to two name candidates, best first.
func (d *Detector) Detect(tokens []ocr.Token, lines []textline.Line, imgW, imgH int, opts Options) []Candidate {
	if len(lines) == 0 {
		return nil
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeBalanced
	}
	frame := Frame{Width: imgW, Height: imgH, Band: opts.Band, Mode: mode}

	var cands []Candidate
	for _, ln := range lines {
		box := ln.BBox
		if opts.HardROI != nil && !box.Within(*opts.HardROI) {
			continue
		}
		if box.Center().Y < brandZone*float64(imgH) && d.vocab.IsBrandText(ln.Text) {
			continue
		}
		if !IsNameCandidate(ln.Text, d.vocab, mode) {
			continue
		}
		if !corroborated(tokens, ln.TokenIndices, opts.NameFloor) {
			continue
		}
		score := d.scorer.Score(ln, frame)
		if opts.SoftROI != nil && box.Within(*opts.SoftROI) {
			score += roiBonus
		}
		cands = append(cands, Candidate{Text: normalizeText(ln.Text), TokenIndices: ln.TokenIndices, Score: score})
	}
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
		return cands[:min(maxNames, len(cands))]
	}
	if fb, ok := d.fallbackLine(lines, frame); ok {
		return []Candidate{fb}
	}
	return nil
}

// fallbackLine picks the best non-brand name-shaped line in the lower part of
// the image. Ties keep the earliest line.
func (d *Detector) fallbackLine(lines []textline.Line, f Frame) (Candidate, bool) {
	floor := fallbackFloor * float64(f.Height)
	var best Candidate
	found := false
	for _, ln := range lines {
		if ln.BBox.Center().Y < floor || d.vocab.IsBrandText(ln.Text) {
			continue
		}
		if !IsNameCandidate(ln.Text, d.vocab, f.Mode) {
			continue
		}
		score := d.fallback.Score(ln, f)
		if !found || score > best.Score {
			best = Candidate{Text: normalizeText(ln.Text), TokenIndices: ln.TokenIndices, Score: score}
			found = true
		}
	}
	return best, found
}

// corroborated rejects lines whose average confidence sits well below the
// floor unless at least one member token reaches it.
func corroborated(tokens []ocr.Token, idxs []int, floor float64) bool {
	confs := make([]float64, 0, len(idxs))
	for _, i := range idxs {
		if i >= 0 && i < len(tokens) {
			confs = append(confs, tokens[i].Confidence)
		}
	}
	if len(confs) == 0 {
		return false
	}
	if stat.Mean(confs, nil) >= floor-confSlack {
		return true
	}
	for _, c := range confs {
		if c >= floor {
			return true
		}
	}
	return false
}

// SoftROI returns the default soft name region: a band starting just beneath
// the card-number band, or the lower-middle of the image without one.
func SoftROI(imgW, imgH int, band *geometry.RectInt) geometry.RectInt {
	if band == nil {
		return geometry.RectInt{
			X: 0, Y: int(float64(imgH) * softNoBandTop),
			Width: imgW, Height: int(float64(imgH) * softNoBandSpan),
		}
	}
	top := min(imgH-1, band.Bottom()+int(softGap*float64(imgH)))
	return geometry.RectInt{X: 0, Y: top, Width: imgW, Height: min(int(softHeight*float64(imgH)), imgH-top)}
}

// BottomHalf is the hard region used when names are restricted to the lower
// half of the card.
func BottomHalf(imgW, imgH int) geometry.RectInt {
	top := int(float64(imgH) * 0.5)
	return geometry.RectInt{X: 0, Y: top, Width: imgW, Height: int(float64(imgH) * 0.5)}
}
