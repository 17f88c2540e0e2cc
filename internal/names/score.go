package names

import (
	"math"
	"strings"
	"unicode/utf8"

	"card-redact/internal/textline"
	"card-redact/pkg/geometry"
)

// Frame is the image context a line is scored in.
type Frame struct {
	Width, Height int
	// Band is the padded card-number band, if one was found.
	Band *geometry.RectInt
	Mode Mode
}

// Scorer ranks name-candidate lines. Higher is better.
type Scorer interface {
	Score(line textline.Line, f Frame) float64
}

// Scoring weights.
const (
	aspectCap       = 18.0
	aspectWeight    = 0.6
	positionWeight  = 2.0
	proximityWeight = 2.0
	proximityReach  = 0.25
	alphaWeight     = 1.0
	looseBonus      = 0.8
)

// DefaultScorer favours wide lines low on the card, just beneath the number
// band, made mostly of letters.
type DefaultScorer struct{}

// Score implements Scorer.
func (DefaultScorer) Score(line textline.Line, f Frame) float64 {
	h := math.Max(1, float64(f.Height))
	box := line.BBox
	s := min(box.AspectRatio(), aspectCap) * aspectWeight
	s += box.Center().Y / h * positionWeight
	s += Proximity(box, f.Band, f.Height) * proximityWeight
	s += alphaRatio(normalizeText(line.Text)) * alphaWeight
	if f.Mode == ModeLoose {
		s += looseBonus
	}
	return s
}

// Proximity is 1 for a line starting at or above the band's bottom edge and
// decays linearly to 0 over a quarter of the image height. Lines whose center
// is not below the band's center, and all lines when there is no band, get 0.
func Proximity(box geometry.RectInt, band *geometry.RectInt, imgH int) float64 {
	if band == nil || box.Center().Y <= band.Center().Y {
		return 0
	}
	d := math.Max(0, float64(box.Y-band.Bottom()))
	return math.Max(0, 1-d/(proximityReach*math.Max(1, float64(imgH))))
}

// LengthScorer is the last-resort ranking: letter count plus a small
// aspect-ratio term.
type LengthScorer struct{}

// Score implements Scorer.
func (LengthScorer) Score(line textline.Line, _ Frame) float64 {
	compact := strings.ReplaceAll(normalizeText(line.Text), " ", "")
	return float64(utf8.RuneCountInString(compact)) + line.BBox.AspectRatio()*0.15
}
