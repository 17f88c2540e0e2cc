package cardnum

import (
	"sort"

	"card-redact/internal/ocr"
	"card-redact/internal/textline"
	"card-redact/internal/vocab"
	"card-redact/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// Card-number length bounds and stitching group bounds.
const (
	MinDigits = 13
	MaxDigits = 19

	minGroupDigits = 3
	maxGroupDigits = 4
	minGroupTokens = 3
	maxGroupTokens = 5

	relaxedLength = 16

	hammingLimit = 2
	overlapLimit = 0.6
)

// Candidate is a validated digit sequence and the tokens it came from.
type Candidate struct {
	Digits        string
	TokenIndices  []int
	AvgConfidence float64
	LuhnValid     bool
}

// Summary is the reportable form of a card candidate.
type Summary struct {
	Masked    string `json:"masked"`
	Brand     string `json:"brand"`
	LuhnValid bool   `json:"luhn"`
}

// Summarize masks the candidate and guesses its brand.
func Summarize(c Candidate, v *vocab.Vocabulary) Summary {
	return Summary{
		Masked:    Mask(c.Digits),
		Brand:     v.GuessBrand(c.Digits),
		LuhnValid: LuhnValid(c.Digits),
	}
}

// Options controls candidate acceptance.
type Options struct {
	// Relaxed accepts 16-digit sequences that fail the Luhn check.
	Relaxed bool
	// Tolerance is the same-line tolerance used while stitching.
	Tolerance float64
}

// Stitched is a raw digit sequence before validation.
type Stitched struct {
	Digits       string
	TokenIndices []int
}

// Stitch rebuilds card numbers printed as digit groups. Tokens are walked in
// reading order; a 3-4 digit token seeds a run that absorbs following
// same-line 3-4 digit tokens, and every 3-5 token window of the run whose
// digits total 13-19 is emitted. Each digit string is reported once, with
// the tokens of its first occurrence.
func Stitch(tokens []ocr.Token, tolerance float64) []Stitched {
	entries := make([]textline.Entry, 0, len(tokens))
	for i, tok := range tokens {
		digits := DigitText(tok.Text)
		if digits == "" {
			continue
		}
		r, ok := tok.Quad.BoundingRect()
		if !ok {
			continue
		}
		entries = append(entries, textline.Entry{Index: i, Rect: r, Text: digits})
	}
	textline.SortEntries(entries)

	isGroup := func(e textline.Entry) bool {
		return len(e.Text) >= minGroupDigits && len(e.Text) <= maxGroupDigits
	}

	var out []Stitched
	seen := make(map[string]struct{})
	for _, run := range textline.Runs(entries, tolerance, isGroup, isGroup) {
		for s := range run {
			for e := s + minGroupTokens; e <= min(len(run), s+maxGroupTokens); e++ {
				digits := ""
				idxs := make([]int, 0, e-s)
				for _, entry := range run[s:e] {
					digits += entry.Text
					idxs = append(idxs, entry.Index)
				}
				if len(digits) < MinDigits || len(digits) > MaxDigits {
					continue
				}
				if _, dup := seen[digits]; dup {
					continue
				}
				seen[digits] = struct{}{}
				out = append(out, Stitched{Digits: digits, TokenIndices: idxs})
			}
		}
	}
	return out
}

// accept applies the Luhn check or the relaxed 16-digit fallback.
func accept(digits string, relaxed bool) (ok, luhn bool) {
	luhn = LuhnValid(digits)
	return luhn || (relaxed && len(digits) == relaxedLength), luhn
}

// Candidates validates stitched sequences and standalone long tokens.
// Stitched candidates come first, then standalone ones in token order.
func Candidates(tokens []ocr.Token, opts Options) []Candidate {
	var out []Candidate
	for _, st := range Stitch(tokens, opts.Tolerance) {
		ok, luhn := accept(st.Digits, opts.Relaxed)
		if !ok {
			continue
		}
		confs := make([]float64, len(st.TokenIndices))
		for k, idx := range st.TokenIndices {
			confs[k] = tokens[idx].Confidence
		}
		out = append(out, Candidate{
			Digits:        st.Digits,
			TokenIndices:  st.TokenIndices,
			AvgConfidence: stat.Mean(confs, nil),
			LuhnValid:     luhn,
		})
	}
	for i, tok := range tokens {
		digits := DigitText(tok.Text)
		if len(digits) < MinDigits || len(digits) > MaxDigits {
			continue
		}
		ok, luhn := accept(digits, opts.Relaxed)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Digits:        digits,
			TokenIndices:  []int{i},
			AvgConfidence: tok.Confidence,
			LuhnValid:     luhn,
		})
	}
	return out
}

// better reports whether a should be kept over b: Luhn-valid first, then
// higher average confidence, then more digits.
func better(a, b Candidate) bool {
	if a.LuhnValid != b.LuhnValid {
		return a.LuhnValid
	}
	if a.AvgConfidence != b.AvgConfidence {
		return a.AvgConfidence > b.AvgConfidence
	}
	return len(a.Digits) > len(b.Digits)
}

// Hamming returns the number of differing positions, or -1 when the lengths differ.
func Hamming(a, b string) int {
	if len(a) != len(b) {
		return -1
	}
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// overlap returns |a∩b| / min(|a|,|b|).
func overlap(a, b []int) float64 {
	set := make(map[int]struct{}, len(a))
	for _, i := range a {
		set[i] = struct{}{}
	}
	shared := 0
	for _, i := range b {
		if _, ok := set[i]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(1, min(len(a), len(b))))
}

// near reports whether two candidates describe the same printed number.
func near(a, b Candidate) bool {
	if len(a.Digits) != len(b.Digits) {
		return false
	}
	return Hamming(a.Digits, b.Digits) <= hammingLimit || overlap(a.TokenIndices, b.TokenIndices) >= overlapLimit
}

// Dedupe groups each remaining candidate with all later candidates near it
// and keeps the best of each group, in group order.
func Dedupe(cands []Candidate) []Candidate {
	used := make([]bool, len(cands))
	var out []Candidate
	for i := range cands {
		if used[i] {
			continue
		}
		used[i] = true
		best := cands[i]
		for j := i + 1; j < len(cands); j++ {
			if used[j] || !near(cands[i], cands[j]) {
				continue
			}
			used[j] = true
			if better(cands[j], best) {
				best = cands[j]
			}
		}
		out = append(out, best)
	}
	return out
}

// Rank orders candidates best first without disturbing the input.
func Rank(cands []Candidate) []Candidate {
	out := append([]Candidate(nil), cands...)
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

// Find runs validation, deduplication and ranking.
func Find(tokens []ocr.Token, opts Options) []Candidate {
	return Rank(Dedupe(Candidates(tokens, opts)))
}

// Band returns the union of the candidate's token boxes padded by pad and
// clipped to a w x h image.
func Band(tokens []ocr.Token, c Candidate, pad, w, h int) (geometry.RectInt, bool) {
	rects := make([]geometry.RectInt, 0, len(c.TokenIndices))
	for _, idx := range c.TokenIndices {
		if idx < 0 || idx >= len(tokens) {
			continue
		}
		if r, ok := tokens[idx].Quad.BoundingRect(); ok {
			rects = append(rects, r)
		}
	}
	u, ok := geometry.UnionAll(rects)
	if !ok {
		return geometry.RectInt{}, false
	}
	band := u.Pad(pad, pad, w, h)
	return band, !band.Empty()
}
