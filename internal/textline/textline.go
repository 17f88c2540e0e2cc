// Package textline groups OCR tokens into horizontal text lines.
package textline

import (
	"math"
	"sort"
	"strings"

	"card-redact/internal/ocr"
	"card-redact/pkg/geometry"
)

// DefaultTolerance is the fraction of the taller token's height that two
// token centers may differ by vertically and still share a line.
const DefaultTolerance = 0.6

// Line padding applied around the union of member boxes.
const (
	padX = 8
	padY = 4
)

// Line is a run of tokens on one printed line, ordered left to right as they
// were consumed.
type Line struct {
	Text         string           `json:"text"`
	TokenIndices []int            `json:"token_indices"`
	BBox         geometry.RectInt `json:"bbox"`
}

// SameLine reports whether two boxes sit on the same text line.
func SameLine(a, b geometry.RectInt, tolerance float64) bool {
	ca := float64(a.Y) + float64(a.Height)/2
	cb := float64(b.Y) + float64(b.Height)/2
	return math.Abs(ca-cb) <= float64(max(a.Height, b.Height))*tolerance
}

// Entry pairs a token index with its bounding box and a text view.
type Entry struct {
	Index int
	Rect  geometry.RectInt
	Text  string
}

// SortEntries orders entries by top edge, then left edge. The sort is stable
// so equal positions keep token order.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Rect.Y != entries[j].Rect.Y {
			return entries[i].Rect.Y < entries[j].Rect.Y
		}
		return entries[i].Rect.X < entries[j].Rect.X
	})
}

// Runs splits sorted entries into maximal runs where every entry is on the
// same line as the run's first entry and accepted by keep. Entries that keep
// rejects end the current run; a rejected entry at the head of a run is
// skipped when seed rejects it.
func Runs(entries []Entry, tolerance float64, seed, keep func(Entry) bool) [][]Entry {
	var runs [][]Entry
	i := 0
	for i < len(entries) {
		first := entries[i]
		if seed != nil && !seed(first) {
			i++
			continue
		}
		run := []Entry{first}
		j := i + 1
		for j < len(entries) {
			next := entries[j]
			if !SameLine(first.Rect, next.Rect, tolerance) || (keep != nil && !keep(next)) {
				break
			}
			run = append(run, next)
			j++
		}
		runs = append(runs, run)
		i = j
	}
	return runs
}

// Build assembles lines from tokens. Tokens with empty text are ignored.
// Lines come out top to bottom and each line box is the padded union of its
// members clipped to the image.
func Build(tokens []ocr.Token, imgW, imgH int, tolerance float64) []Line {
	entries := make([]Entry, 0, len(tokens))
	for i, tok := range tokens {
		text := strings.TrimSpace(tok.Text)
		if text == "" {
			continue
		}
		r, ok := tok.Quad.BoundingRect()
		if !ok {
			continue
		}
		entries = append(entries, Entry{Index: i, Rect: r, Text: text})
	}
	SortEntries(entries)

	var lines []Line
	for _, run := range Runs(entries, tolerance, nil, nil) {
		texts := make([]string, len(run))
		idxs := make([]int, len(run))
		rects := make([]geometry.RectInt, len(run))
		for k, e := range run {
			texts[k] = e.Text
			idxs[k] = e.Index
			rects[k] = e.Rect
		}
		joined := strings.TrimSpace(strings.Join(texts, " "))
		if joined == "" {
			continue
		}
		u, _ := geometry.UnionAll(rects)
		lines = append(lines, Line{
			Text:         joined,
			TokenIndices: idxs,
			BBox:         u.Pad(padX, padY, imgW, imgH),
		})
	}
	return lines
}
