// Package geometry provides basic geometric types used throughout the redaction pipeline.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// RectInt represents a rectangle with integer coordinates in x, y, width,
// height form. All redaction boxes travel in this form.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromCorners builds a RectInt from x1,y1,x2,y2 corner coordinates.
func FromCorners(x1, y1, x2, y2 int) RectInt {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// FromImageRect converts an image.Rectangle (corner form) to a RectInt.
func FromImageRect(r image.Rectangle) RectInt {
	r = r.Canon()
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ToImageRect converts to an image.Rectangle.
func (r RectInt) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Right returns the exclusive right edge.
func (r RectInt) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r RectInt) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Center returns the center point of the rectangle.
func (r RectInt) Center() Point2D {
	return Point2D{X: float64(r.X) + float64(r.Width)/2, Y: float64(r.Y) + float64(r.Height)/2}
}

// AspectRatio returns width over height, with height floored at 1.
func (r RectInt) AspectRatio() float64 {
	return float64(r.Width) / math.Max(1, float64(r.Height))
}

// Union returns the smallest rectangle containing both rectangles.
func (r RectInt) Union(other RectInt) RectInt {
	x1 := min(r.X, other.X)
	y1 := min(r.Y, other.Y)
	x2 := max(r.Right(), other.Right())
	y2 := max(r.Bottom(), other.Bottom())
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Clip restricts the rectangle to [0,width)x[0,height).
func (r RectInt) Clip(width, height int) RectInt {
	x1 := clampInt(r.X, 0, width)
	y1 := clampInt(r.Y, 0, height)
	x2 := clampInt(r.Right(), 0, width)
	y2 := clampInt(r.Bottom(), 0, height)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Pad grows the rectangle by dx horizontally and dy vertically on each side,
// then clips it to the image bounds.
func (r RectInt) Pad(dx, dy, width, height int) RectInt {
	grown := RectInt{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
	return grown.Clip(width, height)
}

// Expand grows the rectangle by margin on every side, clipped to the image bounds.
func (r RectInt) Expand(margin, width, height int) RectInt {
	return r.Pad(margin, margin, width, height)
}

// Within reports whether r lies fully inside outer.
func (r RectInt) Within(outer RectInt) bool {
	return outer.X <= r.X && r.Right() <= outer.Right() &&
		outer.Y <= r.Y && r.Bottom() <= outer.Bottom()
}

// UnionAll returns the union of a non-empty slice of rectangles.
func UnionAll(rects []RectInt) (RectInt, bool) {
	if len(rects) == 0 {
		return RectInt{}, false
	}
	u := rects[0]
	for _, r := range rects[1:] {
		u = u.Union(r)
	}
	return u, true
}

// UniqueRects removes exact duplicates, keeping first-seen order.
func UniqueRects(rects []RectInt) []RectInt {
	seen := make(map[RectInt]struct{}, len(rects))
	out := make([]RectInt, 0, len(rects))
	for _, r := range rects {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
