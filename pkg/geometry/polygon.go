package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Quad is a four-point text region outline as reported by a text detector.
// Points are expected in drawing order (usually TL, TR, BR, BL) but need not
// be axis-aligned.
type Quad [4]PointInt

// QuadFromRect returns the axis-aligned quad whose corner pixels are the
// corner pixels of r, so BoundingRect round-trips to r.
func QuadFromRect(r RectInt) Quad {
	x2, y2 := r.Right()-1, r.Bottom()-1
	return Quad{{r.X, r.Y}, {x2, r.Y}, {x2, y2}, {r.X, y2}}
}

// Area returns the absolute polygon area using the shoelace formula.
func (q Quad) Area() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		a := q[i].ToFloat()
		b := q[(i+1)%4].ToFloat()
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// SelfIntersecting reports whether opposite edges of the quad cross.
func (q Quad) SelfIntersecting() bool {
	p := make([]Point2D, 4)
	for i := range q {
		p[i] = q[i].ToFloat()
	}
	return segmentsCross(p[0], p[1], p[2], p[3]) || segmentsCross(p[1], p[2], p[3], p[0])
}

// Valid reports whether the quad encloses a non-degenerate simple polygon.
func (q Quad) Valid() bool {
	return q.Area() > 0 && !q.SelfIntersecting()
}

// BoundingRect returns the axis-aligned bounding rectangle of the quad's
// pixels. Like OpenCV's boundingRect over integer points, the extent is
// inclusive of the last pixel. Degenerate or self-intersecting quads yield
// ok=false.
func (q Quad) BoundingRect() (RectInt, bool) {
	if !q.Valid() {
		return RectInt{}, false
	}
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := minX, minY
	for _, p := range q[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}, true
}

// OrderCorners orders four points as top-left, top-right, bottom-right,
// bottom-left: TL minimises x+y, BR maximises x+y, TR minimises y-x and BL
// maximises y-x.
func OrderCorners(pts [4]Point2D) [4]Point2D {
	sums := make([]float64, 4)
	diffs := make([]float64, 4)
	for i, p := range pts {
		sums[i] = p.X + p.Y
		diffs[i] = p.Y - p.X
	}
	return [4]Point2D{
		pts[floats.MinIdx(sums)],
		pts[floats.MinIdx(diffs)],
		pts[floats.MaxIdx(sums)],
		pts[floats.MaxIdx(diffs)],
	}
}

// segmentsCross reports whether segments p1-p2 and p3-p4 properly intersect.
func segmentsCross(p1, p2, p3, p4 Point2D) bool {
	d1 := crossProduct(p3, p4, p1)
	d2 := crossProduct(p3, p4, p2)
	d3 := crossProduct(p1, p2, p3)
	d4 := crossProduct(p1, p2, p4)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
