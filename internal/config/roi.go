package config

import (
	"fmt"
	"strconv"
	"strings"

	"card-redact/internal/names"
	"card-redact/pkg/geometry"
)

// RelROI is a region given as left, top, right, bottom fractions of the image.
type RelROI struct {
	Left, Top, Right, Bottom float64
}

// Resolve converts the fractions to pixels for a w x h image.
func (r RelROI) Resolve(w, h int) geometry.RectInt {
	return geometry.RectInt{
		X:      int(r.Left * float64(w)),
		Y:      int(r.Top * float64(h)),
		Width:  int((r.Right - r.Left) * float64(w)),
		Height: int((r.Bottom - r.Top) * float64(h)),
	}
}

func splitFields(s string, n int) ([]string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated values, got %d", n, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

// ParseAbsROI parses "x,y,w,h" in pixels.
func ParseAbsROI(s string) (geometry.RectInt, error) {
	parts, err := splitFields(s, 4)
	if err != nil {
		return geometry.RectInt{}, fmt.Errorf("name_roi: %w", err)
	}
	var v [4]int
	for i, p := range parts {
		if v[i], err = strconv.Atoi(p); err != nil {
			return geometry.RectInt{}, fmt.Errorf("name_roi: %q is not an integer", p)
		}
	}
	r := geometry.RectInt{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Empty() {
		return geometry.RectInt{}, fmt.Errorf("name_roi: %q has no area", s)
	}
	return r, nil
}

// ParseRelROI parses "l,t,r,b" with 0 <= l < r <= 1 and 0 <= t < b <= 1.
func ParseRelROI(s string) (RelROI, error) {
	parts, err := splitFields(s, 4)
	if err != nil {
		return RelROI{}, fmt.Errorf("name_roi_rel: %w", err)
	}
	var v [4]float64
	for i, p := range parts {
		if v[i], err = strconv.ParseFloat(p, 64); err != nil {
			return RelROI{}, fmt.Errorf("name_roi_rel: %q is not a number", p)
		}
	}
	r := RelROI{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}
	if !(0 <= r.Left && r.Left < r.Right && r.Right <= 1 && 0 <= r.Top && r.Top < r.Bottom && r.Bottom <= 1) {
		return RelROI{}, fmt.Errorf("name_roi_rel: %q must satisfy 0<=l<r<=1 and 0<=t<b<=1", s)
	}
	return r, nil
}

// HardROI resolves the name hard region for a w x h working image. An
// absolute region wins over a relative one; the bottom-half restriction only
// applies when neither is set. A nil result means no restriction.
func (o Options) HardROI(w, h int) (*geometry.RectInt, error) {
	switch {
	case o.NameROI != "":
		r, err := ParseAbsROI(o.NameROI)
		if err != nil {
			return nil, err
		}
		return &r, nil
	case o.NameROIRel != "":
		rel, err := ParseRelROI(o.NameROIRel)
		if err != nil {
			return nil, err
		}
		r := rel.Resolve(w, h)
		return &r, nil
	case o.NameRestrictBottomHalf:
		r := names.BottomHalf(w, h)
		return &r, nil
	}
	return nil, nil
}
