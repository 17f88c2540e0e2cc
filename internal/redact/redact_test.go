package redact

import (
	"bytes"
	"image"
	"math/rand"
	"testing"

	"card-redact/internal/logging"
	"card-redact/internal/ocr"
	"card-redact/internal/ocr/ocrtest"
	"card-redact/internal/vocab"
	"card-redact/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func newCompositor() *Compositor {
	return NewCompositor(vocab.Default(), logging.Discard())
}

func TestPlanCollectsAndDedupes(t *testing.T) {
	band := geometry.RectInt{X: 10, Y: 200, Width: 400, Height: 60}
	src := Sources{
		Expiry: []geometry.RectInt{{X: 500, Y: 300, Width: 80, Height: 24}, {X: 500, Y: 300, Width: 80, Height: 24}},
		Band:   &band,
		NameTokens: []ocr.Token{
			ocrtest.Token("JOHN", 20, 400, 100, 30, 80),
			ocrtest.Token("DOE", 130, 400, 80, 30, 80),
		},
	}
	plan := newCompositor().Plan(src, 800, 500, Options{})
	assert.False(t, plan.BlurAll)
	assert.Equal(t, []geometry.RectInt{
		{X: 500, Y: 300, Width: 80, Height: 24},
		band,
		{X: 20, Y: 400, Width: 100, Height: 30},
		{X: 130, Y: 400, Width: 80, Height: 30},
	}, plan.Boxes)
}

func TestPlanBrandTokensExempt(t *testing.T) {
	src := Sources{NameTokens: []ocr.Token{
		ocrtest.Token("JOHN", 20, 400, 100, 30, 80),
		ocrtest.Token("PLATINUM", 130, 400, 160, 30, 80),
	}}
	c := newCompositor()

	plan := c.Plan(src, 800, 500, Options{})
	assert.Equal(t, []geometry.RectInt{{X: 20, Y: 400, Width: 100, Height: 30}}, plan.Boxes)

	plan = c.Plan(src, 800, 500, Options{BlurBrandText: true})
	assert.Len(t, plan.Boxes, 2)
}

func TestPlanBlurAllFallbackIsLoud(t *testing.T) {
	var buf bytes.Buffer
	c := NewCompositor(vocab.Default(), logging.NewWithWriter(&buf, "test"))
	src := Sources{Tokens: []ocr.Token{
		ocrtest.Token("HELLO", 10, 10, 50, 20, 90),
		ocrtest.Token("WORLD", 70, 10, 50, 20, 90),
	}}

	plan := c.Plan(src, 200, 100, Options{})
	assert.Empty(t, plan.Boxes)
	assert.False(t, plan.BlurAll)

	plan = c.Plan(src, 200, 100, Options{BlurAllText: true})
	assert.True(t, plan.BlurAll)
	assert.Len(t, plan.Boxes, 2)
	assert.Contains(t, buf.String(), "[WARN]")
}

func TestPlanBoxesStayInsideImage(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c := newCompositor()
	const w, h = 640, 400
	for i := 0; i < 200; i++ {
		band := geometry.RectInt{X: rng.Intn(900) - 100, Y: rng.Intn(600) - 100, Width: rng.Intn(500), Height: rng.Intn(200)}
		src := Sources{
			Expiry: []geometry.RectInt{{X: rng.Intn(800) - 50, Y: rng.Intn(500) - 50, Width: rng.Intn(120), Height: rng.Intn(40)}},
			Band:   &band,
			NameTokens: []ocr.Token{
				ocrtest.Token("JOHN", rng.Intn(800)-50, rng.Intn(500)-50, 1+rng.Intn(200), 1+rng.Intn(50), 80),
			},
		}
		for _, b := range c.Plan(src, w, h, Options{}).Boxes {
			require.GreaterOrEqual(t, b.X, 0)
			require.GreaterOrEqual(t, b.Y, 0)
			require.LessOrEqual(t, b.Right(), w)
			require.LessOrEqual(t, b.Bottom(), h)
			require.False(t, b.Empty())
		}
	}
}

func TestOddKernel(t *testing.T) {
	assert.Equal(t, 61, OddKernel(61))
	assert.Equal(t, 41, OddKernel(40))
	assert.Equal(t, 1, OddKernel(0))
}

func TestApplyBlursOnlyInsideBoxes(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 100, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	// Two bright stripes: one to be blurred, one left alone.
	gocv.Rectangle(&img, image.Rect(40, 20, 42, 80), debugColor, -1)
	gocv.Rectangle(&img, image.Rect(160, 20, 162, 80), debugColor, -1)

	out := Apply(img, []geometry.RectInt{{X: 30, Y: 30, Width: 30, Height: 30}}, 4, 10)
	defer out.Close()

	// Stripe pixel inside the blurred box is spread out.
	assert.Less(t, out.GetUCharAt(45, 40*3+2), uint8(255))
	// Far stripe keeps its value.
	assert.Equal(t, uint8(255), out.GetUCharAt(45, 160*3+2))
	// Input is not modified.
	assert.Equal(t, uint8(255), img.GetUCharAt(45, 40*3+2))
}

func TestOverlayDrawsRed(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 50, 50, gocv.MatTypeCV8UC3)
	defer img.Close()
	out := Overlay(img, []geometry.RectInt{{X: 10, Y: 10, Width: 20, Height: 20}})
	defer out.Close()
	assert.Equal(t, uint8(255), out.GetUCharAt(10, 15*3+2))
	assert.Equal(t, uint8(0), out.GetUCharAt(10, 15*3+0))
	assert.Equal(t, uint8(0), img.GetUCharAt(10, 15*3+2))
}
