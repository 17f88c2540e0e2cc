package expiry

import (
	"testing"

	"card-redact/internal/ocr"
	"card-redact/internal/ocr/ocrtest"
	"card-redact/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFormats(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"12/27", "12/27"},
		{"THRU 01-29", "01-29"},
		{"05.2031", "05.2031"},
		{"0926", "0926"},
		{"09 26", "09 26"},
		{"13/27", ""},
		{"00/27", ""},
		{"4111", ""},
		{"VALID", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Find([]ocr.Token{ocrtest.Token(tt.text, 0, 0, 50, 20, 90)})
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Text)
		})
	}
}

func TestFindValidThruLine(t *testing.T) {
	tokens := []ocr.Token{
		ocrtest.Token("VALID", 500, 400, 80, 24, 90),
		ocrtest.Token("THRU", 590, 400, 70, 24, 90),
		ocrtest.Token("12/27", 680, 430, 90, 24, 90),
	}
	got := Find(tokens)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].TokenIndex)
	assert.Equal(t, geometry.RectInt{X: 680, Y: 430, Width: 90, Height: 24}, got[0].Rect)
	assert.Equal(t, []string{"12/27"}, Texts(got))
}

func TestTextsDedupeKeepsOrderAndRects(t *testing.T) {
	tokens := []ocr.Token{
		ocrtest.Token("12/27", 0, 0, 50, 20, 90),
		ocrtest.Token("03/25", 0, 40, 50, 20, 90),
		ocrtest.Token("12/27", 0, 80, 50, 20, 40),
	}
	got := Find(tokens)
	assert.Equal(t, []string{"12/27", "03/25"}, Texts(got))
	assert.Len(t, Rects(got), 3)
}
