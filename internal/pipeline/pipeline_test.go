package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"

	"card-redact/internal/config"
	"card-redact/internal/logging"
	"card-redact/internal/ocr"
	"card-redact/internal/ocr/ocrtest"
	"card-redact/internal/vocab"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOptions keeps the working image at the input size so canned token
// coordinates line up.
func testOptions() config.Options {
	opts := config.Defaults()
	opts.NoWarp = true
	opts.Deskew = false
	opts.Upscale = 1.0
	return opts
}

func cardImage() image.Image {
	return imaging.New(1000, 600, color.NRGBA{R: 90, G: 90, B: 110, A: 255})
}

// stripedImage is cardImage with one-pixel black and white columns where the
// HELLO token sits, so a blur there is visible.
func stripedImage() image.Image {
	img := imaging.New(1000, 600, color.NRGBA{R: 90, G: 90, B: 110, A: 255})
	for y := 100; y < 140; y++ {
		for x := 100; x < 220; x++ {
			if x%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{A: 255})
			}
		}
	}
	return img
}

func red(img image.Image, x, y int) uint32 {
	r, _, _, _ := img.At(x, y).RGBA()
	return r >> 8
}

func cardRecognizer() *ocrtest.Recognizer {
	return &ocrtest.Recognizer{
		General: []ocr.Detection{
			ocrtest.Detection("4111", 100, 300, 100, 40, 0.9),
			ocrtest.Detection("1111", 220, 300, 100, 40, 0.9),
			ocrtest.Detection("1111", 340, 300, 100, 40, 0.9),
			ocrtest.Detection("1111", 460, 300, 100, 40, 0.9),
			ocrtest.Detection("VALID THRU", 600, 380, 140, 30, 0.9),
			ocrtest.Detection("12/27", 760, 380, 90, 30, 0.9),
			ocrtest.Detection("VISA", 800, 40, 150, 60, 0.95),
		},
		Name: []ocr.Detection{
			ocrtest.Detection("JOHN", 100, 470, 120, 40, 0.8),
			ocrtest.Detection("DOE", 230, 470, 90, 40, 0.8),
		},
	}
}

func newPipeline(rec ocr.Recognizer) *Pipeline {
	return New(rec, vocab.Default(), nil, logging.Discard())
}

func TestRunFindsCardExpiryAndName(t *testing.T) {
	rec := cardRecognizer()
	res, err := newPipeline(rec).Run(context.Background(), cardImage(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.NotEmpty(t, res.RequestID)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "411111******1111", res.Cards[0].Masked)
	assert.Equal(t, "Visa", res.Cards[0].Brand)
	assert.True(t, res.Cards[0].LuhnValid)

	assert.Contains(t, res.Expiry, "12/27")
	assert.Equal(t, []string{"JOHN DOE"}, res.Names)
	assert.NotEmpty(t, res.Boxes)
	for _, b := range res.Boxes {
		assert.GreaterOrEqual(t, b.X, 0)
		assert.GreaterOrEqual(t, b.Y, 0)
		assert.LessOrEqual(t, b.Right(), res.Width)
		assert.LessOrEqual(t, b.Bottom(), res.Height)
	}

	require.NotNil(t, res.Image)
	assert.Equal(t, image.Rect(0, 0, 1000, 600), res.Image.Bounds())
	assert.Nil(t, res.DebugImage)

	// Both passes ran, the second with the name allow list.
	require.Len(t, rec.Calls, 2)
	assert.Empty(t, rec.Calls[0].AllowList)
	assert.Equal(t, ocr.NameAllowList, rec.Calls[1].AllowList)
}

func TestRunManifestNeverCarriesFullNumber(t *testing.T) {
	res, err := newPipeline(cardRecognizer()).Run(context.Background(), cardImage(), testOptions())
	require.NoError(t, err)
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "4111111111111111")
	assert.Contains(t, string(data), `"outcome":"found"`)
}

func TestRunNoText(t *testing.T) {
	res, err := newPipeline(&ocrtest.Recognizer{}).Run(context.Background(), cardImage(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoText, res.Outcome)
	assert.Empty(t, res.Cards)
	assert.Empty(t, res.Expiry)
	assert.Empty(t, res.Names)
	assert.Empty(t, res.Boxes)
	require.NotNil(t, res.Image)
	assert.Equal(t, image.Rect(0, 0, 1000, 600), res.Image.Bounds())
}

func TestRunNoCardShortCircuits(t *testing.T) {
	rec := &ocrtest.Recognizer{General: []ocr.Detection{
		ocrtest.Detection("HELLO", 100, 100, 120, 40, 0.9),
		ocrtest.Detection("12/27", 100, 300, 90, 30, 0.9),
		ocrtest.Detection("JOHN DOE", 100, 470, 200, 40, 0.9),
	}}
	res, err := newPipeline(rec).Run(context.Background(), stripedImage(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoCard, res.Outcome)
	assert.Empty(t, res.Expiry)
	assert.Empty(t, res.Names)
	assert.Empty(t, res.Boxes)
	assert.Equal(t, 3, res.Tokens)
	require.NotNil(t, res.Image)
	assert.Equal(t, uint32(255), red(res.Image, 150, 120))
	assert.Equal(t, uint32(0), red(res.Image, 151, 120))
}

func TestRunBlurAllOnNoCard(t *testing.T) {
	rec := &ocrtest.Recognizer{General: []ocr.Detection{
		ocrtest.Detection("HELLO", 100, 100, 120, 40, 0.9),
	}}
	opts := testOptions()
	opts.BlurAllText = true
	res, err := newPipeline(rec).Run(context.Background(), stripedImage(), opts)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoCard, res.Outcome)
	assert.True(t, res.BlurAll)
	assert.Len(t, res.Boxes, 1)
	require.NotNil(t, res.Image)
	assert.InDelta(t, 128, float64(red(res.Image, 150, 120)), 40)
	assert.InDelta(t, 128, float64(red(res.Image, 151, 120)), 40)
}

func TestRunCollaboratorFailure(t *testing.T) {
	cause := errors.New("engine crashed")
	res, err := newPipeline(&ocrtest.Recognizer{Err: cause}).Run(context.Background(), cardImage(), testOptions())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidImage)
	assert.Equal(t, KindCollaborator, KindOf(err))
}

func TestRunRejectsBadOptions(t *testing.T) {
	opts := testOptions()
	opts.MaxSide = 0
	_, err := newPipeline(&ocrtest.Recognizer{}).Run(context.Background(), cardImage(), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestRunDebugOverlay(t *testing.T) {
	opts := testOptions()
	opts.DrawDebugBoxes = true
	res, err := newPipeline(cardRecognizer()).Run(context.Background(), cardImage(), opts)
	require.NoError(t, err)
	require.NotNil(t, res.DebugImage)
	assert.Equal(t, res.Image.Bounds(), res.DebugImage.Bounds())
}

func TestRunBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, cardImage(), imaging.PNG))

	res, err := newPipeline(cardRecognizer()).RunBytes(context.Background(), buf.Bytes(), testOptions())
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)

	_, err = newPipeline(cardRecognizer()).RunBytes(context.Background(), []byte("not an image"), testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.NotErrorIs(t, err, ErrCollaborator)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestRunIsRepeatable(t *testing.T) {
	p := newPipeline(cardRecognizer())
	first, err := p.Run(context.Background(), cardImage(), testOptions())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), cardImage(), testOptions())
	require.NoError(t, err)

	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.Equal(t, first.Cards, second.Cards)
	assert.Equal(t, first.Boxes, second.Boxes)
	assert.Equal(t, first.Names, second.Names)
}
